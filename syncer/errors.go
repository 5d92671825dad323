package syncer

import "errors"

// ErrAlreadyConnected is returned by ConnectToLeader when a leader
// connection is already live.
var ErrAlreadyConnected = errors.New("syncer: already connected to a leader")

// ErrNoLeader reports that no leader connection is live. The engine
// itself does not return it.
var ErrNoLeader = errors.New("syncer: not connected to a leader")

// ErrUnknownComponent is returned when a caller addresses a component
// outside [0, ComponentCount).
var ErrUnknownComponent = errors.New("syncer: component id out of range")

// ErrEngineClosed is returned by operations submitted after Close.
var ErrEngineClosed = errors.New("syncer: engine is closed")
