package syncer

import (
	"github.com/vx-labs/syncer/pb"
	"go.uber.org/zap"
)

// reactorState tracks whether a reactor's outbound side has a write in
// flight.
type reactorState int

const (
	reactorIdle reactorState = iota
	reactorWriting
)

// peerComponentState tracks what a peer is known to have for one
// (origin, component) pair. seen disambiguates "never observed" from
// "observed at version 0": a zero-valued version alone can't tell those
// apart, and a version-0 update must still be delivered the first time.
type peerComponentState struct {
	version uint64
	seen    bool
}

// reactor is the per-peer state machine wrapping one bidirectional
// stream. A server reactor and a client reactor differ only in how the
// stream and peer NodeID were established; from here on both run the
// identical data-plane state machine below.
//
// Go's gRPC API is synchronous (blocking Send/Recv) rather than the
// callback-driven reactor interfaces the source material is built on, so
// each outstanding read and write is modeled as a one-shot goroutine
// that performs the blocking call and dispatches its completion back
// onto the engine's event loop. All state below this comment is only
// ever touched from that event loop.
type reactor struct {
	engine *Engine
	peer   NodeID
	stream wireStream
	server bool
	logger *zap.Logger

	peerVersions map[NodeID]*[ComponentCount]peerComponentState

	outbuf   []*Message
	consumed int
	state    reactorState

	closed   bool
	lastErr  error
	done     chan struct{}
}

func newReactor(engine *Engine, peer NodeID, stream wireStream, server bool, logger *zap.Logger) *reactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &reactor{
		engine:       engine,
		peer:         peer,
		stream:       stream,
		server:       server,
		logger:       logger.With(zap.String("peer", peer.Hex())),
		peerVersions: make(map[NodeID]*[ComponentCount]peerComponentState),
		done:         make(chan struct{}),
	}
}

// Done returns a channel closed once the reactor has reached a terminal
// state, for the service adapter's blocking StartSync handler to wait on.
func (r *reactor) Done() <-chan struct{} { return r.done }

// Err returns the error that terminated the reactor, if any.
func (r *reactor) Err() error { return r.lastErr }

func (r *reactor) peerVersionsFor(origin NodeID) *[ComponentCount]peerComponentState {
	pv, ok := r.peerVersions[origin]
	if !ok {
		pv = &[ComponentCount]peerComponentState{}
		r.peerVersions[origin] = pv
	}
	return pv
}

// armRead issues the next read. Must run on the event loop; the actual
// blocking Recv happens on a fresh goroutine.
func (r *reactor) armRead() {
	if r.closed {
		return
	}
	go r.readOnce()
}

func (r *reactor) readOnce() {
	batch, err := r.stream.Recv()
	if err != nil {
		r.engine.dispatch(func() { r.onReadFailure(err) })
		return
	}
	r.engine.dispatch(func() { r.onRead(batch) })
}

// onRead decodes one inbound batch, records what the peer has now shown
// us, and feeds each message into the engine. Must run on the event
// loop.
func (r *reactor) onRead(batch *pb.MessageBatch) {
	if r.closed {
		return
	}
	for _, pm := range batch.Messages {
		m, err := messageFromProto(pm)
		if err != nil {
			r.logger.Warn("dropping malformed message", zap.Error(err))
			continue
		}
		pv := r.peerVersionsFor(m.Origin)
		slot := pv[m.Component]
		if !slot.seen || slot.version < m.Version {
			pv[m.Component] = peerComponentState{version: m.Version, seen: true}
		}
		r.engine.updateLocked(m)
	}
	r.armRead()
}

// send is called by the engine's fan-out. Must run on the event loop.
func (r *reactor) send(m *Message) {
	if r.closed {
		return
	}
	pv := r.peerVersionsFor(m.Origin)
	slot := pv[m.Component]
	if slot.seen && slot.version >= m.Version {
		return
	}
	r.outbuf = append(r.outbuf, m)
	pv[m.Component] = peerComponentState{version: m.Version, seen: true}
	if r.state == reactorIdle {
		r.pump()
	}
}

// pump builds and issues the next outbound batch, coalescing per-origin.
// Must run on the event loop; the actual blocking Send happens on a
// fresh goroutine.
func (r *reactor) pump() {
	if r.consumed > 0 {
		r.outbuf = r.outbuf[r.consumed:]
		r.consumed = 0
	}
	if len(r.outbuf) == 0 {
		r.state = reactorIdle
		return
	}

	seen := make(map[NodeID]struct{}, len(r.outbuf))
	var messages []*Message
	for i := len(r.outbuf) - 1; i >= 0; i-- {
		m := r.outbuf[i]
		if _, ok := seen[m.Origin]; ok {
			continue
		}
		seen[m.Origin] = struct{}{}
		messages = append(messages, m)
	}
	r.consumed = len(r.outbuf)
	r.state = reactorWriting

	batch := batchToProto(messages)
	go r.writeOnce(batch)
}

func (r *reactor) writeOnce(batch *pb.MessageBatch) {
	err := r.stream.Send(batch)
	r.engine.dispatch(func() {
		if err != nil {
			r.onWriteFailure(err)
			return
		}
		r.pump()
	})
}

// onReadFailure and onWriteFailure both drive the reactor to its terminal
// state; a transport error gives no useful distinction between a failed
// read and a failed write. Must run on the event loop.
func (r *reactor) onReadFailure(err error) {
	r.terminal(err)
}

func (r *reactor) onWriteFailure(err error) {
	r.terminal(err)
}

// closeSender is implemented by the client-side stream (grpc.ClientStream
// embeds it); the server side has no equivalent half-close.
type closeSender interface {
	CloseSend() error
}

// terminal transitions the reactor to its terminal state, deregisters it
// from the engine, and unblocks Done(). A client reactor signals
// writes-done on its way out; a server reactor simply stops, letting its
// StartSync handler return. Idempotent. Must run on the event loop.
func (r *reactor) terminal(err error) {
	if r.closed {
		return
	}
	r.closed = true
	r.lastErr = err
	if err != nil {
		r.logger.Info("sync stream terminated", zap.Error(err))
	}
	if !r.server {
		if cs, ok := r.stream.(closeSender); ok {
			cs.CloseSend()
		}
	}
	r.engine.disconnectLocked(r.peer, err)
	close(r.done)
}

// closeLocally is used by Engine.Close to tear reactors down without a
// transport failure driving it. Must run on the event loop (drainAndClose
// already runs there).
func (r *reactor) closeLocally() {
	r.terminal(nil)
}
