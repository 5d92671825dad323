package syncer

import (
	"fmt"

	"github.com/vx-labs/syncer/pb"
)

// ComponentID addresses a kind of per-node state. The enumeration is small
// and closed at build time, so the engine indexes fixed-size arrays by it
// rather than carrying a map.
type ComponentID uint32

// ComponentCount is the compile-time size of the component enumeration.
// 8 covers the demo components registered by cmd/syncer-agent with
// headroom for a host to register a few more without recompiling the
// core.
const ComponentCount = 8

func (c ComponentID) valid() bool {
	return c < ComponentCount
}

// MessageType mirrors pb.MessageType at the engine layer so callers never
// need to import pb directly to construct a Message.
type MessageType uint32

const (
	Snapshot  MessageType = MessageType(pb.MessageType_SNAPSHOT)
	Aggregate MessageType = MessageType(pb.MessageType_AGGREGATE)
)

// Message is an immutable record of one origin's state for one component.
// Once constructed it is never mutated; it is shared by reference among
// the cluster view, outbound reactor buffers, and Receiver callbacks.
type Message struct {
	Origin    NodeID
	Component ComponentID
	Type      MessageType
	Version   uint64
	Payload   []byte
}

// NewMessage constructs a Snapshot Message. Reporters use this to build
// the value they hand back from Snapshot.
func NewMessage(origin NodeID, component ComponentID, version uint64, payload []byte) *Message {
	return &Message{
		Origin:    origin,
		Component: component,
		Type:      Snapshot,
		Version:   version,
		Payload:   payload,
	}
}

// NewAggregate constructs an AGGREGATE Message: fanned out, never
// retained in the cluster view, and never deduplicated by the view. Each
// reactor's send still drops one whose version is not newer than what
// that peer has already sent or been sent for the same
// (origin, component).
func NewAggregate(origin NodeID, component ComponentID, version uint64, payload []byte) *Message {
	return &Message{
		Origin:    origin,
		Component: component,
		Type:      Aggregate,
		Version:   version,
		Payload:   payload,
	}
}

func (m *Message) toProto() *pb.Message {
	return &pb.Message{
		Origin:    m.Origin.Bytes(),
		Component: uint32(m.Component),
		Type:      pb.MessageType(m.Type),
		Version:   m.Version,
		Payload:   m.Payload,
	}
}

func messageFromProto(p *pb.Message) (*Message, error) {
	origin, err := NodeIDFromBytes(p.GetOrigin())
	if err != nil {
		return nil, fmt.Errorf("syncer: decoding message origin: %w", err)
	}
	component := ComponentID(p.GetComponent())
	if !component.valid() {
		return nil, fmt.Errorf("syncer: component %d out of range [0,%d)", component, ComponentCount)
	}
	return &Message{
		Origin:    origin,
		Component: component,
		Type:      MessageType(p.GetType()),
		Version:   p.GetVersion(),
		Payload:   p.GetPayload(),
	}, nil
}

func batchToProto(messages []*Message) *pb.MessageBatch {
	out := &pb.MessageBatch{Messages: make([]*pb.Message, len(messages))}
	for i, m := range messages {
		out.Messages[i] = m.toProto()
	}
	return out
}
