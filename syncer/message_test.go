package syncer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vx-labs/syncer/pb"
)

func TestMessageProtoRoundTrip(t *testing.T) {
	origin := NewNodeID()
	m := NewMessage(origin, 3, 42, []byte("payload"))

	p := m.toProto()
	require.Equal(t, origin.Bytes(), p.GetOrigin())
	require.Equal(t, uint32(3), p.GetComponent())
	require.Equal(t, pb.MessageType_SNAPSHOT, p.GetType())

	back, err := messageFromProto(p)
	require.NoError(t, err)
	require.Equal(t, origin, back.Origin)
	require.Equal(t, m.Component, back.Component)
	require.Equal(t, m.Version, back.Version)
	require.Equal(t, m.Payload, back.Payload)
}

func TestMessageFromProtoRejectsBadOrigin(t *testing.T) {
	_, err := messageFromProto(&pb.Message{Origin: []byte("too-short"), Component: 0})
	require.Error(t, err)
}

func TestMessageFromProtoRejectsUnknownComponent(t *testing.T) {
	_, err := messageFromProto(&pb.Message{Origin: NewNodeID().Bytes(), Component: ComponentCount + 1})
	require.Error(t, err)
}

func TestBatchToProtoPreservesOrder(t *testing.T) {
	a := NewMessage(NewNodeID(), 0, 1, nil)
	b := NewMessage(NewNodeID(), 1, 1, nil)
	batch := batchToProto([]*Message{a, b})
	require.Len(t, batch.Messages, 2)
	require.Equal(t, a.Origin.Bytes(), batch.Messages[0].Origin)
	require.Equal(t, b.Origin.Bytes(), batch.Messages[1].Origin)
}
