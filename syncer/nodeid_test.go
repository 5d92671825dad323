package syncer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeIDFromBytesRejectsWrongLength(t *testing.T) {
	_, err := NodeIDFromBytes([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestNodeIDHexRoundTrip(t *testing.T) {
	n := NewNodeID()
	decoded, err := NodeIDFromHex(n.Hex())
	require.NoError(t, err)
	require.Equal(t, n, decoded)
}

func TestNodeIDFromHexRejectsInvalidHex(t *testing.T) {
	_, err := NodeIDFromHex("not-hex")
	require.Error(t, err)
}

func TestNodeIDIsZero(t *testing.T) {
	var zero NodeID
	require.True(t, zero.IsZero())
	require.False(t, NewNodeID().IsZero())
}
