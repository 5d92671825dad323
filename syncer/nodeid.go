package syncer

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// NodeID is an opaque binary identifier unique to a participant for the
// life of the cluster. It is sized to a UUID so that hosts with no
// existing identity scheme can mint one with google/uuid.
type NodeID [16]byte

// NewNodeID mints a random NodeID.
func NewNodeID() NodeID {
	return NodeID(uuid.New())
}

// NodeIDFromBytes builds a NodeID from its wire representation. The
// in-memory representation is fixed at exactly 16 bytes so it can be
// used directly as a map key; longer identifiers are rejected rather
// than silently truncated.
func NodeIDFromBytes(b []byte) (NodeID, error) {
	var n NodeID
	if len(b) != len(n) {
		return n, fmt.Errorf("syncer: node id must be %d bytes, got %d", len(n), len(b))
	}
	copy(n[:], b)
	return n, nil
}

// NodeIDFromHex decodes the lowercase-hex encoding carried in the
// "node_id" initial metadata key.
func NodeIDFromHex(s string) (NodeID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return NodeID{}, fmt.Errorf("syncer: decoding node id: %w", err)
	}
	return NodeIDFromBytes(b)
}

// Bytes returns the wire representation of the NodeID.
func (n NodeID) Bytes() []byte {
	out := make([]byte, len(n))
	copy(out, n[:])
	return out
}

// Hex returns the lowercase hex encoding used on the wire and in initial
// metadata.
func (n NodeID) Hex() string {
	return hex.EncodeToString(n[:])
}

func (n NodeID) String() string {
	return n.Hex()
}

// IsZero reports whether n is the zero NodeID (never a valid participant).
func (n NodeID) IsZero() bool {
	return n == NodeID{}
}
