package syncer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClusterViewAcceptStaleAndNewer(t *testing.T) {
	v := newClusterView()
	origin := NewNodeID()

	m5 := NewMessage(origin, 0, 5, []byte("a"))
	require.Equal(t, Accepted, v.accept(m5))
	require.Same(t, m5, v.current(origin, 0))

	m3 := NewMessage(origin, 0, 3, []byte("b"))
	require.Equal(t, Stale, v.accept(m3))
	require.Same(t, m5, v.current(origin, 0))

	m5again := NewMessage(origin, 0, 5, []byte("c"))
	require.Equal(t, Stale, v.accept(m5again), "ties are stale, not accepted")

	m7 := NewMessage(origin, 0, 7, []byte("d"))
	require.Equal(t, Accepted, v.accept(m7))
	require.Same(t, m7, v.current(origin, 0))
}

func TestClusterViewAggregateNeverStored(t *testing.T) {
	v := newClusterView()
	origin := NewNodeID()

	agg := NewAggregate(origin, 0, 100, []byte("agg"))
	require.Equal(t, FanoutOnly, v.accept(agg))
	require.Nil(t, v.current(origin, 0))
}

func TestClusterViewCurrentAbsent(t *testing.T) {
	v := newClusterView()
	require.Nil(t, v.current(NewNodeID(), 0))
}

func TestClusterViewSnapshotExcludesOrigin(t *testing.T) {
	v := newClusterView()
	self := NewNodeID()
	other := NewNodeID()

	require.Equal(t, Accepted, v.accept(NewMessage(self, 0, 1, nil)))
	require.Equal(t, Accepted, v.accept(NewMessage(other, 1, 1, nil)))

	snap := v.snapshot(self)
	require.Len(t, snap, 1)
	require.Equal(t, other, snap[0].Origin)

	full := v.snapshot(NewNodeID())
	require.Len(t, full, 2)
}
