package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.True(t, cond(), "condition not met within %s", timeout)
}

func TestSubscribeReceivesEmit(t *testing.T) {
	b := NewBus()
	var got Event
	var received bool
	cancel := b.Subscribe(func(ev Event) {
		got = ev
		received = true
	})
	defer cancel()

	peer := [16]byte{1, 2, 3}
	b.Emit(Event{Kind: PeerConnected, Peer: peer})

	waitFor(t, time.Second, func() bool { return received })
	require.Equal(t, PeerConnected, got.Kind)
	require.Equal(t, peer, got.Peer)
}

func TestCancelStopsDelivery(t *testing.T) {
	b := NewBus()
	count := 0
	cancel := b.Subscribe(func(ev Event) { count++ })
	cancel()

	b.Emit(Event{Kind: PeerDisconnected})
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 0, count)
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	b := NewBus()
	var a, c int
	cancelA := b.Subscribe(func(ev Event) { a++ })
	cancelC := b.Subscribe(func(ev Event) { c++ })
	defer cancelA()
	defer cancelC()

	b.Emit(Event{Kind: ReactorFailed})

	waitFor(t, time.Second, func() bool { return a == 1 && c == 1 })
}
