// Package events is a small connect/disconnect notification bus for
// syncer.Engine. An embedding host commonly wants to drive its own
// health checks or metrics off peer lifecycle without polling the
// engine. It never touches the data plane: the cluster view, reactors,
// and peer version tracking are all untouched by this package.
package events

import (
	"sync/atomic"
	"unsafe"

	"github.com/google/uuid"
	iradix "github.com/hashicorp/go-immutable-radix"
)

// Kind enumerates the lifecycle events carried by the bus. The engine
// emits PeerConnected and PeerDisconnected; it does not emit
// ReactorFailed.
type Kind int

const (
	PeerConnected Kind = iota
	PeerDisconnected
	ReactorFailed
)

// Event is one lifecycle notification.
type Event struct {
	Kind Kind
	Peer [16]byte
	Err  error
}

type subscription struct {
	ch   chan Event
	quit chan struct{}
}

// CancelFunc removes a subscription registered with Subscribe.
type CancelFunc func()

// Bus fans Events out to every live subscriber. Subscribers that are not
// ready to receive are skipped rather than blocking the emitter, since
// emit is always called from the engine's single event-loop goroutine and
// must not stall on a slow observer.
type Bus struct {
	state unsafe.Pointer // *iradix.Tree
}

// NewBus constructs an empty event bus.
func NewBus() *Bus {
	b := &Bus{}
	atomic.StorePointer(&b.state, unsafe.Pointer(iradix.New()))
	return b
}

func (b *Bus) tree() *iradix.Tree {
	return (*iradix.Tree)(atomic.LoadPointer(&b.state))
}

func (b *Bus) cas(old, new *iradix.Tree) bool {
	return atomic.CompareAndSwapPointer(&b.state, unsafe.Pointer(old), unsafe.Pointer(new))
}

// Emit delivers ev to every current subscriber. Non-blocking per
// subscriber: a subscriber whose 8-event buffer is full misses the event
// rather than stalling the caller.
func (b *Bus) Emit(ev Event) {
	b.tree().Root().Walk(func(_ []byte, v interface{}) bool {
		sub := v.(*subscription)
		select {
		case sub.ch <- ev:
		case <-sub.quit:
		default:
		}
		return false
	})
}

// Subscribe registers fn to be called for every future Emit and returns a
// CancelFunc that removes the subscription.
func (b *Bus) Subscribe(fn func(Event)) CancelFunc {
	sub := &subscription{ch: make(chan Event, 8), quit: make(chan struct{})}
	id := []byte(uuid.New().String())
	for {
		old := b.tree()
		newTree, _, _ := old.Insert(id, sub)
		if b.cas(old, newTree) {
			break
		}
	}
	go func() {
		for {
			select {
			case ev := <-sub.ch:
				fn(ev)
			case <-sub.quit:
				return
			}
		}
	}()
	return func() {
		for {
			old := b.tree()
			newTree, _, ok := old.Delete(id)
			if !ok {
				return
			}
			if b.cas(old, newTree) {
				close(sub.quit)
				return
			}
		}
	}
}
