package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/vx-labs/syncer/pb"
	"github.com/vx-labs/syncer/syncer/events"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// wireStream is satisfied by both pb.Syncer_StartSyncClient and
// pb.Syncer_StartSyncServer: the client and server reactors share this
// identical data-plane surface.
type wireStream interface {
	Send(*pb.MessageBatch) error
	Recv() (*pb.MessageBatch, error)
}

// Engine is the top-level coordinator. It owns the cluster view, the
// component registry, the periodic snapshot drivers, and the reactor
// registry, and multiplexes every accepted Message into every connected
// reactor. Every public method dispatches onto the single event-loop
// goroutine before touching any of that state.
type Engine struct {
	self   NodeID
	logger *zap.Logger
	bus    *events.Bus

	view *clusterView
	reg  *registry

	followers map[NodeID]*reactor
	leader    *reactor

	tickerStop [ComponentCount]chan struct{}

	jobs   chan func()
	closed chan struct{}
	done   chan struct{}
}

// NewEngine constructs an Engine identified as self. Call Run before
// registering components or accepting connections.
func NewEngine(self NodeID, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		self:      self,
		logger:    logger.With(zap.String("node_id", self.Hex())),
		bus:       events.NewBus(),
		view:      newClusterView(),
		reg:       newRegistry(),
		followers: make(map[NodeID]*reactor),
		jobs:      make(chan func(), 256),
		closed:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Self returns this participant's NodeID.
func (e *Engine) Self() NodeID { return e.self }

// Events exposes the connect/disconnect notification bus.
func (e *Engine) Events() *events.Bus { return e.bus }

// Run starts the single-threaded event loop in its own goroutine. It
// returns immediately; Close stops the loop after draining pending jobs.
func (e *Engine) Run() {
	go func() {
		defer close(e.done)
		for {
			select {
			case job := <-e.jobs:
				job()
			case <-e.closed:
				e.drainAndClose()
				return
			}
		}
	}()
}

func (e *Engine) drainAndClose() {
	for {
		select {
		case job := <-e.jobs:
			job()
		default:
			for c := range e.tickerStop {
				if e.tickerStop[c] != nil {
					close(e.tickerStop[c])
					e.tickerStop[c] = nil
				}
			}
			for _, r := range e.followers {
				r.closeLocally()
			}
			if e.leader != nil {
				e.leader.closeLocally()
			}
			return
		}
	}
}

// Close stops the event loop and every reactor. It blocks until the loop
// goroutine has exited.
func (e *Engine) Close() {
	select {
	case <-e.closed:
	default:
		close(e.closed)
	}
	<-e.done
}

// dispatch submits fn to run on the event loop and returns immediately.
// Used by reactor read/write completions, which must never mutate engine
// state off-loop.
func (e *Engine) dispatch(fn func()) {
	select {
	case e.jobs <- fn:
	case <-e.closed:
	}
}

// dispatchSync submits fn to run on the event loop and blocks for its
// result, for host-facing calls that need a synchronous answer
// (Register, ConnectToLeader, Accept).
func (e *Engine) dispatchSync(fn func() error) error {
	result := make(chan error, 1)
	select {
	case e.jobs <- func() { result <- fn() }:
	case <-e.closed:
		return ErrEngineClosed
	}
	select {
	case err := <-result:
		return err
	case <-e.closed:
		return ErrEngineClosed
	}
}

// Register installs the Reporter/Receiver hooks for component. If
// reporter is non-nil the periodic snapshot driver is armed at period,
// defaulting to DefaultPublishPeriod when period <= 0. A second call for
// the same component replaces prior hooks.
func (e *Engine) Register(component ComponentID, reporter Reporter, receiver Receiver, period time.Duration) error {
	if !component.valid() {
		return ErrUnknownComponent
	}
	if period <= 0 {
		period = DefaultPublishPeriod
	}
	return e.dispatchSync(func() error {
		e.reg.reporters[component] = reporter
		e.reg.receivers[component] = receiver
		e.reg.periods[component] = period
		if e.tickerStop[component] != nil {
			close(e.tickerStop[component])
			e.tickerStop[component] = nil
		}
		if reporter != nil {
			e.armPeriodic(component, period)
		}
		return nil
	})
}

// armPeriodic starts the periodic snapshot driver for component. Must
// run on the event loop.
func (e *Engine) armPeriodic(component ComponentID, period time.Duration) {
	stop := make(chan struct{})
	e.tickerStop[component] = stop
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.dispatch(func() { e.tick(component) })
			case <-stop:
				return
			case <-e.closed:
				return
			}
		}
	}()
}

// tick runs one periodic-driver iteration. Must run on the event loop.
func (e *Engine) tick(component ComponentID) {
	reporter := e.reg.reporters[component]
	if reporter == nil {
		return
	}
	current := e.view.current(e.self, component)
	var currentVersion uint64
	if current != nil {
		currentVersion = current.Version
	}
	update, ok := reporter.Snapshot(currentVersion)
	if !ok || update == nil {
		return
	}
	e.updateLocked(update)
}

// Update is the single write path into the cluster view. Safe to call
// from any goroutine; it dispatches onto the event loop.
func (e *Engine) Update(m *Message) {
	e.dispatch(func() { e.updateLocked(m) })
}

// updateLocked accepts m into the view, fans it out, and invokes the
// registered receiver if it was newly accepted. Must run on the event
// loop.
func (e *Engine) updateLocked(m *Message) {
	result := e.view.accept(m)
	if result == Stale {
		return
	}
	e.fanOut(m)
	if result == Accepted && m.Origin != e.self {
		if receiver := e.reg.receivers[m.Component]; receiver != nil {
			receiver.Update(m)
		}
	}
}

// fanOut offers m to every connected reactor. Each reactor's send
// independently decides whether its peer needs it; fan-out order is
// unspecified.
func (e *Engine) fanOut(m *Message) {
	if e.leader != nil {
		e.leader.send(m)
	}
	for _, r := range e.followers {
		r.send(m)
	}
}

// Accept is the service adapter's entry point: it has already extracted
// and validated the peer's NodeID from initial metadata and calls this to
// register a server reactor bound to stream. It registers the reactor,
// replays a bring-up snapshot, and then blocks until the stream reaches a
// terminal state, returning the error (if any) that caused it - the
// service adapter returns this directly from its StartSync handler.
func (e *Engine) Accept(peer NodeID, stream pb.Syncer_StartSyncServer, logger *zap.Logger) error {
	var r *reactor
	if err := e.dispatchSync(func() error {
		r = newReactor(e, peer, stream, true, logger)
		e.followers[peer] = r
		e.bus.Emit(events.Event{Kind: events.PeerConnected, Peer: [16]byte(peer)})
		e.replaySnapshotTo(r)
		return nil
	}); err != nil {
		return err
	}
	r.armRead()
	<-r.Done()
	return r.Err()
}

// ConnectToLeader dials the leader over cc, performs the client-side
// metadata handshake, and registers the resulting client reactor. At most
// one leader connection may be live at a time.
func (e *Engine) ConnectToLeader(ctx context.Context, cc *grpc.ClientConn) error {
	if err := e.dispatchSync(func() error {
		if e.leader != nil {
			return ErrAlreadyConnected
		}
		return nil
	}); err != nil {
		return err
	}

	outgoing := metadata.Pairs(pb.NodeIDMetadataKey, e.self.Hex())
	callCtx := metadata.NewOutgoingContext(ctx, outgoing)
	stream, err := pb.NewSyncerClient(cc).StartSync(callCtx)
	if err != nil {
		return fmt.Errorf("syncer: dialing leader: %w", err)
	}
	header, err := stream.Header()
	if err != nil {
		return fmt.Errorf("syncer: reading leader initial metadata: %w", err)
	}
	leaderID, err := leaderNodeIDFromMetadata(header)
	if err != nil {
		return err
	}

	return e.dispatchSync(func() error {
		if e.leader != nil {
			return ErrAlreadyConnected
		}
		r := newReactor(e, leaderID, stream, false, e.logger)
		e.leader = r
		e.bus.Emit(events.Event{Kind: events.PeerConnected, Peer: [16]byte(leaderID)})
		e.replaySnapshotTo(r)
		r.armRead()
		return nil
	})
}

func leaderNodeIDFromMetadata(md metadata.MD) (NodeID, error) {
	values := md.Get(pb.NodeIDMetadataKey)
	if len(values) == 0 {
		return NodeID{}, fmt.Errorf("syncer: leader did not send %s initial metadata", pb.NodeIDMetadataKey)
	}
	return NodeIDFromHex(values[0])
}

// replaySnapshotTo replays the current cluster view into a newly
// connected peer's send path once, immediately after the metadata
// exchange. Must run on the event loop.
func (e *Engine) replaySnapshotTo(r *reactor) {
	for _, m := range e.view.snapshot(r.peer) {
		r.send(m)
	}
}

// Disconnect drops the reactor for peer, if any. Its event-loop half,
// disconnectLocked, is also what a reactor calls when it reaches its
// terminal state.
func (e *Engine) Disconnect(peer NodeID) {
	e.dispatch(func() { e.disconnectLocked(peer, nil) })
}

func (e *Engine) disconnectLocked(peer NodeID, cause error) {
	if _, ok := e.followers[peer]; ok {
		delete(e.followers, peer)
		e.bus.Emit(events.Event{Kind: events.PeerDisconnected, Peer: [16]byte(peer), Err: cause})
		return
	}
	if e.leader != nil && e.leader.peer == peer {
		e.leader = nil
		e.bus.Emit(events.Event{Kind: events.PeerDisconnected, Peer: [16]byte(peer), Err: cause})
	}
}
