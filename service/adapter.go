// Package service adapts a syncer.Engine onto the generated gRPC
// service interface: it is the thin glue between the transport's
// stream-accept callback and the engine.
package service

import (
	"github.com/vx-labs/syncer/pb"
	"github.com/vx-labs/syncer/syncer"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// Adapter implements pb.SyncerServer on top of an Engine.
type Adapter struct {
	engine *syncer.Engine
	logger *zap.Logger
}

// New constructs an Adapter bound to engine.
func New(engine *syncer.Engine, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{engine: engine, logger: logger}
}

// StartSync implements pb.SyncerServer. It extracts and validates the
// peer's node_id from initial metadata, announces this node's own
// node_id back as its initial metadata, and hands the stream to the
// engine for the lifetime of the connection.
func (a *Adapter) StartSync(stream pb.Syncer_StartSyncServer) error {
	md, ok := metadata.FromIncomingContext(stream.Context())
	if !ok {
		return pb.ErrMissingNodeID()
	}
	values := md.Get(pb.NodeIDMetadataKey)
	if len(values) == 0 || values[0] == "" {
		return pb.ErrMissingNodeID()
	}
	peer, err := syncer.NodeIDFromHex(values[0])
	if err != nil {
		return pb.ErrMissingNodeID()
	}

	header := metadata.Pairs(pb.NodeIDMetadataKey, a.engine.Self().Hex())
	if err := stream.SendHeader(header); err != nil {
		return err
	}

	return a.engine.Accept(peer, stream, a.logger)
}

// Register wires a into s under the generated service descriptor.
func Register(s *grpc.Server, a *Adapter) {
	pb.RegisterSyncerServer(s, a)
}
