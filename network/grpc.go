package network

import (
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
)

func init() {
	grpc_prometheus.EnableHandlingTimeHistogram()
}

// GRPCServerOptions returns the interceptor stack shared by every server
// this module listens with, instrumenting every StartSync call with
// Prometheus handling-time histograms and counters.
func GRPCServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.StreamInterceptor(grpc_prometheus.StreamServerInterceptor),
		grpc.UnaryInterceptor(grpc_prometheus.UnaryServerInterceptor),
	}
}

// GRPCClientOptions returns the dial options used to reach a leader,
// matching GRPCServerOptions' instrumentation on the client side.
func GRPCClientOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithInsecure(),
		grpc.WithStreamInterceptor(grpc_prometheus.StreamClientInterceptor),
		grpc.WithUnaryInterceptor(grpc_prometheus.UnaryClientInterceptor),
		grpc.WithDefaultCallOptions(
			grpc.WaitForReady(true),
		),
	}
}
