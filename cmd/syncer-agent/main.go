package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	_ "net/http/pprof"

	"github.com/vx-labs/syncer/network"
	"github.com/vx-labs/syncer/service"
	"github.com/vx-labs/syncer/syncer"
	"github.com/vx-labs/syncer/syncer/events"
)

// demoComponent is the single component this binary registers to prove
// the core end to end: it publishes a monotonically increasing counter
// and logs every update it receives from other nodes.
const demoComponent syncer.ComponentID = 0

func newLogger(nodeID syncer.NodeID) *zap.Logger {
	fields := []zap.Field{zap.String("node_id", nodeID.Hex())}
	opts := []zap.Option{zap.Fields(fields...)}
	var logger *zap.Logger
	var err error
	if os.Getenv("ENABLE_PRETTY_LOG") == "true" {
		logger, err = zap.NewDevelopment(opts...)
	} else {
		logger, err = zap.NewProduction(opts...)
	}
	if err != nil {
		panic(err)
	}
	return logger
}

func serveHTTP(logger *zap.Logger, addr string, engine *syncer.Engine) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "node %s ok\n", engine.Self().Hex())
	})
	logger.Info("serving http", zap.String("address", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("http server stopped", zap.Error(err))
	}
}

func runLeader(logger *zap.Logger, engine *syncer.Engine, conf network.Configuration) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", conf.BindHostPort())
	if err != nil {
		return nil, fmt.Errorf("syncer-agent: binding %s: %w", conf.BindHostPort(), err)
	}
	s := grpc.NewServer(network.GRPCServerOptions()...)
	service.Register(s, service.New(engine, logger))
	logger.Info("accepting followers", zap.String("address", conf.BindHostPort()))
	go func() {
		if err := s.Serve(lis); err != nil {
			logger.Error("grpc server stopped", zap.Error(err))
		}
	}()
	return s, nil
}

func runFollower(ctx context.Context, logger *zap.Logger, engine *syncer.Engine, conf network.Configuration) (*grpc.ClientConn, error) {
	cc, err := grpc.Dial(conf.LeaderAddress(), network.GRPCClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("syncer-agent: dialing leader %s: %w", conf.LeaderAddress(), err)
	}
	if err := engine.ConnectToLeader(ctx, cc); err != nil {
		cc.Close()
		return nil, err
	}
	logger.Info("connected to leader", zap.String("address", conf.LeaderAddress()))
	return cc, nil
}

func main() {
	v := viper.New()
	root := &cobra.Command{
		Use: "syncer-agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			var nodeID syncer.NodeID
			if hexID, _ := cmd.Flags().GetString("node-id"); hexID != "" {
				id, err := syncer.NodeIDFromHex(hexID)
				if err != nil {
					return fmt.Errorf("syncer-agent: invalid --node-id: %w", err)
				}
				nodeID = id
			} else {
				nodeID = syncer.NewNodeID()
			}

			logger := newLogger(nodeID)
			defer logger.Sync()

			if v.GetBool("pprof") {
				go http.ListenAndServe("127.0.0.1:8081", nil)
			}

			engine := syncer.NewEngine(nodeID, logger)
			engine.Run()
			defer engine.Close()

			conf := network.ConfigurationFromFlags(v)

			var counter uint64
			if err := engine.Register(demoComponent,
				syncer.ReporterFunc(func(current uint64) (*syncer.Message, bool) {
					atomic.AddUint64(&counter, 1)
					return syncer.NewMessage(nodeID, demoComponent, current+1, []byte(fmt.Sprintf("tick-%d", counter))), true
				}),
				syncer.ReceiverFunc(func(m *syncer.Message) {
					logger.Info("received update",
						zap.String("origin", m.Origin.Hex()),
						zap.Uint32("component", uint32(m.Component)),
						zap.Uint64("version", m.Version),
					)
				}),
				conf.PublishPeriod(),
			); err != nil {
				return err
			}

			cancel := engine.Events().Subscribe(func(ev events.Event) {
				logger.Info("peer event", zap.Int("kind", int(ev.Kind)))
			})
			defer cancel()

			httpAddr, _ := cmd.Flags().GetString("http-address")
			go serveHTTP(logger, httpAddr, engine)

			var grpcServer *grpc.Server
			var leaderConn *grpc.ClientConn
			var err error
			if conf.LeaderAddress() == "" {
				grpcServer, err = runLeader(logger, engine, conf)
			} else {
				leaderConn, err = runFollower(cmd.Context(), logger, engine, conf)
			}
			if err != nil {
				return err
			}

			sigc := make(chan os.Signal, 1)
			signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
			<-sigc
			logger.Info("received termination signal")

			if grpcServer != nil {
				grpcServer.GracefulStop()
			}
			if leaderConn != nil {
				leaderConn.Close()
			}
			return nil
		},
	}

	root.Flags().String("node-id", "", "Fixed node id in hex, 16 bytes. Random if unset.")
	root.Flags().String("http-address", "127.0.0.1:8080", "Serve /metrics and /health on this address")
	root.Flags().Bool("pprof", false, "Enable pprof endpoint on 127.0.0.1:8081")
	v.BindPFlag("pprof", root.Flags().Lookup("pprof"))
	network.RegisterFlags(root, v)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
