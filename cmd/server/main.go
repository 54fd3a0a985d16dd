package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ryandielhenn/zephyrcast/internal/config"
	"github.com/ryandielhenn/zephyrcast/internal/telemetry"
	"github.com/ryandielhenn/zephyrcast/pkg/discovery"
	"github.com/ryandielhenn/zephyrcast/pkg/gossip"
	"github.com/ryandielhenn/zephyrcast/pkg/node"
	"github.com/ryandielhenn/zephyrcast/pkg/peer"
	"github.com/ryandielhenn/zephyrcast/pkg/topology"
	"github.com/ryandielhenn/zephyrcast/pkg/view"
)

var (
	version = "dev"
	gitSHA  = "unknown"
)

func main() {
	// 1. Load configuration and build the logger
	cfg, err := config.Load(os.Getenv("ZEPHYR_CONFIG"), os.Getenv)
	if err != nil {
		panic(err)
	}
	logger := newLogger(cfg.Debug)
	defer logger.Sync()
	telemetry.SetBuildInfo(version, gitSHA)

	// 2. Initialize the local topology
	self := cfg.Profile()
	logger = logger.With(zap.Stringer("self", self.ID))
	topo, err := topology.New(self,
		topology.WithCapacity(cfg.Capacity),
		topology.WithPolicy(cfg.Policy()),
		topology.WithLogger(logger),
		topology.WithMetrics(telemetry.TopologyMetrics{}),
	)
	if err != nil {
		logger.Fatal("create topology", zap.Error(err))
	}
	n := node.NewNode(topo, cfg.SelfAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Create etcd client and bootstrap peers
	logger.Info("creating etcd client", zap.Strings("endpoints", cfg.EtcdEndpoints))
	cli, err := discovery.NewClient(cfg.EtcdEndpoints)
	if err != nil {
		logger.Fatal("create etcd client", zap.Error(err))
	}
	defer cli.Close()

	peers, err := discovery.Peers(ctx, cli)
	if err != nil {
		logger.Fatal("bootstrap peers", zap.Error(err))
	}
	logger.Info("bootstrapped", zap.Int("peers", len(peers)))
	topo.AcceptGossips(self.ID, peers)

	// 4. Register this node
	leaseID, cancel, err := discovery.RegisterNode(ctx, cli, self.Info(), cfg.RegistrationTTL)
	if err != nil {
		logger.Fatal("register node", zap.Error(err))
	}
	defer func() {
		cancel()
		_, _ = cli.Revoke(context.Background(), leaseID)
	}()

	// 5. Watch for peers joining
	discovery.WatchPeers(ctx, cli, logger, func(peers []peer.Info) {
		logger.Debug("peers changed", zap.Int("peers", len(peers)))
		topo.AcceptGossips(self.ID, gossip.Gossips(peers))
	})

	// 6. Run gossip rounds
	go rounds(ctx, n, cfg.RoundInterval, logger)

	// 7. Wire up HTTP node endpoints
	mux := http.NewServeMux()
	mux.Handle("/healthz", telemetry.Instrument("healthz", http.HandlerFunc(n.Healthz)))
	mux.Handle("/info", telemetry.Instrument("info", http.HandlerFunc(n.Info)))
	mux.Handle("/nodes/", telemetry.Instrument("nodes", http.HandlerFunc(n.Nodes)))
	mux.Handle("/view", telemetry.Instrument("view", http.HandlerFunc(n.View)))
	mux.Handle("/gossip", telemetry.Instrument("gossip", http.HandlerFunc(n.Gossip)))
	mux.Handle("/metrics", telemetry.MetricsHandler())

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("zephyrcast node listening", zap.String("addr", cfg.HTTPAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serve", zap.Error(err))
	}
}

// rounds resets the topology every interval and exchanges gossips with one
// peer of the resulting view.
func rounds(ctx context.Context, n *node.Node, interval time.Duration, logger *zap.Logger) {
	client := &http.Client{Timeout: interval / 2}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		topo := n.Topology()
		topo.Reset()

		self := topo.Profile().ID
		candidates := make([]peer.Info, 0)
		for _, info := range topo.View(nil, view.Any()) {
			if info.ID != self && info.Address != "" {
				candidates = append(candidates, info)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		with := candidates[rand.IntN(len(candidates))]
		if err := n.Exchange(ctx, client, with); err != nil {
			logger.Debug("gossip exchange failed", zap.Stringer("peer", with.ID), zap.Error(err))
		}
	}
}

func newLogger(debug bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}
