package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	apihttp "ringkv/internal/http"
	"ringkv/pkg/cluster"
	"ringkv/pkg/config"
	"ringkv/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger := config.InitLogger(&cfg)

	nodes, err := initTopology(&cfg)
	if err != nil {
		slog.Error("Failed to load topology", "error", err)
		os.Exit(1)
	}

	ring, err := initRing(&cfg, nodes)
	if err != nil {
		slog.Error("Failed to build ring", "error", err)
		os.Exit(1)
	}

	coord := cluster.NewCoordinator(ring, cluster.HTTPClientFactory(cfg.Coordinator.ReplicaTimeout), cluster.CoordinatorOptions{
		ReplicationFactor: cfg.Cluster.ReplicationFactor,
		ReplicaTimeout:    cfg.Coordinator.ReplicaTimeout,
		MinWriteAcks:      cfg.Coordinator.MinWriteAcks,
		Logger:            logger,
	})

	server := apihttp.NewCoordinatorServer(coord, metrics.NewRegistry(), cfg.Coordinator.Port)
	if err := server.Start(); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}

	slog.Info("coordinator is running",
		"replication_factor", coord.ReplicationFactor(),
		"replica_timeout", cfg.Coordinator.ReplicaTimeout,
		"min_write_acks", cfg.Coordinator.MinWriteAcks,
	)

	<-ctx.Done()

	if err := server.Stop(); err != nil {
		slog.Error("Error stopping server", "error", err)
	}
	slog.Info("coordinator stopped")
}
