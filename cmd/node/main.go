package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	apihttp "ringkv/internal/http"
	"ringkv/pkg/cluster"
	"ringkv/pkg/config"
	"ringkv/pkg/metrics"
	"ringkv/pkg/storage"
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
	config.InitLogger(&cfg)

	if cfg.Node.ID == "" {
		slog.Error("node id is not set (node.id or RINGKV_NODE_ID)")
		os.Exit(1)
	}

	if cfg.ZooKeeper.Enabled() {
		if err := publishSelf(&cfg); err != nil {
			slog.Error("Failed to publish node in ZooKeeper", "error", err)
			os.Exit(1)
		}
	}

	server := apihttp.NewNodeServer(cfg.Node.ID, storage.New(), metrics.NewRegistry(), cfg.Node.Port)
	if err := server.Start(); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()

	if err := server.Stop(); err != nil {
		slog.Error("Error stopping server", "error", err)
	}
	slog.Info("node stopped", "id", cfg.Node.ID)
}

// publishSelf записывает адрес ноды в ZooKeeper для координатора.
func publishSelf(cfg *config.Config) error {
	if cfg.Node.Address == "" {
		return errors.New("node.address is required to publish in zookeeper")
	}
	zk, err := cluster.NewZKTopology(cfg.ZooKeeper.Servers, cfg.ZooKeeper.Root, cfg.ZooKeeper.SessionTimeout)
	if err != nil {
		return err
	}
	defer zk.Close()

	node := cluster.NewNode(cfg.Node.ID, cfg.Node.Address)
	if err := zk.Publish(node); err != nil {
		return err
	}
	slog.Info("node published", "node", node.String(), "root", cfg.ZooKeeper.Root)
	return nil
}
