package main

import (
	"fmt"
	"log/slog"

	"ringkv/pkg/cluster"
	"ringkv/pkg/config"
)

// initTopology возвращает список нод: из ZooKeeper, если он настроен, иначе из конфига.
// Список читается один раз, дальше топология не меняется.
func initTopology(cfg *config.Config) ([]cluster.Node, error) {
	if cfg.ZooKeeper.Enabled() {
		zk, err := cluster.NewZKTopology(cfg.ZooKeeper.Servers, cfg.ZooKeeper.Root, cfg.ZooKeeper.SessionTimeout)
		if err != nil {
			return nil, err
		}
		defer zk.Close()

		nodes, err := zk.Nodes()
		if err != nil {
			return nil, fmt.Errorf("read topology from zookeeper: %w", err)
		}
		if err := cluster.ValidateNodes(nodes); err != nil {
			return nil, fmt.Errorf("invalid topology in zookeeper: %w", err)
		}
		slog.Info("topology loaded from zookeeper", "root", cfg.ZooKeeper.Root, "nodes", cluster.NodeIDs(nodes))
		return nodes, nil
	}

	nodes := make([]cluster.Node, 0, len(cfg.Cluster.Nodes))
	for _, n := range cfg.Cluster.Nodes {
		nodes = append(nodes, cluster.NewNode(n.ID, n.Address))
	}
	return nodes, nil
}

// initRing строит кольцо до того, как его увидят обработчики запросов.
func initRing(cfg *config.Config, nodes []cluster.Node) (*cluster.HashRing, error) {
	if len(nodes) == 0 {
		return nil, cluster.ErrEmptyRing
	}
	hash, err := cluster.HashByName(cfg.Cluster.Hash)
	if err != nil {
		return nil, err
	}

	ring := cluster.NewHashRing(cfg.Cluster.VirtualNodes, hash)
	for _, n := range nodes {
		ring.AddNode(n)
	}
	slog.Info("ring built",
		"nodes", cluster.NodeIDs(ring.Nodes()),
		"positions", ring.Len(),
		"virtual_nodes_per_node", cfg.Cluster.VirtualNodes,
		"hash", cfg.Cluster.Hash,
	)
	return ring, nil
}
