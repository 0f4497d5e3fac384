package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

// Config - корневая структура конфигурации приложения
// yaml и validate теги для парсинга и валидации
type Config struct {
	Logger      LoggerConfig      `yaml:"logger"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Node        NodeConfig        `yaml:"node"`
	Cluster     ClusterConfig     `yaml:"cluster"`
	ZooKeeper   ZooKeeperConfig   `yaml:"zookeeper"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
	JSON  bool   `yaml:"json"`
}

type CoordinatorConfig struct {
	Port           int           `yaml:"port" validate:"required,min=1,max=65535"`
	ReplicaTimeout time.Duration `yaml:"replica_timeout" validate:"gt=0"`
	MinWriteAcks   int           `yaml:"min_write_acks" validate:"min=0"`
}

// NodeConfig описывает процесс ноды хранения.
type NodeConfig struct {
	ID      string `yaml:"id"`
	Port    int    `yaml:"port" validate:"required,min=1,max=65535"`
	Address string `yaml:"address" validate:"omitempty,url"` // публикуемый адрес, для zookeeper
}

type ClusterConfig struct {
	ReplicationFactor int         `yaml:"replication_factor" validate:"required,min=1"`
	VirtualNodes      int         `yaml:"virtual_nodes_per_node" validate:"required,min=1"`
	Hash              string      `yaml:"hash" validate:"omitempty,oneof=sha256 xxhash"`
	Nodes             []NodeEntry `yaml:"nodes" validate:"unique=ID,dive"`
}

type NodeEntry struct {
	ID      string `yaml:"id" validate:"required"`
	Address string `yaml:"address" validate:"required,url"`
}

type ZooKeeperConfig struct {
	Servers        []string      `yaml:"servers" validate:"dive,required"`
	Root           string        `yaml:"root"`
	SessionTimeout time.Duration `yaml:"session_timeout"`
}

func (z ZooKeeperConfig) Enabled() bool {
	return len(z.Servers) > 0
}

// Default returns the reference three-node deployment.
func Default() Config {
	return Config{
		Logger: LoggerConfig{
			Level: "INFO",
			JSON:  false,
		},
		Coordinator: CoordinatorConfig{
			Port:           8080,
			ReplicaTimeout: 2 * time.Second,
		},
		Node: NodeConfig{
			ID:   "A",
			Port: 8080,
		},
		Cluster: ClusterConfig{
			ReplicationFactor: 2,
			VirtualNodes:      100,
			Hash:              "sha256",
			Nodes: []NodeEntry{
				{ID: "A", Address: "http://node-a:8080"},
				{ID: "B", Address: "http://node-b:8080"},
				{ID: "C", Address: "http://node-c:8080"},
			},
		},
		ZooKeeper: ZooKeeperConfig{
			Root:           "/ringkv",
			SessionTimeout: 5 * time.Second,
		},
	}
}

// Load читает YAML-конфиг. Если файла нет, возвращается Default().
// Незаполненные поля берутся из Default(), затем применяются переменные окружения.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		slog.Info("config file not found, using default config", "path", path)
		cfg = Default()
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.applyDefaults()
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SlogLevel переводит уровень из конфига в slog.Level.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.Logger.Level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Logger.Level == "" {
		c.Logger.Level = def.Logger.Level
	}
	if c.Coordinator.Port == 0 {
		c.Coordinator.Port = def.Coordinator.Port
	}
	if c.Coordinator.ReplicaTimeout == 0 {
		c.Coordinator.ReplicaTimeout = def.Coordinator.ReplicaTimeout
	}
	if c.Node.Port == 0 {
		c.Node.Port = def.Node.Port
	}
	if c.Cluster.ReplicationFactor == 0 {
		c.Cluster.ReplicationFactor = def.Cluster.ReplicationFactor
	}
	if c.Cluster.VirtualNodes == 0 {
		c.Cluster.VirtualNodes = def.Cluster.VirtualNodes
	}
	if c.Cluster.Hash == "" {
		c.Cluster.Hash = def.Cluster.Hash
	}
	if c.ZooKeeper.Root == "" {
		c.ZooKeeper.Root = def.ZooKeeper.Root
	}
	if c.ZooKeeper.SessionTimeout == 0 {
		c.ZooKeeper.SessionTimeout = def.ZooKeeper.SessionTimeout
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("RINGKV_NODE_ID"); v != "" {
		c.Node.ID = v
	}
	if v := os.Getenv("RINGKV_NODE_ADDRESS"); v != "" {
		c.Node.Address = v
	}
	if v := os.Getenv("RINGKV_LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	for env, dst := range map[string]*int{
		"RINGKV_NODE_PORT":        &c.Node.Port,
		"RINGKV_COORDINATOR_PORT": &c.Coordinator.Port,
	} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
		*dst = port
	}
	return nil
}
