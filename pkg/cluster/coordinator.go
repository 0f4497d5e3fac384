package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultReplicationFactor = 2
	DefaultReplicaTimeout    = 2 * time.Second
)

// Remote is a client for a single storage node.
type Remote interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
}

// фабрика удалённых клиентов
type ClientFactory func(node Node) (Remote, error)

type CoordinatorOptions struct {
	ReplicationFactor int
	ReplicaTimeout    time.Duration
	// MinWriteAcks = 0 keeps the best-effort write: success is reported
	// whatever the replicas answered.
	MinWriteAcks int
	Logger       *slog.Logger
}

// Coordinator переводит логический put/get в обращения к набору реплик.
type Coordinator struct {
	ring      *HashRing
	newClient ClientFactory
	opts      CoordinatorOptions
	log       *slog.Logger
}

// результат обращения к одной реплике
type attempt struct {
	node  Node
	value string
	found bool
	err   error
}

type PutResult struct {
	Targets []Node
	Acked   []string
	Failed  []error
}

type GetResult struct {
	Value string
	From  Node
	Tried int
}

func NewCoordinator(ring *HashRing, factory ClientFactory, opts CoordinatorOptions) *Coordinator {
	if opts.ReplicationFactor <= 0 {
		opts.ReplicationFactor = DefaultReplicationFactor
	}
	if opts.ReplicaTimeout <= 0 {
		opts.ReplicaTimeout = DefaultReplicaTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		ring:      ring,
		newClient: factory,
		opts:      opts,
		log:       logger.With("component", "coordinator"),
	}
}

func (c *Coordinator) ReplicationFactor() int {
	return c.opts.ReplicationFactor
}

func (c *Coordinator) Ring() *HashRing {
	return c.ring
}

// Replicas возвращает набор реплик ключа в порядке обхода кольца.
func (c *Coordinator) Replicas(key string) ([]Node, error) {
	return c.ring.GetReplicas(key, c.opts.ReplicationFactor)
}

// Put пишет ключ на все реплики по очереди. Ошибка отдельной реплики
// логируется и не прерывает запись на остальные.
func (c *Coordinator) Put(ctx context.Context, key, value string) (PutResult, error) {
	replicas, err := c.Replicas(key)
	if err != nil {
		return PutResult{}, fmt.Errorf("put %q: %w", key, err)
	}

	opID := uuid.NewString()
	res := PutResult{Targets: replicas}
	for _, node := range replicas {
		a := c.putOne(ctx, node, key, value)
		if a.err != nil {
			c.log.Warn("replica write failed", "op_id", opID, "key", key, "node", node.ID, "error", a.err)
			res.Failed = append(res.Failed, a.err)
			continue
		}
		res.Acked = append(res.Acked, node.ID)
	}

	c.log.Debug("put done",
		"op_id", opID, "key", key,
		"targets", NodeIDs(replicas), "acked", res.Acked,
	)

	if c.opts.MinWriteAcks > 0 && len(res.Acked) < c.opts.MinWriteAcks {
		return res, fmt.Errorf("put %q: %d of %d required: %w",
			key, len(res.Acked), c.opts.MinWriteAcks, ErrWriteAcksNotMet)
	}
	return res, nil
}

// Get опрашивает реплики строго по порядку и возвращает первый успешный ответ.
// Если ни одна реплика не ответила значением, возвращается ErrNotFound.
func (c *Coordinator) Get(ctx context.Context, key string) (GetResult, error) {
	replicas, err := c.Replicas(key)
	if err != nil {
		return GetResult{}, fmt.Errorf("get %q: %w", key, err)
	}

	opID := uuid.NewString()
	for i, node := range replicas {
		a := c.getOne(ctx, node, key)
		switch {
		case a.err != nil:
			c.log.Warn("replica read failed", "op_id", opID, "key", key, "node", node.ID, "error", a.err)
		case !a.found:
			c.log.Debug("replica has no value", "op_id", opID, "key", key, "node", node.ID)
		default:
			c.log.Debug("get served", "op_id", opID, "key", key, "node", node.ID)
			return GetResult{Value: a.value, From: node, Tried: i + 1}, nil
		}
	}
	return GetResult{Tried: len(replicas)}, ErrNotFound
}

func (c *Coordinator) putOne(ctx context.Context, node Node, key, value string) attempt {
	cl, err := c.newClient(node)
	if err != nil {
		return attempt{node: node, err: unreachable(node, "put", fmt.Errorf("create client: %w", err))}
	}

	ctx, cancel := c.replicaContext(ctx)
	defer cancel()

	if err := cl.Put(ctx, key, value); err != nil {
		return attempt{node: node, err: unreachable(node, "put", err)}
	}
	return attempt{node: node}
}

func (c *Coordinator) getOne(ctx context.Context, node Node, key string) attempt {
	cl, err := c.newClient(node)
	if err != nil {
		return attempt{node: node, err: unreachable(node, "get", fmt.Errorf("create client: %w", err))}
	}

	ctx, cancel := c.replicaContext(ctx)
	defer cancel()

	value, found, err := cl.Get(ctx, key)
	if err != nil {
		return attempt{node: node, err: unreachable(node, "get", err)}
	}
	return attempt{node: node, value: value, found: found}
}

// отмена вызывающей стороны не прерывает обращения к репликам
func (c *Coordinator) replicaContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), c.opts.ReplicaTimeout)
}

func unreachable(node Node, op string, err error) error {
	var ru *ReplicaUnreachableError
	if errors.As(err, &ru) {
		return err
	}
	return &ReplicaUnreachableError{Node: node, Op: op, Err: err}
}
