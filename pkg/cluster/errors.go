package cluster

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyRing                = errors.New("ringkv: ring is empty")
	ErrInvalidReplicationFactor = errors.New("ringkv: replication factor must be >= 1")
	ErrNotFound                 = errors.New("ringkv: not found")
	ErrWriteAcksNotMet          = errors.New("ringkv: not enough replicas acknowledged the write")
)

// ReplicaUnreachableError wraps a transport failure or a non-success answer
// from a single replica. The coordinator logs it and moves on.
type ReplicaUnreachableError struct {
	Node Node
	Op   string
	Err  error
}

func (e *ReplicaUnreachableError) Error() string {
	return fmt.Sprintf("replica %s unreachable on %s: %v", e.Node.ID, e.Op, e.Err)
}

func (e *ReplicaUnreachableError) Unwrap() error {
	return e.Err
}
