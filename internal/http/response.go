package http

import "ringkv/pkg/cluster"

type Status string

const (
	// StatusOK is used for health-check responses.
	StatusOK Status = "OK"

	// StatusError indicates an operation failed.
	StatusError Status = "error"
)

// Response is the JSON envelope for health checks and errors.
type Response struct {
	Status Status `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

func NewOKResponse() Response {
	return Response{Status: StatusOK}
}

func NewErrorResponse(err string) Response {
	return Response{Status: StatusError, Error: err}
}

// ReplicasResponse describes the replica set chosen for a key.
type ReplicasResponse struct {
	Key      string         `json:"key"`
	Replicas []cluster.Node `json:"replicas"`
}

// RingResponse describes the ring the coordinator routes with.
type RingResponse struct {
	Nodes             []cluster.Node `json:"nodes"`
	VirtualNodes      int            `json:"virtual_nodes_per_node"`
	Positions         int            `json:"positions"`
	ReplicationFactor int            `json:"replication_factor"`
}

// KeysResponse lists the keys a storage node holds.
type KeysResponse struct {
	Node string   `json:"node"`
	Keys []string `json:"keys"`
}
