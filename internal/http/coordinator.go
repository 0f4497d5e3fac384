package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ringkv/pkg/cluster"
	"ringkv/pkg/metrics"
)

type iCoordinator interface {
	Put(ctx context.Context, key, value string) (cluster.PutResult, error)
	Get(ctx context.Context, key string) (cluster.GetResult, error)
	Replicas(key string) ([]cluster.Node, error)
	ReplicationFactor() int
	Ring() *cluster.HashRing
}

type coordinatorHandlers struct {
	coord   iCoordinator
	metrics metrics.Collector
}

// NewCoordinatorServer creates the client-facing server that fans requests out to replicas.
func NewCoordinatorServer(coord iCoordinator, reg *metrics.Registry, port int) *Server {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	h := &coordinatorHandlers{coord: coord, metrics: reg}

	r := newRouter()
	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", reg.Handler())
	r.Get("/ring", h.handleRing)
	r.Get("/replicas/{key}", h.handleReplicas)
	r.Post("/put", h.handlePut)
	r.Get("/get/{key}", h.handleGet)

	return newServer("coordinator", port, r)
}

func (h *coordinatorHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewOKResponse())
}

func (h *coordinatorHandlers) handleRing(w http.ResponseWriter, r *http.Request) {
	ring := h.coord.Ring()
	writeJSON(w, http.StatusOK, RingResponse{
		Nodes:             ring.Nodes(),
		VirtualNodes:      ring.VirtualNodes(),
		Positions:         ring.Len(),
		ReplicationFactor: h.coord.ReplicationFactor(),
	})
}

func (h *coordinatorHandlers) handleReplicas(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil || key == "" {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse("Missing key"))
		return
	}

	replicas, err := h.coord.Replicas(key)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, NewErrorResponse(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, ReplicasResponse{Key: key, Replicas: replicas})
}

func (h *coordinatorHandlers) handlePut(w http.ResponseWriter, r *http.Request) {
	var kv cluster.KeyValue
	if err := decodeJSON(w, r, &kv); err != nil {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse(err.Error()))
		return
	}
	// пустой ключ допустим: хешируется и хранится как любой другой

	res, err := h.coord.Put(r.Context(), kv.Key, kv.Value)
	h.metrics.IncCounter(metrics.CoordinatorRequests, map[string]string{"op": "put"}, 1)
	h.metrics.IncCounter(metrics.ReplicaWriteFailures, nil, float64(len(res.Failed)))

	switch {
	case errors.Is(err, cluster.ErrWriteAcksNotMet):
		writeText(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, NewErrorResponse(err.Error()))
		return
	}

	// перечисляем, куда писали, а не где запись удалась
	writeText(w, http.StatusOK, "Stored in "+strings.Join(cluster.NodeIDs(res.Targets), ","))
}

func (h *coordinatorHandlers) handleGet(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil || key == "" {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse("Missing key"))
		return
	}

	res, err := h.coord.Get(r.Context(), key)
	h.metrics.IncCounter(metrics.CoordinatorRequests, map[string]string{"op": "get"}, 1)
	h.metrics.ObserveHistogram(metrics.GetReplicasTried, nil, float64(res.Tried))

	switch {
	case errors.Is(err, cluster.ErrNotFound):
		writeJSON(w, http.StatusNotFound, NewErrorResponse("Key not found"))
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, NewErrorResponse(err.Error()))
		return
	}

	writeText(w, http.StatusOK, res.Value)
}
