package http

import (
	"log/slog"
	"net/http"

	"ringkv/pkg/cluster"
	"ringkv/pkg/metrics"
)

const healthyBody = "Healthy"

type iStoreAPI interface {
	Put(key, value string)
	Get(key string) (string, bool)
	Len() int
	Keys() []string
}

type nodeHandlers struct {
	id       string
	store    iStoreAPI
	metrics  metrics.Collector
	exporter http.Handler
}

// NewNodeServer creates the storage node server: a plain key->value map behind HTTP.
func NewNodeServer(id string, store iStoreAPI, reg *metrics.Registry, port int) *Server {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	h := &nodeHandlers{id: id, store: store, metrics: reg, exporter: reg.Handler()}

	r := newRouter()
	r.Get("/health", h.handleHealth)
	r.Get("/metrics", h.handleMetrics)
	r.Get("/keys", h.handleKeys)
	r.Post("/put", h.handlePut)
	r.Get("/get/{key}", h.handleGet)

	return newServer("node "+id, port, r)
}

func (h *nodeHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, healthyBody)
}

func (h *nodeHandlers) handleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.SetGauge(metrics.NodeKeys, map[string]string{"node": h.id}, float64(h.store.Len()))
	h.exporter.ServeHTTP(w, r)
}

// handleKeys отдаёт отсортированный список ключей ноды, для отладки распределения.
func (h *nodeHandlers) handleKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, KeysResponse{Node: h.id, Keys: h.store.Keys()})
}

func (h *nodeHandlers) handlePut(w http.ResponseWriter, r *http.Request) {
	var kv cluster.KeyValue
	if err := decodeJSON(w, r, &kv); err != nil {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse(err.Error()))
		return
	}

	h.store.Put(kv.Key, kv.Value)
	h.metrics.IncCounter(metrics.NodeRequests, map[string]string{"node": h.id, "op": "put"}, 1)
	slog.Debug("stored key", "node", h.id, "key", kv.Key)

	w.WriteHeader(http.StatusOK)
}

func (h *nodeHandlers) handleGet(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil || key == "" {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse("Missing key"))
		return
	}

	h.metrics.IncCounter(metrics.NodeRequests, map[string]string{"node": h.id, "op": "get"}, 1)
	value, ok := h.store.Get(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, NewErrorResponse("Key not found"))
		return
	}
	writeText(w, http.StatusOK, value)
}
