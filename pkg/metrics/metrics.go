package metrics

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector captures counters, gauges and histograms.
type Collector interface {
	IncCounter(name string, labels map[string]string, delta float64)
	SetGauge(name string, labels map[string]string, value float64)
	ObserveHistogram(name string, labels map[string]string, value float64)
}

const (
	CoordinatorRequests  = "ringkv_coordinator_requests_total"
	ReplicaWriteFailures = "ringkv_replica_write_failures_total"
	GetReplicasTried     = "ringkv_get_replicas_tried"
	NodeRequests         = "ringkv_node_requests_total"
	NodeKeys             = "ringkv_node_keys"
)

var help = map[string]string{
	CoordinatorRequests:  "Client requests served by the coordinator.",
	ReplicaWriteFailures: "Replica writes that failed during put fan-out.",
	GetReplicasTried:     "Replicas asked before a get was answered.",
	NodeRequests:         "Requests served by a storage node.",
	NodeKeys:             "Keys held by a storage node.",
}

// число опрошенных реплик невелико
var histogramBuckets = map[string][]float64{
	GetReplicasTried: prometheus.LinearBuckets(1, 1, 5),
}

// Registry реализует Collector поверх prometheus.Registry.
// Векторы создаются при первом обращении; набор лейблов метрики фиксируется этим обращением.
type Registry struct {
	reg *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{
		reg:        reg,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func (r *Registry) IncCounter(name string, labels map[string]string, delta float64) {
	vec := lazyVec(r, r.counters, name, labels, func(opts prometheus.Opts, names []string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts(opts), names)
	})
	if vec == nil {
		return
	}
	c, err := vec.GetMetricWith(labels)
	if err != nil {
		slog.Warn("metrics: bad labels", "metric", name, "error", err)
		return
	}
	c.Add(delta)
}

func (r *Registry) SetGauge(name string, labels map[string]string, value float64) {
	vec := lazyVec(r, r.gauges, name, labels, func(opts prometheus.Opts, names []string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts(opts), names)
	})
	if vec == nil {
		return
	}
	g, err := vec.GetMetricWith(labels)
	if err != nil {
		slog.Warn("metrics: bad labels", "metric", name, "error", err)
		return
	}
	g.Set(value)
}

func (r *Registry) ObserveHistogram(name string, labels map[string]string, value float64) {
	vec := lazyVec(r, r.histograms, name, labels, func(opts prometheus.Opts, names []string) *prometheus.HistogramVec {
		buckets, ok := histogramBuckets[name]
		if !ok {
			buckets = prometheus.DefBuckets
		}
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    opts.Name,
			Help:    opts.Help,
			Buckets: buckets,
		}, names)
	})
	if vec == nil {
		return
	}
	h, err := vec.GetMetricWith(labels)
	if err != nil {
		slog.Warn("metrics: bad labels", "metric", name, "error", err)
		return
	}
	h.Observe(value)
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the underlying registry, e.g. for prometheus/testutil.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func lazyVec[V prometheus.Collector](
	r *Registry,
	vecs map[string]V,
	name string,
	labels map[string]string,
	create func(opts prometheus.Opts, labelNames []string) V,
) V {
	r.mu.Lock()
	defer r.mu.Unlock()

	if vec, ok := vecs[name]; ok {
		return vec
	}

	vec := create(prometheus.Opts{Name: name, Help: helpFor(name)}, labelNames(labels))
	if err := r.reg.Register(vec); err != nil {
		// имя уже занято метрикой другого типа
		slog.Warn("metrics: register failed", "metric", name, "error", err)
		var zero V
		return zero
	}
	vecs[name] = vec
	return vec
}

func helpFor(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return "ringkv metric " + name
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
