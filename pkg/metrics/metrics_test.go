package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// value возвращает значение серии из собранных метрик: счётчик, гауж или число наблюдений гистограммы.
func value(t *testing.T, r *Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			if len(m.GetLabel()) != len(labels) {
				continue
			}
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue series
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

func TestRegistry_Counters(t *testing.T) {
	r := NewRegistry()
	labels := map[string]string{"op": "put"}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.IncCounter(CoordinatorRequests, labels, 1)
			}
		}()
	}
	wg.Wait()

	if got := value(t, r, CoordinatorRequests, labels); got != 1000 {
		t.Fatalf("counter = %v, want 1000", got)
	}
	if got := value(t, r, CoordinatorRequests, map[string]string{"op": "get"}); got != 0 {
		t.Fatalf("untouched series = %v", got)
	}
}

func TestRegistry_GaugeAndHistogram(t *testing.T) {
	r := NewRegistry()
	labels := map[string]string{"node": "A"}

	r.SetGauge(NodeKeys, labels, 7)
	r.SetGauge(NodeKeys, labels, 3)
	r.ObserveHistogram(GetReplicasTried, nil, 1)
	r.ObserveHistogram(GetReplicasTried, nil, 2)

	if got := value(t, r, NodeKeys, labels); got != 3 {
		t.Fatalf("gauge = %v, want 3", got)
	}
	if got := value(t, r, GetReplicasTried, nil); got != 2 {
		t.Fatalf("histogram count = %v, want 2", got)
	}
}

func TestRegistry_MismatchedLabelsDropped(t *testing.T) {
	r := NewRegistry()
	r.IncCounter(NodeRequests, map[string]string{"node": "A", "op": "put"}, 1)
	// лейблы зафиксированы первым вызовом
	r.IncCounter(NodeRequests, map[string]string{"op": "put"}, 1)

	if got := value(t, r, NodeRequests, map[string]string{"node": "A", "op": "put"}); got != 1 {
		t.Fatalf("counter = %v, want 1", got)
	}
	if n, err := testutil.GatherAndCount(r.Gatherer(), NodeRequests); err != nil || n != 1 {
		t.Fatalf("series = %d, err = %v", n, err)
	}
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.IncCounter(CoordinatorRequests, map[string]string{"op": "put"}, 2)
	r.ObserveHistogram(GetReplicasTried, nil, 1)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		"# TYPE ringkv_coordinator_requests_total counter",
		`ringkv_coordinator_requests_total{op="put"} 2`,
		"# TYPE ringkv_get_replicas_tried histogram",
		`ringkv_get_replicas_tried_bucket{le="1"} 1`,
		"ringkv_get_replicas_tried_count 1",
		"go_goroutines",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("exposition missing %q:\n%s", want, text)
		}
	}
}

func TestRegistry_ImplementsCollector(t *testing.T) {
	var _ Collector = NewRegistry()
}
