package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.GetRequests.Inc()
	m.PutRequests.Inc()
	m.CacheHits.Inc()
	m.RequestLatency.WithLabelValues("get").Observe(0.01)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected at least one registered metric family")
	}
}

func TestNoopDoesNotPanic(t *testing.T) {
	m := Noop()
	m.ServerErrors.Inc()
	m.PutAllRetries.Inc()
}
