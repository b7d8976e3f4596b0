package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewWithRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWithRegistry(registry)

	if m.RegistersOpened == nil || m.HTTPRequests == nil || m.ChequeTransitions == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.RegistersOpened.Inc()
	m.ChequeTransitions.WithLabelValues("CLEARED").Inc()
	m.ChequeTransitions.WithLabelValues("CLEARED").Inc()

	var metric dto.Metric
	if err := m.ChequeTransitions.WithLabelValues("CLEARED").Write(&metric); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 2 {
		t.Errorf("cleared transitions = %v, want 2", got)
	}

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewWithRegistry_Isolated(t *testing.T) {
	// Two registries must not collide on registration.
	_ = NewWithRegistry(prometheus.NewRegistry())
	_ = NewWithRegistry(prometheus.NewRegistry())
}
