package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Generation(OutcomeOK)
	m.Observe("generate", time.Second)
	m.Fetch(true)
	m.Confidence(0.8)
	if m.Registry() != nil {
		t.Error("expected nil registry")
	}
	if got := testutil.ToFloat64(m.GenerationCount(OutcomeOK)); got != 0 {
		t.Errorf("expected 0 from nil metrics, got %v", got)
	}
}

func TestGenerationCounter(t *testing.T) {
	m := New()
	m.Generation(OutcomeOK)
	m.Generation(OutcomeOK)
	m.Generation(OutcomeDegraded)

	if got := testutil.ToFloat64(m.GenerationCount(OutcomeOK)); got != 2 {
		t.Errorf("expected 2 ok generations, got %v", got)
	}
	if got := testutil.ToFloat64(m.GenerationCount(OutcomeDegraded)); got != 1 {
		t.Errorf("expected 1 degraded generation, got %v", got)
	}
}

func TestRegistryGathers(t *testing.T) {
	m := New()
	m.Fetch(false)
	m.Observe("fetch", 200*time.Millisecond)

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"perspost_fetches_total", "perspost_stage_duration_seconds"} {
		if !names[want] {
			t.Errorf("expected metric family %s", want)
		}
	}
}
