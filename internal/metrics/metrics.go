// Package metrics exposes Prometheus collectors for the generation pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Generation outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeDegraded    = "degraded"
	OutcomeFetchFailed = "fetch_failed"
	OutcomeError       = "error"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	generations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	fetches     *prometheus.CounterVec
	confidence  prometheus.Histogram
}

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "perspost",
			Name:      "generations_total",
			Help:      "Post generations by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "perspost",
			Name:      "stage_duration_seconds",
			Help:      "Time spent per pipeline stage.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "perspost",
			Name:      "fetches_total",
			Help:      "Article fetches by result.",
		}, []string{"result"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "perspost",
			Name:      "confidence_score",
			Help:      "Distribution of returned confidence scores.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}
	m.registry.MustRegister(
		m.generations,
		m.duration,
		m.fetches,
		m.confidence,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry for exposition.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Generation records the outcome of one pipeline run.
func (m *Metrics) Generation(outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
}

// Observe records how long a stage took.
func (m *Metrics) Observe(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(stage).Observe(d.Seconds())
}

// Fetch records a fetch attempt.
func (m *Metrics) Fetch(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "empty"
	}
	m.fetches.WithLabelValues(result).Inc()
}

// Confidence records a returned score.
func (m *Metrics) Confidence(score float64) {
	if m == nil {
		return
	}
	m.confidence.Observe(score)
}

// GenerationCount returns the counter for outcome, for tests and status output.
// A nil *Metrics returns a detached counter.
func (m *Metrics) GenerationCount(outcome string) prometheus.Counter {
	if m == nil {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: "perspost_generations_detached"})
	}
	return m.generations.WithLabelValues(outcome)
}
