// Package metrics records fetch cycle outcomes for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OutcomeOK labels a fetch cycle that produced articles.
const OutcomeOK = "ok"

// Recorder receives one observation per completed fetch cycle. outcome is
// OutcomeOK or the failure reason.
type Recorder interface {
	RecordFetch(source, outcome string, duration time.Duration, articles int)
}

// Noop discards every observation.
type Noop struct{}

func (Noop) RecordFetch(string, string, time.Duration, int) {}

// FetchMetrics provides Prometheus metrics for fetch cycles.
//
//   - newsreader_fetch_cycles_total{source,outcome}
//   - newsreader_fetch_duration_seconds{source}
//   - newsreader_fetch_articles{source}: articles returned by the last cycle
type FetchMetrics struct {
	registry *prometheus.Registry

	CyclesTotal     *prometheus.CounterVec
	DurationSeconds *prometheus.HistogramVec
	LastArticles    *prometheus.GaugeVec
}

// NewFetchMetrics creates the metrics on a private registry, together with
// the Go runtime and process collectors.
func NewFetchMetrics() *FetchMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &FetchMetrics{
		registry: reg,

		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "newsreader_fetch_cycles_total",
			Help: "Total number of fetch cycles by source and outcome",
		}, []string{"source", "outcome"}),

		// Connect (15s) plus read (10s) bounds a cycle at roughly 25s.
		DurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newsreader_fetch_duration_seconds",
			Help:    "Duration of fetch cycles in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 25},
		}, []string{"source"}),

		LastArticles: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "newsreader_fetch_articles",
			Help: "Number of articles returned by the last fetch cycle",
		}, []string{"source"}),
	}
}

// RecordFetch implements Recorder.
func (m *FetchMetrics) RecordFetch(source, outcome string, duration time.Duration, articles int) {
	m.CyclesTotal.WithLabelValues(source, outcome).Inc()
	m.DurationSeconds.WithLabelValues(source).Observe(duration.Seconds())
	m.LastArticles.WithLabelValues(source).Set(float64(articles))
}

// Registry exposes the underlying registry.
func (m *FetchMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *FetchMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
