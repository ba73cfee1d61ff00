// Package metrics exposes Prometheus collectors for generation calls and
// session state.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "proposal"

// Collector groups the application's collectors on its own registry.
type Collector struct {
	registry    *prometheus.Registry
	generations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rejections  *prometheus.CounterVec
	sessions    *prometheus.GaugeVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generation and refinement calls by stage, mode and outcome.",
		}, []string{"stage", "mode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Latency of generation calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"stage", "mode"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Session operations rejected without a state change.",
		}, []string{"operation", "reason"}),
		sessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Live sessions by phase.",
		}, []string{"phase"}),
	}
	c.registry.MustRegister(c.generations, c.duration, c.rejections, c.sessions)
	return c
}

// ObserveGeneration records one finished call. outcome is "ok" or a failure kind.
func (c *Collector) ObserveGeneration(stage, mode, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.generations.WithLabelValues(stage, mode, outcome).Inc()
	c.duration.WithLabelValues(stage, mode).Observe(elapsed.Seconds())
}

// ObserveRejection counts an operation turned away (busy, locked stage...).
func (c *Collector) ObserveRejection(operation, reason string) {
	if c == nil {
		return
	}
	c.rejections.WithLabelValues(operation, reason).Inc()
}

// SetSessions replaces the per-phase session gauge.
func (c *Collector) SetSessions(byPhase map[string]int) {
	if c == nil {
		return
	}
	c.sessions.Reset()
	for phase, n := range byPhase {
		c.sessions.WithLabelValues(phase).Set(float64(n))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
