package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edugate/monitoring-core/internal/access"
	"github.com/edugate/monitoring-core/internal/telemetry"
)

const metricsNamespace = "monitoring"

// Metrics exposes Prometheus counters for the core. It owns its registry
// so tests and multiple instances never collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	accessDecisions    *prometheus.CounterVec
	readings           *prometheus.CounterVec
	readingRejections  *prometheus.CounterVec
	simulationsSkipped prometheus.Counter
	tokenCollisions    prometheus.Counter
}

// NewMetrics creates and registers the collectors, including the Go runtime
// and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		accessDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "access_decisions_total",
			Help:      "Access decisions recorded, by result, reason and source.",
		}, []string{"result", "reason", "source"}),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "telemetry_readings_total",
			Help:      "Telemetry readings stored, by status at ingest time.",
		}, []string{"status"}),
		readingRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "telemetry_rejections_total",
			Help:      "Telemetry submissions rejected by validation, by reason.",
		}, []string{"reason"}),
		simulationsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "simulations_skipped_total",
			Help:      "Auto access events skipped by the rate limiter.",
		}),
		tokenCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "device_token_collisions_total",
			Help:      "Generated device tokens rejected by the uniqueness constraint.",
		}),
	}

	m.registry.MustRegister(
		m.accessDecisions,
		m.readings,
		m.readingRejections,
		m.simulationsSkipped,
		m.tokenCollisions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// TokenCollision counts one colliding device token.
func (m *Metrics) TokenCollision() {
	m.tokenCollisions.Inc()
}

// AccessDecided implements Sink.
func (m *Metrics) AccessDecided(_ context.Context, e access.Event) {
	m.accessDecisions.WithLabelValues(string(e.Result), string(e.Reason), string(e.Source)).Inc()
}

// ReadingStored implements Sink.
func (m *Metrics) ReadingStored(_ context.Context, _ telemetry.Reading, status telemetry.Status) {
	m.readings.WithLabelValues(string(status)).Inc()
}

// ReadingRejected implements Sink.
func (m *Metrics) ReadingRejected(_ context.Context, _ string, reason string) {
	m.readingRejections.WithLabelValues(reason).Inc()
}

// SimulationSkipped implements Sink.
func (m *Metrics) SimulationSkipped(context.Context, string, time.Duration) {
	m.simulationsSkipped.Inc()
}
