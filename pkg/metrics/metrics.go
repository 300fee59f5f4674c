package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus collectors for registry operations.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry        *prometheus.Registry
	registrations   *prometheus.CounterVec
	unregistrations *prometheus.CounterVec
	persistErrors   prometheus.Counter
	identities      prometheus.Gauge
	tokens          prometheus.Gauge
}

// New creates the registry collectors and registers them, together with the
// Go runtime and process collectors, on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "push_registry_registrations_total",
			Help: "Total number of successful register calls by result",
		}, []string{"result"}),
		unregistrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "push_registry_unregistrations_total",
			Help: "Total number of successful unregister calls by result",
		}, []string{"result"}),
		persistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "push_registry_persist_errors_total",
			Help: "Total number of failed writes of the subscriptions file",
		}),
		identities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "push_registry_identities",
			Help: "Current number of identities with at least one token",
		}),
		tokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "push_registry_tokens",
			Help: "Current number of registered push tokens",
		}),
	}

	m.registry.MustRegister(
		m.registrations,
		m.unregistrations,
		m.persistErrors,
		m.identities,
		m.tokens,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registered records a successful register call
func (m *Metrics) Registered(isNew bool) {
	if m == nil {
		return
	}
	result := "existing"
	if isNew {
		result = "new"
	}
	m.registrations.WithLabelValues(result).Inc()
}

// Unregistered records a successful unregister call
func (m *Metrics) Unregistered(removed bool) {
	if m == nil {
		return
	}
	result := "noop"
	if removed {
		result = "removed"
	}
	m.unregistrations.WithLabelValues(result).Inc()
}

// PersistFailed records a failed write of the subscriptions file
func (m *Metrics) PersistFailed() {
	if m == nil {
		return
	}
	m.persistErrors.Inc()
}

// SetSize updates the registry size gauges
func (m *Metrics) SetSize(identities, tokens int) {
	if m == nil {
		return
	}
	m.identities.Set(float64(identities))
	m.tokens.Set(float64(tokens))
}

// Handler exposes the collectors in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
