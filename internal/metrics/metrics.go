package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/feral-file/flightstake-indexer/internal/domain"
)

const namespace = "flightstake"

// Metrics holds the collectors of one process on a private registry
type Metrics struct {
	reg *prometheus.Registry

	eventsTotal      *prometheus.CounterVec
	handlerDuration  *prometheus.HistogramVec
	sourceState      *prometheus.GaugeVec
	reconnectsTotal  *prometheus.CounterVec
	notifierFailures *prometheus.CounterVec
	hubClients       prometheus.Gauge
}

// New creates the collectors and registers them with the Go runtime collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Total number of ledger events routed, by outcome.",
		}, []string{"source", "event", "outcome"}),
		handlerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "projection_duration_seconds",
			Help:      "Time spent projecting and committing one event.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source", "event"}),
		sourceState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_state",
			Help:      "Connection state of a source, 1 for the current state.",
		}, []string{"source", "state"}),
		reconnectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_reconnects_total",
			Help:      "Total number of reconnect attempts per source.",
		}, []string{"source"}),
		notifierFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifier_failures_total",
			Help:      "Total number of notifications that could not be published.",
		}, []string{"kind"}),
		hubClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hub_clients",
			Help:      "Number of clients connected to the live-update hub.",
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ObserveEvent records one routed event and how long it took
func (m *Metrics) ObserveEvent(source domain.Source, event domain.EventName, outcome string, elapsed time.Duration) {
	m.eventsTotal.WithLabelValues(string(source), string(event), outcome).Inc()
	m.handlerDuration.WithLabelValues(string(source), string(event)).Observe(elapsed.Seconds())
}

// SetSourceState flags state as the current connection state of source
func (m *Metrics) SetSourceState(source domain.Source, state domain.SourceState) {
	for _, s := range []domain.SourceState{
		domain.SourceStateDisconnected,
		domain.SourceStateConnecting,
		domain.SourceStateSubscribed,
	} {
		v := 0.0
		if s == state {
			v = 1
		}
		m.sourceState.WithLabelValues(string(source), string(s)).Set(v)
	}
}

// IncReconnect counts a reconnect attempt
func (m *Metrics) IncReconnect(source domain.Source) {
	m.reconnectsTotal.WithLabelValues(string(source)).Inc()
}

// IncNotifierFailure counts a notification that was dropped
func (m *Metrics) IncNotifierFailure(kind string) {
	m.notifierFailures.WithLabelValues(kind).Inc()
}

// SetHubClients sets the number of connected hub clients
func (m *Metrics) SetHubClients(n int) {
	m.hubClients.Set(float64(n))
}
