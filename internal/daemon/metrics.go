package daemon

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instrumentation for the daemon. Each Server
// owns its own registry so tests can run several servers in one process
// without duplicate registration panics.
type Metrics struct {
	registry *prometheus.Registry

	switchesTotal       *prometheus.CounterVec
	switchSeconds       prometheus.Histogram
	reconcilesTotal     prometheus.Counter
	catalogBatchesTotal prometheus.Counter
	eventsDroppedTotal  prometheus.Counter
	subscribers         prometheus.Gauge
}

// NewMetrics creates and registers all daemon collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		switchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "profilectl",
			Name:      "switches_total",
			Help:      "Profile switches by outcome (ok, failed, noop).",
		}, []string{"outcome"}),
		switchSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "profilectl",
			Name:      "switch_duration_seconds",
			Help:      "Time spent switching profiles, including joined tasks.",
			Buckets:   prometheus.DefBuckets,
		}),
		reconcilesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "profilectl",
			Name:      "reconciles_total",
			Help:      "Catalog reconciliations that replaced the current profile in place.",
		}),
		catalogBatchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "profilectl",
			Name:      "catalog_batches_total",
			Help:      "Catalog change batches observed by the watcher.",
		}),
		eventsDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "profilectl",
			Name:      "events_dropped_total",
			Help:      "Events dropped because a subscriber's buffer was full.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "profilectl",
			Name:      "event_subscribers",
			Help:      "Currently connected event stream subscribers.",
		}),
	}

	registry.MustRegister(
		m.switchesTotal,
		m.switchSeconds,
		m.reconcilesTotal,
		m.catalogBatchesTotal,
		m.eventsDroppedTotal,
		m.subscribers,
	)

	return m
}

// Handler returns the HTTP handler serving this registry's metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSwitch records one switch attempt with its outcome and duration.
func (m *Metrics) ObserveSwitch(outcome string, elapsed time.Duration) {
	m.switchesTotal.WithLabelValues(outcome).Inc()
	m.switchSeconds.Observe(elapsed.Seconds())
}
