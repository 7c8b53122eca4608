package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shoplist"

// UnknownEvent is the event label shared by every unregistered event name.
const UnknownEvent = "unknown"

// ServerMetrics owns a private registry so several servers in one process
// (tests, embedded use) never collide on the default registerer.
type ServerMetrics struct {
	registry *prometheus.Registry

	activeConnections  prometheus.Gauge
	connectionsTotal   prometheus.Counter
	eventsTotal        *prometheus.CounterVec
	eventLatency       *prometheus.HistogramVec
	errorsTotal        *prometheus.CounterVec
	protocolViolations *prometheus.CounterVec
	rateLimitedTotal   prometheus.Counter
}

func New() *ServerMetrics {
	m := &ServerMetrics{
		registry: prometheus.NewRegistry(),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Currently open client connections.",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Client connections accepted since start.",
		}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Acknowledged events by name and response status.",
		}, []string{"event", "status"}),
		eventLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_duration_seconds",
			Help:      "Time from frame decode to acknowledgement.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"event"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Unexpected failures by category.",
		}, []string{"category"}),
		protocolViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_violations_total",
			Help:      "Connections closed for breaking the event contract.",
		}, []string{"reason"}),
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_events_total",
			Help:      "Events rejected by the per-connection limiter.",
		}),
	}
	m.registry.MustRegister(
		m.activeConnections,
		m.connectionsTotal,
		m.eventsTotal,
		m.eventLatency,
		m.errorsTotal,
		m.protocolViolations,
		m.rateLimitedTotal,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *ServerMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *ServerMetrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *ServerMetrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connectionsTotal.Inc()
	m.activeConnections.Inc()
}

func (m *ServerMetrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.activeConnections.Dec()
}

func (m *ServerMetrics) RecordEvent(event, status string, started time.Time) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(event, status).Inc()
	m.eventLatency.WithLabelValues(event).Observe(time.Since(started).Seconds())
}

func (m *ServerMetrics) RecordError(category string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(category).Inc()
}

func (m *ServerMetrics) RecordProtocolViolation(reason string) {
	if m == nil {
		return
	}
	m.protocolViolations.WithLabelValues(reason).Inc()
}

func (m *ServerMetrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.rateLimitedTotal.Inc()
}
