package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	WebhookEvents        *prometheus.CounterVec
	CommunicationsStored *prometheus.CounterVec
	DuplicateEvents      prometheus.Counter
	MessagesSent         *prometheus.CounterVec
	SyncCycles           *prometheus.CounterVec
	RealtimeSubscribers  prometheus.Gauge

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		WebhookEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_events_total",
				Help: "Total provider webhook events received",
			},
			[]string{"provider", "outcome"}, // stored, dropped, duplicate, invalid
		),
		CommunicationsStored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "communications_stored_total",
				Help: "Total communications written to the inbox",
			},
			[]string{"type", "direction"},
		),
		DuplicateEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duplicate_events_total",
			Help: "Total webhook redeliveries absorbed by the idempotent writer",
		}),
		MessagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messages_sent_total",
				Help: "Total outbound messages sent",
			},
			[]string{"channel"}, // sms, email
		),
		SyncCycles: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sync_cycles_total",
				Help: "Total auto-sync cycles by outcome",
			},
			[]string{"outcome"}, // ran, skipped
		),
		RealtimeSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_subscribers",
			Help: "Currently connected WebSocket subscribers",
		}),

		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // route pattern, not actual path

			err := next(c)

			status := c.Response().Status
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)

			return err
		}
	}
}

// RecordWebhookEvent counts a provider webhook by outcome
func (m *Metrics) RecordWebhookEvent(provider, outcome string) {
	m.WebhookEvents.WithLabelValues(provider, outcome).Inc()
}

// RecordCommunicationStored counts a stored communication
func (m *Metrics) RecordCommunicationStored(commType, direction string) {
	m.CommunicationsStored.WithLabelValues(commType, direction).Inc()
}

// RecordMessageSent counts an outbound message
func (m *Metrics) RecordMessageSent(channel string) {
	m.MessagesSent.WithLabelValues(channel).Inc()
}

// RecordSyncCycle counts an auto-sync cycle
func (m *Metrics) RecordSyncCycle(ran bool) {
	outcome := "skipped"
	if ran {
		outcome = "ran"
	}
	m.SyncCycles.WithLabelValues(outcome).Inc()
}
