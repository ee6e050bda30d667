// Package metrics exposes Prometheus instrumentation for the Vartalap server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// WebSocket metrics
	websocketConnections   prometheus.Gauge
	websocketMessagesTotal *prometheus.CounterVec

	// Presence metrics
	onlineUsers prometheus.Gauge

	// Signaling metrics
	signalsRelayedTotal *prometheus.CounterVec
	signalsDroppedTotal *prometheus.CounterVec

	// Call log metrics
	callLogsTotal *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New(serviceName string) *Metrics {
	labels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests",
				ConstLabels: labels,
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "HTTP request latency in seconds",
				ConstLabels: labels,
				Buckets:     prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		httpRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name:        "http_requests_in_flight",
				Help:        "Number of HTTP requests currently being processed",
				ConstLabels: labels,
			},
		),
		websocketConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name:        "websocket_connections",
				Help:        "Number of active WebSocket connections",
				ConstLabels: labels,
			},
		),
		websocketMessagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "websocket_messages_total",
				Help:        "Total number of WebSocket messages",
				ConstLabels: labels,
			},
			[]string{"event", "direction"},
		),
		onlineUsers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name:        "presence_online_users",
				Help:        "Number of users with a registered connection",
				ConstLabels: labels,
			},
		),
		signalsRelayedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "call_signals_relayed_total",
				Help:        "Total number of call signaling events relayed",
				ConstLabels: labels,
			},
			[]string{"event"},
		),
		signalsDroppedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "call_signals_dropped_total",
				Help:        "Total number of call signaling events dropped (target offline)",
				ConstLabels: labels,
			},
			[]string{"event"},
		),
		callLogsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "call_logs_total",
				Help:        "Total number of call log records created",
				ConstLabels: labels,
			},
			[]string{"status"},
		),
	}
}

// RecordHTTPRequest records a completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// IncHTTPInFlight increments the in-flight request gauge
func (m *Metrics) IncHTTPInFlight() { m.httpRequestsInFlight.Inc() }

// DecHTTPInFlight decrements the in-flight request gauge
func (m *Metrics) DecHTTPInFlight() { m.httpRequestsInFlight.Dec() }

// WebSocketConnected records a new WebSocket connection
func (m *Metrics) WebSocketConnected() { m.websocketConnections.Inc() }

// WebSocketDisconnected records a closed WebSocket connection
func (m *Metrics) WebSocketDisconnected() { m.websocketConnections.Dec() }

// RecordWebSocketMessage records a WebSocket message in the given direction
func (m *Metrics) RecordWebSocketMessage(event, direction string) {
	m.websocketMessagesTotal.WithLabelValues(event, direction).Inc()
}

// SetOnlineUsers records the current presence registry size
func (m *Metrics) SetOnlineUsers(n int) {
	m.onlineUsers.Set(float64(n))
}

// RecordSignalRelayed records a relayed call signaling event
func (m *Metrics) RecordSignalRelayed(event string) {
	m.signalsRelayedTotal.WithLabelValues(event).Inc()
}

// RecordSignalDropped records a signaling event dropped because the target was offline
func (m *Metrics) RecordSignalDropped(event string) {
	m.signalsDroppedTotal.WithLabelValues(event).Inc()
}

// RecordCallLog records a created call log record by final status
func (m *Metrics) RecordCallLog(status string) {
	m.callLogsTotal.WithLabelValues(status).Inc()
}
