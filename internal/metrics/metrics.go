package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Interaction session metrics
	SessionsActive         prometheus.Gauge
	SessionsTotal          prometheus.Counter
	SessionsCompletedTotal *prometheus.CounterVec

	// Routing metrics
	RequestsRoutedTotal  *prometheus.CounterVec
	PendingSessionsTotal prometheus.Counter

	// Telegram metrics
	MessagesSentTotal    prometheus.Counter
	UpdatesReceivedTotal prometheus.Counter
	PollErrorsTotal      prometheus.Counter
	TelegramErrorsTotal  prometheus.Counter
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		// Interaction session metrics
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "interaction_sessions_active",
				Help: "Number of interaction sessions currently polling",
			},
		),
		SessionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "interaction_sessions_total",
				Help: "Total number of interaction sessions started",
			},
		),
		SessionsCompletedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interaction_sessions_completed_total",
				Help: "Total number of completed interaction sessions",
			},
			[]string{"outcome"},
		),

		// Routing metrics
		RequestsRoutedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "requests_routed_total",
				Help: "Total number of routed requests",
			},
			[]string{"via"},
		),
		PendingSessionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pending_sessions_recorded_total",
				Help: "Total number of sessions queued for manual binding",
			},
		),

		// Telegram metrics
		MessagesSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "telegram_messages_sent_total",
				Help: "Total number of Telegram messages sent",
			},
		),
		UpdatesReceivedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "telegram_updates_received_total",
				Help: "Total number of Telegram updates received",
			},
		),
		PollErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "telegram_poll_errors_total",
				Help: "Total number of failed long-poll requests",
			},
		),
		TelegramErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "telegram_errors_total",
				Help: "Total number of Telegram errors",
			},
		),
	}

	// Register all metrics
	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	// Interaction session metrics
	m.registry.MustRegister(m.SessionsActive)
	m.registry.MustRegister(m.SessionsTotal)
	m.registry.MustRegister(m.SessionsCompletedTotal)

	// Routing metrics
	m.registry.MustRegister(m.RequestsRoutedTotal)
	m.registry.MustRegister(m.PendingSessionsTotal)

	// Telegram metrics
	m.registry.MustRegister(m.MessagesSentTotal)
	m.registry.MustRegister(m.UpdatesReceivedTotal)
	m.registry.MustRegister(m.PollErrorsTotal)
	m.registry.MustRegister(m.TelegramErrorsTotal)
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
