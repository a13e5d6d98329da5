package observability

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Inbound message outcomes.
const (
	OutcomeProcessed      = "processed"
	OutcomeDeliveryFailed = "delivery_failed"
	OutcomeFailed         = "failed"
	OutcomeOutbound       = "dropped_outbound"
	OutcomeNotWhitelisted = "dropped_not_whitelisted"
	OutcomeNotConfigured  = "dropped_not_configured"
	OutcomeRateLimited    = "dropped_rate_limited"
	OutcomeQueueRejected  = "dropped_shutting_down"
)

// Webhook request results.
const (
	WebhookAccepted         = "accepted"
	WebhookInvalidSignature = "invalid_signature"
	WebhookInvalidPayload   = "invalid_payload"
)

// Metrics counts webhook traffic. Every counter is exported to Prometheus and
// mirrored in process for the admin overview.
type Metrics struct {
	webhooks *prometheus.CounterVec
	messages *prometheus.CounterVec
	inFlight prometheus.Gauge

	webhookTotal atomic.Int64
	messageTotal atomic.Int64
	failedTotal  atomic.Int64
	droppedTotal atomic.Int64
}

// NewMetrics registers the webhook metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		webhooks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wabot_webhook_requests_total",
			Help: "Webhook POST requests by result.",
		}, []string{"result"}),
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wabot_inbound_messages_total",
			Help: "Inbound messages by processing outcome.",
		}, []string{"outcome"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wabot_messages_in_flight",
			Help: "Messages currently being processed.",
		}),
	}
}

// RecordWebhook records one webhook request.
func (m *Metrics) RecordWebhook(result string) {
	m.webhookTotal.Add(1)
	m.webhooks.WithLabelValues(result).Inc()
}

// RecordMessage records the outcome of one inbound message.
func (m *Metrics) RecordMessage(outcome string) {
	m.messageTotal.Add(1)
	switch outcome {
	case OutcomeProcessed, OutcomeDeliveryFailed:
	case OutcomeFailed:
		m.failedTotal.Add(1)
	default:
		m.droppedTotal.Add(1)
	}
	m.messages.WithLabelValues(outcome).Inc()
}

// InFlight adjusts the in-flight gauge by delta.
func (m *Metrics) InFlight(delta float64) {
	m.inFlight.Add(delta)
}

// Snapshot returns a snapshot of current counters.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	return &MetricsSnapshot{
		WebhookTotal: m.webhookTotal.Load(),
		MessageTotal: m.messageTotal.Load(),
		FailedTotal:  m.failedTotal.Load(),
		DroppedTotal: m.droppedTotal.Load(),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	WebhookTotal int64 `json:"webhook_total"`
	MessageTotal int64 `json:"message_total"`
	FailedTotal  int64 `json:"failed_total"`
	DroppedTotal int64 `json:"dropped_total"`
}
