package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Service implements the MetricsService interface, aggregating in memory and
// exporting Prometheus collectors.
type Service struct {
	aggregator *Aggregator

	modelAttempts   *prometheus.CounterVec
	modelLatency    *prometheus.HistogramVec
	messages        *prometheus.CounterVec
	messageDuration *prometheus.HistogramVec
}

var _ MetricsService = (*Service)(nil)

// NewService creates a new metrics service registering its collectors on reg.
// A nil reg keeps the collectors unregistered.
func NewService(reg prometheus.Registerer) *Service {
	factory := promauto.With(reg)
	return &Service{
		aggregator: NewAggregator(),
		modelAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wabot",
			Name:      "model_attempts_total",
			Help:      "LLM model invocations by provider, model and outcome.",
		}, []string{"provider", "model", "outcome"}),
		modelLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wabot",
			Name:      "model_attempt_duration_seconds",
			Help:      "LLM model invocation latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"provider"}),
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wabot",
			Name:      "messages_processed_total",
			Help:      "Inbound messages processed by module and outcome.",
		}, []string{"module", "outcome"}),
		messageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wabot",
			Name:      "message_duration_seconds",
			Help:      "End-to-end processing time of an inbound message.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"module"}),
	}
}

// RecordModelAttempt records a model invocation metric.
func (s *Service) RecordModelAttempt(_ context.Context, provider, model string, latency time.Duration, success bool) {
	s.aggregator.RecordModelAttempt(provider, model, latency, success)
	s.modelAttempts.WithLabelValues(provider, model, outcome(success)).Inc()
	s.modelLatency.WithLabelValues(provider).Observe(latency.Seconds())
}

// RecordMessage records a processed message metric.
func (s *Service) RecordMessage(_ context.Context, module string, latency time.Duration, success bool) {
	s.aggregator.RecordMessage(module, latency, success)
	s.messages.WithLabelValues(module, outcome(success)).Inc()
	s.messageDuration.WithLabelValues(module).Observe(latency.Seconds())
}

// GetStats retrieves aggregated statistics.
func (s *Service) GetStats(_ context.Context) (*Stats, error) {
	return s.aggregator.GetCurrentStats(), nil
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
