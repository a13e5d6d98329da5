// Package metrics records model attempts and processed messages.
package metrics

import (
	"context"
	"time"
)

// MetricsService defines the metrics service interface.
// Consumers: selector (model attempts), conversation orchestrator (messages).
type MetricsService interface {
	// RecordModelAttempt records one invocation of a model during failover.
	RecordModelAttempt(ctx context.Context, provider, model string, latency time.Duration, success bool)

	// RecordMessage records one fully processed inbound message.
	RecordMessage(ctx context.Context, module string, latency time.Duration, success bool)

	// GetStats retrieves statistics data.
	GetStats(ctx context.Context) (*Stats, error)
}

// Stats represents aggregated metrics.
type Stats struct {
	MessageCount int64            `json:"message_count"`
	SuccessCount int64            `json:"success_count"`
	LatencyP50   time.Duration    `json:"latency_p50"`
	LatencyP95   time.Duration    `json:"latency_p95"`
	ModuleStats  map[string]*Stat `json:"module_stats"`
	// ModelStats is keyed by "provider/model".
	ModelStats map[string]*Stat `json:"model_stats"`
}

// Stat represents statistics for a single module or model.
type Stat struct {
	Count       int64         `json:"count"`
	SuccessRate float32       `json:"success_rate"`
	AvgLatency  time.Duration `json:"avg_latency"`
}
