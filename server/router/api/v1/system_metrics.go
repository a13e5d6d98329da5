package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/wabot/plugin/ai/metrics"
	"github.com/hrygo/wabot/server/internal/observability"
)

// MetricsOverviewResponse represents the overview of message processing since
// the process started.
type MetricsOverviewResponse struct {
	TotalMessages int64   `json:"total_messages"`
	SuccessRate   float64 `json:"success_rate"`
	P50LatencyMs  int64   `json:"p50_latency_ms"`
	P95LatencyMs  int64   `json:"p95_latency_ms"`
	ErrorCount    int64   `json:"error_count"`

	Webhook *observability.MetricsSnapshot `json:"webhook,omitempty"`
	Modules map[string]*metrics.Stat       `json:"modules,omitempty"`
	Models  map[string]*metrics.Stat       `json:"models,omitempty"`
}

// GetMetricsOverview returns the system metrics overview
// GET /api/v1/system/metrics/overview
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	resp := MetricsOverviewResponse{}

	if s.Metrics != nil {
		stats, err := s.Metrics.GetStats(c.Request().Context())
		if err != nil {
			return respondError(c, err)
		}
		resp.TotalMessages = stats.MessageCount
		resp.ErrorCount = stats.MessageCount - stats.SuccessCount
		if stats.MessageCount > 0 {
			resp.SuccessRate = float64(stats.SuccessCount) / float64(stats.MessageCount)
		}
		resp.P50LatencyMs = stats.LatencyP50.Milliseconds()
		resp.P95LatencyMs = stats.LatencyP95.Milliseconds()
		resp.Modules = stats.ModuleStats
		resp.Models = stats.ModelStats
	}
	if s.Observability != nil {
		resp.Webhook = s.Observability.Snapshot()
	}

	return c.JSON(http.StatusOK, resp)
}
