package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordWebhook(WebhookAccepted)
	m.RecordWebhook(WebhookInvalidSignature)
	m.RecordMessage(OutcomeProcessed)
	m.RecordMessage(OutcomeDeliveryFailed)
	m.RecordMessage(OutcomeFailed)
	m.RecordMessage(OutcomeNotWhitelisted)
	m.RecordMessage(OutcomeRateLimited)

	assert.Equal(t, &MetricsSnapshot{WebhookTotal: 2, MessageTotal: 5, FailedTotal: 1, DroppedTotal: 2}, m.Snapshot())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhooks.WithLabelValues(WebhookInvalidSignature)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues(OutcomeRateLimited)))

	m.InFlight(1)
	m.InFlight(1)
	m.InFlight(-1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))
}

func TestRequestContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	rc := NewRequestContextWithID(logger, "req-1", "15551234567")
	rc.Info("loaded session")
	rc.Module = "Base"
	rc.Warn("slow reply", slog.Int64(LogFieldDuration, 1200))

	out := buf.String()
	assert.Contains(t, out, "request_id=req-1")
	assert.Contains(t, out, "sender=15551234567")
	assert.Contains(t, out, "module=Base")
	assert.Contains(t, out, "duration_ms=1200")

	ctx := WithRequestContext(context.Background(), rc)
	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Same(t, rc, got)

	assert.NotEmpty(t, NewRequestContext(nil, "x").RequestID)
}
