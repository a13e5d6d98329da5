package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregator_RecordMessage(t *testing.T) {
	agg := NewAggregator()
	agg.RecordMessage("Base", 50*time.Millisecond, true)
	agg.RecordMessage("Base", 150*time.Millisecond, true)
	agg.RecordMessage("Meal", 200*time.Millisecond, false)

	stats := agg.GetCurrentStats()
	assert.Equal(t, int64(3), stats.MessageCount)
	assert.Equal(t, int64(2), stats.SuccessCount)

	base := stats.ModuleStats["Base"]
	require.NotNil(t, base)
	assert.Equal(t, int64(2), base.Count)
	assert.Equal(t, float32(1.0), base.SuccessRate)
	assert.Equal(t, 100*time.Millisecond, base.AvgLatency)
	assert.Equal(t, float32(0), stats.ModuleStats["Meal"].SuccessRate)
}

func TestAggregator_RecordModelAttempt(t *testing.T) {
	agg := NewAggregator()
	agg.RecordModelAttempt("openrouter", "a", 10*time.Millisecond, false)
	agg.RecordModelAttempt("openrouter", "b", 30*time.Millisecond, true)

	stats := agg.GetCurrentStats()
	// Model attempts are separate from message counts.
	assert.Equal(t, int64(0), stats.MessageCount)
	assert.Len(t, stats.ModelStats, 2)
	assert.Equal(t, float32(1.0), stats.ModelStats["openrouter/b"].SuccessRate)
}

func TestAggregator_Percentiles(t *testing.T) {
	agg := NewAggregator()
	for i := 1; i <= 100; i++ {
		agg.RecordMessage("Base", time.Duration(i)*time.Millisecond, true)
	}

	stats := agg.GetCurrentStats()
	assert.InDelta(t, 50, stats.LatencyP50.Milliseconds(), 5)
	assert.InDelta(t, 95, stats.LatencyP95.Milliseconds(), 5)
}

func TestAggregator_LatencySamplesBounded(t *testing.T) {
	agg := NewAggregator()
	for i := 0; i < maxLatencySamples+50; i++ {
		agg.RecordMessage("Base", time.Millisecond, true)
	}
	assert.Len(t, agg.latencies, maxLatencySamples)
	assert.Equal(t, int64(maxLatencySamples+50), agg.GetCurrentStats().MessageCount)
}

func TestAggregator_Concurrent(t *testing.T) {
	agg := NewAggregator()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				agg.RecordMessage("Base", time.Millisecond, true)
				agg.RecordModelAttempt("gemini", "m", time.Millisecond, true)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1000), agg.GetCurrentStats().MessageCount)
}

func TestService_Prometheus(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	svc := NewService(reg)

	svc.RecordModelAttempt(ctx, "openrouter", "a", time.Second, false)
	svc.RecordModelAttempt(ctx, "openrouter", "b", time.Second, true)
	svc.RecordMessage(ctx, "Base", 2*time.Second, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(svc.modelAttempts.WithLabelValues("openrouter", "a", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.messages.WithLabelValues("Base", "success")))

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.MessageCount)
	assert.Len(t, stats.ModelStats, 2)
}

func TestMockMetricsService(t *testing.T) {
	ctx := context.Background()
	svc := NewMockMetricsService()
	svc.RecordModelAttempt(ctx, "gemini", "x", time.Millisecond, false)
	svc.RecordModelAttempt(ctx, "gemini", "y", time.Millisecond, true)

	assert.Equal(t, []AttemptRecord{
		{Provider: "gemini", Model: "x", Success: false},
		{Provider: "gemini", Model: "y", Success: true},
	}, svc.Attempts())

	svc.Clear()
	assert.Empty(t, svc.Attempts())
}
