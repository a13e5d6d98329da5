package metrics

import (
	"context"
	"sync"
	"time"
)

// MockMetricsService is a mock implementation of MetricsService for testing.
type MockMetricsService struct {
	mu         sync.RWMutex
	aggregator *Aggregator
	attempts   []AttemptRecord
}

// AttemptRecord is a recorded model attempt.
type AttemptRecord struct {
	Provider string
	Model    string
	Success  bool
}

var _ MetricsService = (*MockMetricsService)(nil)

// NewMockMetricsService creates a new MockMetricsService.
func NewMockMetricsService() *MockMetricsService {
	return &MockMetricsService{aggregator: NewAggregator()}
}

func (m *MockMetricsService) RecordModelAttempt(_ context.Context, provider, model string, latency time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, AttemptRecord{Provider: provider, Model: model, Success: success})
	m.aggregator.RecordModelAttempt(provider, model, latency, success)
}

func (m *MockMetricsService) RecordMessage(_ context.Context, module string, latency time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aggregator.RecordMessage(module, latency, success)
}

func (m *MockMetricsService) GetStats(_ context.Context) (*Stats, error) {
	return m.aggregator.GetCurrentStats(), nil
}

// Attempts returns the recorded model attempts in order.
func (m *MockMetricsService) Attempts() []AttemptRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]AttemptRecord(nil), m.attempts...)
}

// Clear removes all recorded data.
func (m *MockMetricsService) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = nil
	m.aggregator = NewAggregator()
}
