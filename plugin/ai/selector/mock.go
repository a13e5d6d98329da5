package selector

import (
	"context"
	"sync"
)

// MockRegistry is an in-memory Registry for testing. Models are listed in
// registration order; failed models are suspended until Restore is called.
type MockRegistry struct {
	mu        sync.Mutex
	models    map[string][]string
	suspended map[string]bool
	failures  []string

	// ListErr is returned by ListAvailable when set.
	ListErr error
}

var _ Registry = (*MockRegistry)(nil)

// NewMockRegistry creates a MockRegistry with the given models for provider.
func NewMockRegistry(provider string, models ...string) *MockRegistry {
	return &MockRegistry{
		models:    map[string][]string{provider: models},
		suspended: make(map[string]bool),
	}
}

func (m *MockRegistry) ListAvailable(_ context.Context, provider string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	available := make([]string, 0)
	for _, name := range m.models[provider] {
		if !m.suspended[provider+"/"+name] {
			available = append(available, name)
		}
	}
	return available, nil
}

func (m *MockRegistry) RecordFailure(_ context.Context, provider, name, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suspended[provider+"/"+name] = true
	m.failures = append(m.failures, name)
	return nil
}

// Failures returns the failed model names in order.
func (m *MockRegistry) Failures() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.failures...)
}

// Restore lifts every suspension.
func (m *MockRegistry) Restore() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suspended = make(map[string]bool)
}
