package session

import (
	"context"
	"sync"
	"time"
)

// MockSessionService is an in-memory SessionService for testing.
type MockSessionService struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	saves    []Session

	// SaveErr, when set, is returned by every Save call.
	SaveErr error
}

// NewMockSessionService creates an empty MockSessionService.
func NewMockSessionService() *MockSessionService {
	return &MockSessionService{
		sessions: make(map[string]*Session),
	}
}

func (m *MockSessionService) Load(_ context.Context, sender string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sender]
	if !ok {
		return NewSession(sender), nil
	}
	return cloneSession(s), nil
}

func (m *MockSessionService) Save(_ context.Context, session *Session) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	session.History = truncateHistory(session.History, MaxHistory)
	now := time.Now().Unix()
	if session.CreatedAt == 0 {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	stored := cloneSession(session)
	m.sessions[session.Sender] = stored
	m.saves = append(m.saves, *cloneSession(session))
	return nil
}

func (m *MockSessionService) Delete(_ context.Context, sender string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sender)
	return nil
}

func (m *MockSessionService) CleanupExpired(_ context.Context, retentionDays int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays).Unix()
	var deleted int64
	for sender, s := range m.sessions {
		if s.UpdatedAt < cutoff {
			delete(m.sessions, sender)
			deleted++
		}
	}
	return deleted, nil
}

// SetSessionDirectly stores a session without touching its timestamps.
func (m *MockSessionService) SetSessionDirectly(session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.Sender] = cloneSession(session)
}

// Saves returns snapshots of every saved session, in call order.
func (m *MockSessionService) Saves() []Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Session(nil), m.saves...)
}

// Count returns the number of stored sessions.
func (m *MockSessionService) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func cloneSession(s *Session) *Session {
	c := *s
	c.History = append([]Message{}, s.History...)
	return &c
}

var _ SessionService = (*MockSessionService)(nil)
