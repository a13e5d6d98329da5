package whatsapp

import (
	"context"
	"sync"
)

// SentMessage is a recorded SendText call.
type SentMessage struct {
	PhoneNumberID string
	To            string
	Body          string
}

// MockTransport records calls for testing.
type MockTransport struct {
	mu      sync.Mutex
	sent    []SentMessage
	reads   []string
	SendErr error
	ReadErr error
}

var _ Transport = (*MockTransport)(nil)

func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func (m *MockTransport) SendText(_ context.Context, phoneNumberID, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{PhoneNumberID: phoneNumberID, To: to, Body: body})
	return m.SendErr
}

func (m *MockTransport) MarkRead(_ context.Context, _ string, messageID string, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads = append(m.reads, messageID)
	return m.ReadErr
}

// Sent returns the recorded SendText calls.
func (m *MockTransport) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}

// Reads returns the message ids passed to MarkRead, in call order.
func (m *MockTransport) Reads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.reads...)
}
