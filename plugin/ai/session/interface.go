// Package session persists the per-sender conversation state: the active
// module/submodule and a bounded window of recent messages.
package session

import "context"

const (
	// MaxHistory is the number of most recent messages kept on save.
	MaxHistory = 20

	DefaultModule    = "Base"
	DefaultSubmodule = "Main"

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SessionService defines the session persistence service interface.
type SessionService interface {
	// Load returns the persisted session, or a default session when none exists.
	Load(ctx context.Context, sender string) (*Session, error)

	// Save truncates the history to MaxHistory entries and upserts the session.
	Save(ctx context.Context, session *Session) error

	// Delete removes the session; deleting an absent session is a no-op.
	Delete(ctx context.Context, sender string) error

	// CleanupExpired removes sessions idle for more than retentionDays.
	CleanupExpired(ctx context.Context, retentionDays int) (int64, error)
}

// Session is the conversation state of one sender.
type Session struct {
	Sender          string    `json:"sender"`
	ActiveModule    string    `json:"active_module"`
	ActiveSubmodule string    `json:"active_submodule"`
	History         []Message `json:"history"`
	CreatedAt       int64     `json:"created_at"`
	UpdatedAt       int64     `json:"updated_at"`
}

// Message is one history entry.
type Message struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// NewSession returns the default state for a sender seen for the first time.
func NewSession(sender string) *Session {
	return &Session{
		Sender:          sender,
		ActiveModule:    DefaultModule,
		ActiveSubmodule: DefaultSubmodule,
		History:         []Message{},
	}
}

func (s *Session) AppendUser(content string) {
	s.History = append(s.History, Message{Role: RoleUser, Content: content})
}

func (s *Session) AppendAssistant(content string) {
	s.History = append(s.History, Message{Role: RoleAssistant, Content: content})
}

// Recent returns up to n of the most recent history entries, oldest first.
func (s *Session) Recent(n int) []Message {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	if len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// truncateHistory keeps the last max entries, dropping the oldest first.
func truncateHistory(history []Message, max int) []Message {
	if len(history) <= max {
		return history
	}
	kept := make([]Message, max)
	copy(kept, history[len(history)-max:])
	return kept
}
