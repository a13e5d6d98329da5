package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrygo/wabot/plugin/ai/cache"
	"github.com/hrygo/wabot/store"
)

const (
	cachePrefix = "session:"
	cacheTTL    = 30 * time.Minute
)

// sessionStore implements SessionService on the chat_session table, with an
// optional cache in front of it.
type sessionStore struct {
	store *store.Store
	cache cache.CacheService
	now   func() time.Time
}

// NewSessionStore creates a new session store. cache may be nil.
func NewSessionStore(st *store.Store, cache cache.CacheService) SessionService {
	return &sessionStore{
		store: st,
		cache: cache,
		now:   time.Now,
	}
}

func (s *sessionStore) Load(ctx context.Context, sender string) (*Session, error) {
	if cached := s.loadFromCache(ctx, sender); cached != nil {
		return cached, nil
	}

	row, err := s.store.GetChatSession(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if row == nil {
		return NewSession(sender), nil
	}

	session := &Session{
		Sender:          row.PhoneNumber,
		ActiveModule:    row.ActiveModule,
		ActiveSubmodule: row.ActiveSubmodule,
		History:         []Message{},
		CreatedAt:       row.CreatedTs,
		UpdatedAt:       row.UpdatedTs,
	}
	if session.ActiveModule == "" {
		session.ActiveModule = DefaultModule
	}
	if session.ActiveSubmodule == "" {
		session.ActiveSubmodule = DefaultSubmodule
	}
	if row.History != "" {
		if err := json.Unmarshal([]byte(row.History), &session.History); err != nil {
			// Start over with an empty window rather than failing the message.
			slog.Warn("failed to unmarshal session history", "sender", sender, "error", err)
			session.History = []Message{}
		}
	}

	s.updateCache(ctx, session)
	return session, nil
}

func (s *sessionStore) Save(ctx context.Context, session *Session) error {
	if session == nil || session.Sender == "" {
		return fmt.Errorf("session sender is required")
	}

	session.History = truncateHistory(session.History, MaxHistory)
	if session.History == nil {
		session.History = []Message{}
	}

	data, err := json.Marshal(session.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	now := s.now().Unix()
	if session.CreatedAt == 0 {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	saved, err := s.store.UpsertChatSession(ctx, &store.ChatSession{
		PhoneNumber:     session.Sender,
		ActiveModule:    session.ActiveModule,
		ActiveSubmodule: session.ActiveSubmodule,
		History:         string(data),
		CreatedTs:       session.CreatedAt,
		UpdatedTs:       session.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	session.CreatedAt = saved.CreatedTs

	s.updateCache(ctx, session)
	return nil
}

func (s *sessionStore) Delete(ctx context.Context, sender string) error {
	if _, err := s.store.DeleteChatSessions(ctx, &store.DeleteChatSession{PhoneNumber: &sender}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.invalidateCache(ctx, cachePrefix+sender)
	return nil
}

func (s *sessionStore) CleanupExpired(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -retentionDays).Unix()

	deleted, err := s.store.DeleteChatSessions(ctx, &store.DeleteChatSession{UpdatedBefore: &cutoff})
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}
	if deleted > 0 {
		// Expired senders are unknown here, so drop every cached session.
		s.invalidateCache(ctx, cachePrefix+"*")
	}
	return deleted, nil
}

func (s *sessionStore) updateCache(ctx context.Context, session *Session) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(session)
	if err != nil {
		slog.Warn("failed to marshal session for cache", "error", err)
		return
	}

	key := cachePrefix + session.Sender
	if err := s.cache.Set(ctx, key, data, cacheTTL); err != nil {
		slog.Warn("failed to update cache", "key", key, "error", err)
	}
}

func (s *sessionStore) loadFromCache(ctx context.Context, sender string) *Session {
	if s.cache == nil {
		return nil
	}

	key := cachePrefix + sender
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		slog.Warn("failed to unmarshal cached session", "key", key, "error", err)
		return nil
	}
	if session.History == nil {
		session.History = []Message{}
	}
	return &session
}

func (s *sessionStore) invalidateCache(ctx context.Context, pattern string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, pattern); err != nil {
		slog.Warn("failed to invalidate cache", "pattern", pattern, "error", err)
	}
}

var _ SessionService = (*sessionStore)(nil)
