package store

import (
	"context"
)

// ChatSession is the persisted conversation state of one sender.
type ChatSession struct {
	PhoneNumber     string
	ActiveModule    string
	ActiveSubmodule string
	History         string // JSON array of {"role","content"}
	CreatedTs       int64
	// UpdatedTs defaults to the current time on upsert when zero.
	UpdatedTs int64
}

type FindChatSession struct {
	PhoneNumber   *string
	UpdatedBefore *int64
}

type DeleteChatSession struct {
	PhoneNumber   *string
	UpdatedBefore *int64
}

func (s *Store) UpsertChatSession(ctx context.Context, upsert *ChatSession) (*ChatSession, error) {
	return s.driver.UpsertChatSession(ctx, upsert)
}

func (s *Store) ListChatSessions(ctx context.Context, find *FindChatSession) ([]*ChatSession, error) {
	return s.driver.ListChatSessions(ctx, find)
}

// GetChatSession returns nil without error when the session does not exist.
func (s *Store) GetChatSession(ctx context.Context, phoneNumber string) (*ChatSession, error) {
	list, err := s.driver.ListChatSessions(ctx, &FindChatSession{PhoneNumber: &phoneNumber})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteChatSessions(ctx context.Context, delete *DeleteChatSession) (int64, error) {
	return s.driver.DeleteChatSessions(ctx, delete)
}
