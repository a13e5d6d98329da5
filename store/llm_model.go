package store

import (
	"context"
)

// LLMModel is a candidate model of a provider, with its health record.
type LLMModel struct {
	ID             int32
	Provider       string
	Name           string
	SuspendedUntil *int64 // unix seconds; nil means never suspended
	ErrorCount     int32
	LastError      *string
	CreatedTs      int64
}

// IsAvailable reports whether the model is usable at the given unix time.
func (m *LLMModel) IsAvailable(now int64) bool {
	return m.SuspendedUntil == nil || *m.SuspendedUntil < now
}

type FindLLMModel struct {
	Provider *string
	Name     *string
	// AvailableAt keeps only models not suspended at this unix time.
	AvailableAt *int64
}

type RecordLLMModelFailure struct {
	Provider       string
	Name           string
	SuspendedUntil int64
	LastError      string
}

func (s *Store) CreateLLMModel(ctx context.Context, create *LLMModel) error {
	return s.driver.CreateLLMModel(ctx, create)
}

func (s *Store) ListLLMModels(ctx context.Context, find *FindLLMModel) ([]*LLMModel, error) {
	return s.driver.ListLLMModels(ctx, find)
}

func (s *Store) RecordLLMModelFailure(ctx context.Context, record *RecordLLMModelFailure) error {
	return s.driver.RecordLLMModelFailure(ctx, record)
}
