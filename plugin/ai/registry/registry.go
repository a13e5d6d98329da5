// Package registry keeps the persistent catalog of candidate LLM models and
// their health (suspension window, error count, last error).
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrygo/wabot/plugin/ai/timeout"
	"github.com/hrygo/wabot/store"
)

// Registry lists available models and records their failures.
// It is safe for concurrent use; every operation is a single statement.
type Registry struct {
	store *store.Store
	now   func() time.Time
}

// New creates a Registry over st using the wall clock.
func New(st *store.Store) *Registry {
	return &Registry{store: st, now: time.Now}
}

// WithClock returns a copy of the registry reading time from now.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	return &Registry{store: r.store, now: now}
}

// ListAvailable returns the names of the provider's models that are not
// suspended, healthiest first (error count ascending, then registration order).
func (r *Registry) ListAvailable(ctx context.Context, provider string) ([]string, error) {
	now := r.now().Unix()
	models, err := r.store.ListLLMModels(ctx, &store.FindLLMModel{
		Provider:    &provider,
		AvailableAt: &now,
	})
	if err != nil {
		return nil, fmt.Errorf("list available models for %s: %w", provider, err)
	}

	names := make([]string, 0, len(models))
	for _, model := range models {
		names = append(names, model.Name)
	}
	return names, nil
}

// RegisterIfAbsent registers (provider, name) with a clean health record.
// An existing model, including its health, is left untouched.
func (r *Registry) RegisterIfAbsent(ctx context.Context, provider, name string) error {
	if provider == "" || name == "" {
		return fmt.Errorf("provider and model name are required")
	}
	if err := r.store.CreateLLMModel(ctx, &store.LLMModel{Provider: provider, Name: name}); err != nil {
		return fmt.Errorf("register model %s/%s: %w", provider, name, err)
	}
	return nil
}

// RecordFailure suspends the model for timeout.ModelSuspension from now,
// bumps its error count and stores the error message. Unknown models are
// created with an error count of one.
func (r *Registry) RecordFailure(ctx context.Context, provider, name, errMsg string) error {
	suspendedUntil := r.now().Add(timeout.ModelSuspension).Unix()
	if err := r.store.RecordLLMModelFailure(ctx, &store.RecordLLMModelFailure{
		Provider:       provider,
		Name:           name,
		SuspendedUntil: suspendedUntil,
		LastError:      errMsg,
	}); err != nil {
		return fmt.Errorf("record failure of %s/%s: %w", provider, name, err)
	}
	slog.Warn("model suspended",
		slog.String("provider", provider),
		slog.String("model", name),
		slog.Time("until", time.Unix(suspendedUntil, 0)),
	)
	return nil
}

// List returns every model of the provider with its health record.
// An empty provider lists all providers.
func (r *Registry) List(ctx context.Context, provider string) ([]*store.LLMModel, error) {
	find := &store.FindLLMModel{}
	if provider != "" {
		find.Provider = &provider
	}
	models, err := r.store.ListLLMModels(ctx, find)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return models, nil
}

// Seed registers every configured model, keyed by provider.
func (r *Registry) Seed(ctx context.Context, seeds map[string][]string) error {
	for provider, names := range seeds {
		for _, name := range names {
			if err := r.RegisterIfAbsent(ctx, provider, name); err != nil {
				return err
			}
		}
	}
	return nil
}
