// Package selector runs a request against a provider's available models in
// order, suspending each model that fails, until one succeeds.
package selector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/wabot/plugin/ai/metrics"
	"github.com/hrygo/wabot/plugin/ai/timeout"
)

// InvokeFunc performs one attempt against model. An error or an empty
// result is a failure of that model.
type InvokeFunc func(ctx context.Context, model string) (string, error)

// Registry is the model catalog the selector draws from.
type Registry interface {
	ListAvailable(ctx context.Context, provider string) ([]string, error)
	RecordFailure(ctx context.Context, provider, name, errMsg string) error
}

// Config configures a Selector.
type Config struct {
	// AttemptTimeout bounds a single model attempt (default: timeout.ModelAttemptTimeout).
	AttemptTimeout time.Duration
}

// DefaultConfig returns the default selector config.
func DefaultConfig() Config {
	return Config{AttemptTimeout: timeout.ModelAttemptTimeout}
}

// Selector implements sequential failover across models. Attempts are never
// run in parallel.
type Selector struct {
	registry Registry
	metrics  metrics.MetricsService
	config   Config
}

// New creates a Selector. metricsSvc may be nil.
func New(registry Registry, metricsSvc metrics.MetricsService, cfg Config) *Selector {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = timeout.ModelAttemptTimeout
	}
	return &Selector{
		registry: registry,
		metrics:  metricsSvc,
		config:   cfg,
	}
}

// Select tries each available model of provider in registry order and returns
// the first successful result together with the model that produced it.
//
// Returns ErrNoAvailableModel when the registry has nothing to offer and
// ErrAllModelsFailed (wrapping the last failure) when every attempt failed.
// If ctx itself is cancelled the loop stops and ctx.Err() is returned; the
// interrupted model is not suspended.
func (s *Selector) Select(ctx context.Context, provider string, invoke InvokeFunc) (string, string, error) {
	models, err := s.registry.ListAvailable(ctx, provider)
	if err != nil {
		return "", "", fmt.Errorf("list models: %w", err)
	}
	if len(models) == 0 {
		return "", "", fmt.Errorf("%w for %s", ErrNoAvailableModel, provider)
	}

	var lastErr error
	for _, model := range models {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}

		start := time.Now()
		text, err := s.attempt(ctx, model, invoke)
		latency := time.Since(start)

		if err == nil {
			s.record(ctx, provider, model, latency, true)
			slog.Info("model attempt succeeded",
				slog.String("provider", provider),
				slog.String("model", model),
				slog.Int64("duration_ms", latency.Milliseconds()),
			)
			return text, model, nil
		}

		// The parent gave up; this model did nothing wrong.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", "", ctxErr
		}

		s.record(ctx, provider, model, latency, false)
		slog.Warn("model attempt failed",
			slog.String("provider", provider),
			slog.String("model", model),
			slog.String("class", string(ClassifyFailure(err))),
			slog.String("error", err.Error()),
		)
		if recErr := s.registry.RecordFailure(ctx, provider, model, err.Error()); recErr != nil {
			slog.Error("failed to record model failure",
				slog.String("provider", provider),
				slog.String("model", model),
				slog.String("error", recErr.Error()),
			)
		}
		lastErr = err
	}

	return "", "", fmt.Errorf("%w for %s: %w", ErrAllModelsFailed, provider, lastErr)
}

func (s *Selector) attempt(ctx context.Context, model string, invoke InvokeFunc) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.config.AttemptTimeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := invoke(attemptCtx, model)
		done <- result{text: text, err: err}
	}()

	// An invoke that ignores its context is abandoned at the deadline.
	var r result
	select {
	case r = <-done:
	case <-attemptCtx.Done():
		return "", fmt.Errorf("attempt on %s: %w", model, attemptCtx.Err())
	}

	if r.err != nil {
		return "", r.err
	}
	if strings.TrimSpace(r.text) == "" {
		return "", ErrEmptyResult
	}
	return r.text, nil
}

func (s *Selector) record(ctx context.Context, provider, model string, latency time.Duration, success bool) {
	if s.metrics != nil {
		s.metrics.RecordModelAttempt(ctx, provider, model, latency, success)
	}
}
