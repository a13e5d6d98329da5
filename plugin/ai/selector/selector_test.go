package selector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/wabot/plugin/ai/metrics"
)

func TestSelect_FirstModelSucceeds(t *testing.T) {
	reg := NewMockRegistry("openrouter", "A", "B")
	s := New(reg, nil, DefaultConfig())

	calls := &callRecorder{}
	text, model, err := s.Select(context.Background(), "openrouter", func(_ context.Context, m string) (string, error) {
		calls.add(m)
		return `{"reply":"hi"}`, nil
	})
	require.NoError(t, err)
	assert.Equal(t, `{"reply":"hi"}`, text)
	assert.Equal(t, "A", model)
	assert.Equal(t, []string{"A"}, calls.list())
	assert.Empty(t, reg.Failures())
}

func TestSelect_Failover(t *testing.T) {
	reg := NewMockRegistry("openrouter", "A", "B", "C")
	mm := metrics.NewMockMetricsService()
	s := New(reg, mm, Config{AttemptTimeout: 50 * time.Millisecond})

	calls := &callRecorder{}
	text, model, err := s.Select(context.Background(), "openrouter", func(ctx context.Context, m string) (string, error) {
		calls.add(m)
		switch m {
		case "A":
			// Exceeds the per-attempt deadline.
			<-ctx.Done()
			return "", ctx.Err()
		case "B":
			return "", errors.New("500 internal error")
		default:
			return "ok", nil
		}
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, "C", model)
	assert.Equal(t, []string{"A", "B", "C"}, calls.list())
	assert.Equal(t, []string{"A", "B"}, reg.Failures())

	attempts := mm.Attempts()
	require.Len(t, attempts, 3)
	assert.False(t, attempts[0].Success)
	assert.True(t, attempts[2].Success)

	available, err := reg.ListAvailable(context.Background(), "openrouter")
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, available)
}

func TestSelect_EmptyResultIsFailure(t *testing.T) {
	reg := NewMockRegistry("gemini", "A", "B")
	s := New(reg, nil, DefaultConfig())

	_, model, err := s.Select(context.Background(), "gemini", func(_ context.Context, m string) (string, error) {
		if m == "A" {
			return "   ", nil
		}
		return "text", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "B", model)
	assert.Equal(t, []string{"A"}, reg.Failures())
}

func TestSelect_NoAvailableModel(t *testing.T) {
	reg := NewMockRegistry("openrouter")
	s := New(reg, nil, DefaultConfig())

	var called atomic.Bool
	_, _, err := s.Select(context.Background(), "openrouter", func(context.Context, string) (string, error) {
		called.Store(true)
		return "x", nil
	})
	assert.ErrorIs(t, err, ErrNoAvailableModel)
	assert.False(t, called.Load())
}

func TestSelect_AllModelsFailed(t *testing.T) {
	reg := NewMockRegistry("openrouter", "A", "B")
	s := New(reg, nil, DefaultConfig())

	last := errors.New("quota exceeded")
	_, _, err := s.Select(context.Background(), "openrouter", func(_ context.Context, m string) (string, error) {
		if m == "B" {
			return "", last
		}
		return "", errors.New("first")
	})
	assert.ErrorIs(t, err, ErrAllModelsFailed)
	assert.ErrorIs(t, err, last)
	assert.Equal(t, []string{"A", "B"}, reg.Failures())

	// Everything is suspended now.
	_, _, err = s.Select(context.Background(), "openrouter", func(context.Context, string) (string, error) {
		return "x", nil
	})
	assert.ErrorIs(t, err, ErrNoAvailableModel)
}

func TestSelect_ParentCancellationDoesNotSuspend(t *testing.T) {
	reg := NewMockRegistry("openrouter", "A", "B")
	s := New(reg, nil, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	_, _, err := s.Select(ctx, "openrouter", func(attemptCtx context.Context, m string) (string, error) {
		cancel()
		<-attemptCtx.Done()
		return "", attemptCtx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reg.Failures())
}

func TestSelect_InvokeIgnoringContextIsAbandoned(t *testing.T) {
	reg := NewMockRegistry("openrouter", "slow", "fast")
	s := New(reg, nil, Config{AttemptTimeout: 20 * time.Millisecond})

	release := make(chan struct{})
	defer close(release)

	_, model, err := s.Select(context.Background(), "openrouter", func(_ context.Context, m string) (string, error) {
		if m == "slow" {
			<-release
			return "late", nil
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fast", model)
	assert.Equal(t, []string{"slow"}, reg.Failures())
}

func TestSelect_ListError(t *testing.T) {
	reg := NewMockRegistry("openrouter", "A")
	reg.ListErr = errors.New("db down")
	s := New(reg, nil, DefaultConfig())

	_, _, err := s.Select(context.Background(), "openrouter", func(context.Context, string) (string, error) {
		return "x", nil
	})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoAvailableModel)
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureClass
	}{
		{"empty", ErrEmptyResult, FailureEmpty},
		{"invalid", &InvalidOutputError{Err: errors.New("not json")}, FailureInvalid},
		{"deadline", context.DeadlineExceeded, FailureTimeout},
		{"refused", errors.New("dial tcp: connection refused"), FailureNetwork},
		{"api", errors.New("error, status code: 429"), FailureAPI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFailure(tt.err))
		})
	}
}

type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) add(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, model)
}

func (r *callRecorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}
