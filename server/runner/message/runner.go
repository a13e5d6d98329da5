// Package message runs inbound WhatsApp messages in the background so the
// webhook can acknowledge a delivery before any model is consulted.
package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/wabot/plugin/ai/timeout"
	"github.com/hrygo/wabot/plugin/whatsapp"
	"github.com/hrygo/wabot/server/internal/observability"
)

var (
	// ErrClosed is returned by Submit after Shutdown has been called.
	ErrClosed = errors.New("message runner is shut down")
	// ErrQueueFull is returned by Submit when too many jobs are waiting.
	ErrQueueFull = errors.New("message queue is full")
)

// Handler processes one message and reports its outcome.
type Handler interface {
	HandleMessage(ctx context.Context, msg whatsapp.Message, phoneNumberID string) string
}

// Config configures a Runner.
type Config struct {
	// MaxConcurrent is the number of jobs processed at once (default: 8).
	MaxConcurrent int
	// MaxPending bounds the jobs admitted but not yet finished (default: 32 * MaxConcurrent).
	MaxPending int
	// MessageTimeout bounds the handling of a single message (default: timeout.MessageTimeout).
	MessageTimeout time.Duration
}

// Runner processes the messages of each webhook delivery in order, running
// deliveries concurrently up to MaxConcurrent.
type Runner struct {
	handler Handler
	metrics *observability.Metrics
	config  Config
	sem     *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	pending atomic.Int64
}

// NewRunner creates a Runner. metrics may be nil.
func NewRunner(handler Handler, metrics *observability.Metrics, cfg Config) *Runner {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 8
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = 32 * cfg.MaxConcurrent
	}
	if cfg.MessageTimeout <= 0 {
		cfg.MessageTimeout = timeout.MessageTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		handler: handler,
		metrics: metrics,
		config:  cfg,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit schedules deliveries as one job and returns its id. It never waits
// for processing.
func (r *Runner) Submit(deliveries []whatsapp.Delivery) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		r.reject(deliveries)
		return "", ErrClosed
	}
	if r.pending.Load() >= int64(r.config.MaxPending) {
		r.reject(deliveries)
		return "", ErrQueueFull
	}

	jobID := shortuuid.New()
	r.pending.Add(1)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.pending.Add(-1)
		r.run(jobID, deliveries)
	}()
	return jobID, nil
}

// Pending returns the number of admitted jobs that have not finished.
func (r *Runner) Pending() int64 {
	return r.pending.Load()
}

// Shutdown stops accepting jobs and waits for running ones. When ctx expires
// first, in-flight handlers are cancelled and ctx.Err() is returned once they
// have returned.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}

func (r *Runner) run(jobID string, deliveries []whatsapp.Delivery) {
	if err := r.sem.Acquire(r.ctx, 1); err != nil {
		slog.Warn("message job abandoned", "job_id", jobID, "error", err)
		r.reject(deliveries)
		return
	}
	defer r.sem.Release(1)

	start := time.Now()
	for _, d := range deliveries {
		r.handle(jobID, d)
	}
	slog.Debug("message job finished",
		"job_id", jobID,
		"messages", len(deliveries),
		"duration_ms", time.Since(start).Milliseconds())
}

func (r *Runner) handle(jobID string, d whatsapp.Delivery) {
	ctx, cancel := context.WithTimeout(r.ctx, r.config.MessageTimeout)
	defer cancel()

	if r.metrics != nil {
		r.metrics.InFlight(1)
		defer r.metrics.InFlight(-1)
	}

	outcome := observability.OutcomeFailed
	defer func() {
		if p := recover(); p != nil {
			slog.Error("message handler panicked",
				"job_id", jobID,
				"message_id", d.Message.ID,
				"error", fmt.Sprint(p))
			outcome = observability.OutcomeFailed
		}
		if r.metrics != nil {
			r.metrics.RecordMessage(outcome)
		}
	}()

	outcome = r.handler.HandleMessage(ctx, d.Message, d.PhoneNumberID)
}

func (r *Runner) reject(deliveries []whatsapp.Delivery) {
	if r.metrics == nil {
		return
	}
	for range deliveries {
		r.metrics.RecordMessage(observability.OutcomeQueueRejected)
	}
}
