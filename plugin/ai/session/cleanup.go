package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

const (
	// DefaultRetentionDays is the default number of days to retain idle sessions.
	DefaultRetentionDays = 30
	// DefaultCleanupSpec is the default cron schedule of cleanup runs.
	DefaultCleanupSpec = "@daily"
)

// CleanupConfig holds configuration for the cleanup job.
type CleanupConfig struct {
	RetentionDays int    // Number of days to retain idle sessions (default: 30)
	Spec          string // Cron schedule (default: @daily)
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		RetentionDays: DefaultRetentionDays,
		Spec:          DefaultCleanupSpec,
	}
}

// CleanupJob periodically deletes sessions idle longer than the retention.
type CleanupJob struct {
	sessionSvc SessionService
	config     CleanupConfig

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewCleanupJob creates a new cleanup job.
func NewCleanupJob(svc SessionService, config CleanupConfig) *CleanupJob {
	if config.RetentionDays <= 0 {
		config.RetentionDays = DefaultRetentionDays
	}
	if config.Spec == "" {
		config.Spec = DefaultCleanupSpec
	}

	return &CleanupJob{
		sessionSvc: svc,
		config:     config,
	}
}

// Start schedules the cleanup. It is non-blocking; ctx bounds every run.
func (j *CleanupJob) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(j.config.Spec, func() { j.runLogged(ctx) }); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", j.config.Spec, err)
	}
	c.Start()

	j.cron = c
	j.running = true

	slog.Info("session cleanup job started",
		"retention_days", j.config.RetentionDays,
		"spec", j.config.Spec)

	return nil
}

// Stop stops the scheduler and waits for a running cleanup to finish.
func (j *CleanupJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}

	<-j.cron.Stop().Done()
	j.running = false

	slog.Info("session cleanup job stopped")
}

// RunOnce executes a single cleanup run immediately.
func (j *CleanupJob) RunOnce(ctx context.Context) (int64, error) {
	return j.sessionSvc.CleanupExpired(ctx, j.config.RetentionDays)
}

// IsRunning returns whether the cleanup job is currently scheduled.
func (j *CleanupJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *CleanupJob) runLogged(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if deleted, err := j.RunOnce(ctx); err != nil {
		slog.Error("session cleanup failed", "error", err)
	} else if deleted > 0 {
		slog.Info("session cleanup completed", "deleted", deleted)
	}
}
