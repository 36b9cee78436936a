// Package scheduler repeats a batch on a fixed interval until shutdown.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Task runs one batch. An error is logged and the next tick proceeds.
type Task func(ctx context.Context) error

// Cleaner prunes stored results older than a cutoff.
type Cleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Scheduler owns the watch loop: it runs the task, waits the interval, and
// runs it again. Batches never overlap.
type Scheduler struct {
	task      Task
	interval  time.Duration
	cleaner   Cleaner
	retention time.Duration
	logger    *slog.Logger
}

// NewScheduler creates a scheduler that runs task every interval. When
// cleaner is non-nil and retention is positive, stored results older than
// retention are pruned after each batch.
func NewScheduler(task Task, interval time.Duration, cleaner Cleaner, retention time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		task:      task,
		interval:  interval,
		cleaner:   cleaner,
		retention: retention,
		logger:    logger,
	}
}

// Run starts the loop. It runs one immediate batch, then waits the configured
// interval between batches. It returns nil when ctx is cancelled (graceful
// shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	for {
		s.runOnce(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	if err := s.task(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("batch failed", "error", err)
	}
	s.logger.Debug("batch finished", "elapsed", time.Since(start).Round(time.Millisecond))

	if s.cleaner == nil || s.retention <= 0 || ctx.Err() != nil {
		return
	}
	removed, err := s.cleaner.Cleanup(ctx, s.retention)
	if err != nil {
		s.logger.Warn("cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("pruned stored results", "removed", removed, "older_than", s.retention.String())
	}
}
