package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type countingTask struct {
	calls atomic.Int32
	err   error
}

func (c *countingTask) run(_ context.Context) error {
	c.calls.Add(1)
	return c.err
}

type recordingCleaner struct {
	calls     atomic.Int32
	olderThan atomic.Int64
	err       error
}

func (c *recordingCleaner) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	c.calls.Add(1)
	c.olderThan.Store(int64(olderThan))
	return 3, c.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runFor(t *testing.T, s *Scheduler, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(d)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not return within 2s after cancel")
	}
}

func TestRun_CancelReturnsPromptly(t *testing.T) {
	task := &countingTask{}
	s := NewScheduler(task.run, time.Hour, nil, 0, discardLogger())

	runFor(t, s, 100*time.Millisecond)

	if got := task.calls.Load(); got != 1 {
		t.Errorf("task calls = %d, want exactly the immediate run", got)
	}
}

func TestRun_RepeatsOnInterval(t *testing.T) {
	task := &countingTask{}
	s := NewScheduler(task.run, 100*time.Millisecond, nil, 0, discardLogger())

	// Allow time for at least two full passes (run → sleep interval → run).
	runFor(t, s, 250*time.Millisecond)

	if got := task.calls.Load(); got < 2 {
		t.Errorf("task calls = %d, want >= 2", got)
	}
}

func TestRun_TaskErrorDoesNotStopLoop(t *testing.T) {
	task := &countingTask{err: errors.New("all sources exhausted")}
	s := NewScheduler(task.run, 50*time.Millisecond, nil, 0, discardLogger())

	runFor(t, s, 180*time.Millisecond)

	if got := task.calls.Load(); got < 2 {
		t.Errorf("task calls = %d, want >= 2 after a failing batch", got)
	}
}

func TestRun_CleanupAfterEachBatch(t *testing.T) {
	task := &countingTask{}
	cleaner := &recordingCleaner{}
	s := NewScheduler(task.run, time.Hour, cleaner, 72*time.Hour, discardLogger())

	runFor(t, s, 100*time.Millisecond)

	if got := cleaner.calls.Load(); got != 1 {
		t.Errorf("cleanup calls = %d, want 1", got)
	}
	if got := time.Duration(cleaner.olderThan.Load()); got != 72*time.Hour {
		t.Errorf("cleanup olderThan = %v, want 72h", got)
	}
}

func TestRun_NoCleanupWithoutRetention(t *testing.T) {
	task := &countingTask{}
	cleaner := &recordingCleaner{}
	s := NewScheduler(task.run, time.Hour, cleaner, 0, discardLogger())

	runFor(t, s, 100*time.Millisecond)

	if got := cleaner.calls.Load(); got != 0 {
		t.Errorf("cleanup calls = %d, want 0 when retention is unset", got)
	}
}

func TestRun_CleanupErrorIsNotFatal(t *testing.T) {
	task := &countingTask{}
	cleaner := &recordingCleaner{err: errors.New("database is locked")}
	s := NewScheduler(task.run, 50*time.Millisecond, cleaner, time.Hour, discardLogger())

	runFor(t, s, 180*time.Millisecond)

	if got := task.calls.Load(); got < 2 {
		t.Errorf("task calls = %d, want loop to continue after cleanup error", got)
	}
}
