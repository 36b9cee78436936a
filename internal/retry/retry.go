package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/careerscout/internal/model"
)

// Policy controls how many times a transient failure is retried.
// MaxRetries is the number of additional attempts after the first failure.
// BaseDelay is the delay before the first retry, doubled on each subsequent one.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// do runs fn, retrying on transient errors with exponential backoff and jitter.
func do[T any](ctx context.Context, p Policy, logger *slog.Logger, subject string, fn func() (T, error)) (T, error) {
	var zero T

	out, err := fn()
	if err == nil {
		return out, nil
	}
	if !model.IsTransient(err) {
		return zero, err
	}

	lastErr := err
	for attempt := 1; attempt <= p.MaxRetries; attempt++ {
		delay := p.backoffDelay(attempt, lastErr)

		logger.Warn("retrying after transient error",
			"subject", subject,
			"attempt", attempt,
			"max_retries", p.MaxRetries,
			"delay", delay,
			"error", lastErr,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}

		out, err = fn()
		if err == nil {
			return out, nil
		}
		if !model.IsTransient(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// A server-provided Retry-After takes precedence.
func (p Policy) backoffDelay(attempt int, err error) time.Duration {
	if ra := model.RetryAfter(err); ra > 0 {
		return ra
	}

	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// RetryAdapter is a decorator that retries rate-limited and transient
// discovery failures before giving up on a source.
type RetryAdapter struct {
	inner  model.SourceAdapter
	policy Policy
	logger *slog.Logger
}

// NewRetryAdapter wraps a SourceAdapter with retry logic.
func NewRetryAdapter(inner model.SourceAdapter, policy Policy, logger *slog.Logger) *RetryAdapter {
	return &RetryAdapter{inner: inner, policy: policy, logger: logger}
}

// Name returns the wrapped adapter's name.
func (a *RetryAdapter) Name() string { return a.inner.Name() }

// Discover delegates with retries. auth_failed, empty_result and unsupported
// are returned immediately.
func (a *RetryAdapter) Discover(ctx context.Context, q model.Query) ([]model.JobRecord, error) {
	return do(ctx, a.policy, a.logger, a.inner.Name(), func() ([]model.JobRecord, error) {
		return a.inner.Discover(ctx, q)
	})
}

// RetryPageFetcher is a decorator that retries transient fetch errors.
// blocked and not_found are permanent and returned immediately.
type RetryPageFetcher struct {
	inner  model.PageFetcher
	policy Policy
	logger *slog.Logger
}

// NewRetryPageFetcher wraps a PageFetcher with retry logic.
func NewRetryPageFetcher(inner model.PageFetcher, policy Policy, logger *slog.Logger) *RetryPageFetcher {
	return &RetryPageFetcher{inner: inner, policy: policy, logger: logger}
}

// Fetch delegates with retries.
func (f *RetryPageFetcher) Fetch(ctx context.Context, url string, mode model.FetchMode) (model.Page, error) {
	return do(ctx, f.policy, f.logger, url, func() (model.Page, error) {
		return f.inner.Fetch(ctx, url, mode)
	})
}
