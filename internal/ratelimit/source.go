package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/careerscout/internal/model"
)

// ThrottledAdapter is a decorator that spends a request budget before
// delegating to the wrapped SourceAdapter.
type ThrottledAdapter struct {
	inner   model.SourceAdapter
	limiter *rate.Limiter
}

// NewThrottledAdapter wraps a SourceAdapter with a token bucket allowing
// perMinute calls per minute and a burst of one. perMinute <= 0 disables
// throttling.
func NewThrottledAdapter(inner model.SourceAdapter, perMinute int) *ThrottledAdapter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &ThrottledAdapter{
		inner:   inner,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Name returns the wrapped adapter's name.
func (a *ThrottledAdapter) Name() string { return a.inner.Name() }

// Discover waits for a token, then delegates.
func (a *ThrottledAdapter) Discover(ctx context.Context, q model.Query) ([]model.JobRecord, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s request budget: %w", a.inner.Name(), err)
	}
	return a.inner.Discover(ctx, q)
}
