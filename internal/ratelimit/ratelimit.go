package ratelimit

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"sync"
	"time"
)

// HostLimiter enforces a politeness delay between consecutive requests to the
// same host. The delay for each request is drawn from [minDelay, maxDelay].
type HostLimiter struct {
	mu       sync.Mutex
	next     map[string]time.Time // key: lowercased host; earliest time the next request may start
	minDelay time.Duration
	maxDelay time.Duration
}

// NewHostLimiter creates a per-host limiter. maxDelay below minDelay is
// treated as a fixed delay of minDelay.
func NewHostLimiter(minDelay, maxDelay time.Duration) *HostLimiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &HostLimiter{
		next:     make(map[string]time.Time),
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

// Wait blocks until the given host may be contacted again, then reserves the
// slot. Reservations are taken under the lock so concurrent callers for the
// same host queue up in order instead of firing together. A caller cancelled
// while waiting gives its slot back if it is still the last in line.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	host = strings.ToLower(host)

	l.mu.Lock()
	now := time.Now()
	start := now
	if next, ok := l.next[host]; ok && next.After(now) {
		start = next
	}
	reserved := start.Add(l.delay())
	l.next[host] = reserved
	l.mu.Unlock()

	remaining := time.Until(start)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		l.release(host, start, reserved)
		return fmt.Errorf("politeness wait for %s: %w", host, ctx.Err())
	case <-timer.C:
	}
	return nil
}

// release hands an abandoned slot back when no later caller has queued
// behind it.
func (l *HostLimiter) release(host string, start, reserved time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.next[host].Equal(reserved) {
		l.next[host] = start
	}
}

// WaitURL is Wait keyed by the host of rawURL.
func (l *HostLimiter) WaitURL(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("politeness wait: invalid url %q", rawURL)
	}
	return l.Wait(ctx, u.Host)
}

func (l *HostLimiter) delay() time.Duration {
	if l.maxDelay == l.minDelay {
		return l.minDelay
	}
	spread := l.maxDelay - l.minDelay
	return l.minDelay + time.Duration(rand.Int64N(int64(spread)+1))
}
