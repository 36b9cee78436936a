package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// FetchErrorKind classifies page fetch failures.
type FetchErrorKind string

const (
	FetchTransient FetchErrorKind = "transient"
	FetchBlocked   FetchErrorKind = "blocked"
	FetchNotFound  FetchErrorKind = "not_found"
)

// FetchError is returned by every PageFetcher.
type FetchError struct {
	Kind FetchErrorKind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s (%s): %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s (%s)", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FetchKindFromStatus maps a non-2xx HTTP status to a fetch error kind.
func FetchKindFromStatus(status int) FetchErrorKind {
	switch {
	case status == http.StatusNotFound || status == http.StatusGone:
		return FetchNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden || status == 999:
		return FetchBlocked
	case status == http.StatusTooManyRequests || status >= 500:
		return FetchTransient
	default:
		return FetchNotFound
	}
}

// DiscoveryErrorKind classifies source adapter failures.
type DiscoveryErrorKind string

const (
	DiscoveryAuthFailed       DiscoveryErrorKind = "auth_failed"
	DiscoveryRateLimited      DiscoveryErrorKind = "rate_limited"
	DiscoveryEmptyResult      DiscoveryErrorKind = "empty_result"
	DiscoveryTransientNetwork DiscoveryErrorKind = "transient_network"
	DiscoveryUnsupported      DiscoveryErrorKind = "unsupported"
)

// DiscoveryError is returned by source adapters.
type DiscoveryError struct {
	Kind       DiscoveryErrorKind
	Source     string
	RetryAfter time.Duration
	Err        error
}

func (e *DiscoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s discovery (%s): %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s discovery (%s)", e.Source, e.Kind)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// ResolutionError is returned when no company name could be established.
type ResolutionError struct {
	JobURL string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("company_extraction_failed for %s: %v", e.JobURL, e.Err)
	}
	return fmt.Sprintf("company_extraction_failed for %s", e.JobURL)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// ErrAllSourcesExhausted signals that every discovery source failed or came
// back empty. It is a valid terminal outcome, not a fatal error.
var ErrAllSourcesExhausted = errors.New("all discovery sources exhausted")

// ErrNoSuggestion is returned by a ranking oracle that declines to pick a link.
var ErrNoSuggestion = errors.New("oracle returned no suggestion")

// DiscoveryKind extracts the discovery error kind from err, defaulting to
// transient_network for unclassified failures.
func DiscoveryKind(err error) DiscoveryErrorKind {
	var de *DiscoveryError
	if errors.As(err, &de) {
		return de.Kind
	}
	return DiscoveryTransientNetwork
}

// IsTransient reports whether err represents a failure worth retrying.
// Context cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	// Classified errors carry their own verdict; a per-call timeout is
	// reported as a transient kind even though it wraps a deadline error.
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind == FetchTransient
	}
	var de *DiscoveryError
	if errors.As(err, &de) {
		return de.Kind == DiscoveryRateLimited || de.Kind == DiscoveryTransientNetwork
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// RetryAfter returns the server-requested delay carried by err, if any.
func RetryAfter(err error) time.Duration {
	var de *DiscoveryError
	if errors.As(err, &de) && de.RetryAfter > 0 {
		return de.RetryAfter
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.RetryAfter
	}
	return 0
}

// ParseRetryAfter parses a Retry-After header value in seconds format.
// Returns zero if absent or unparseable.
func ParseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
