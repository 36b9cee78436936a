package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/amishk599/careerscout/internal/model"
)

const maxResponseBytes = 10 << 20

// statusError converts a non-200 response into a DiscoveryError carrying the
// HTTP status and any Retry-After hint.
func statusError(source string, resp *http.Response) *model.DiscoveryError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	httpErr := &model.HTTPError{
		StatusCode: resp.StatusCode,
		RetryAfter: model.ParseRetryAfter(resp.Header.Get("Retry-After")),
		Err:        fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)),
	}
	return &model.DiscoveryError{
		Kind:       classifyStatus(resp.StatusCode),
		Source:     source,
		RetryAfter: httpErr.RetryAfter,
		Err:        httpErr,
	}
}

// classifyStatus maps an HTTP status from a discovery API to an error kind.
func classifyStatus(status int) model.DiscoveryErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusPaymentRequired:
		return model.DiscoveryAuthFailed
	case status == http.StatusTooManyRequests:
		return model.DiscoveryRateLimited
	default:
		return model.DiscoveryTransientNetwork
	}
}

// doJSON executes req and decodes a 200 response body into out.
func doJSON(client *http.Client, source string, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return networkError(req.Context(), source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(source, resp)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return &model.DiscoveryError{
			Kind:   model.DiscoveryTransientNetwork,
			Source: source,
			Err:    fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// networkError classifies a transport failure. Caller cancellation is
// returned as-is so it is never retried.
func networkError(ctx context.Context, source string, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return fmt.Errorf("%s request: %w", source, err)
	}
	return &model.DiscoveryError{Kind: model.DiscoveryTransientNetwork, Source: source, Err: err}
}

func emptyResult(source string) error {
	return &model.DiscoveryError{
		Kind:   model.DiscoveryEmptyResult,
		Source: source,
		Err:    errors.New("no jobs returned"),
	}
}
