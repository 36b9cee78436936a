// Package fetch retrieves pages over plain HTTP or through a headless browser
// and normalizes them into a list of absolute links.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/amishk599/careerscout/internal/model"
	"github.com/amishk599/careerscout/internal/ratelimit"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

const maxBodyBytes = 5 << 20

// Renderer produces the rendered HTML of a page after scripts have run.
type Renderer interface {
	Render(ctx context.Context, url string) (html string, finalURL string, err error)
}

// Fetcher implements model.PageFetcher. Every request, in either mode, first
// waits on the shared per-host politeness limiter.
type Fetcher struct {
	client    *http.Client
	limiter   *ratelimit.HostLimiter
	renderer  Renderer // nil disables browser mode
	userAgent string
	logger    *slog.Logger
}

var _ model.PageFetcher = (*Fetcher)(nil)

// NewFetcher creates a fetcher. renderer may be nil, in which case browser
// mode requests are served over plain HTTP.
func NewFetcher(client *http.Client, limiter *ratelimit.HostLimiter, renderer Renderer, userAgent string, logger *slog.Logger) *Fetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Fetcher{
		client:    client,
		limiter:   limiter,
		renderer:  renderer,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Fetch retrieves url in the given mode and extracts its links.
func (f *Fetcher) Fetch(ctx context.Context, url string, mode model.FetchMode) (model.Page, error) {
	if err := f.limiter.WaitURL(ctx, url); err != nil {
		return model.Page{}, err
	}

	var (
		html, finalURL string
		err            error
	)
	if mode == model.FetchBrowser && f.renderer != nil {
		html, finalURL, err = f.renderer.Render(ctx, url)
	} else {
		if mode == model.FetchBrowser {
			f.logger.Debug("browser mode requested without renderer, using http", "url", url)
		}
		html, finalURL, err = f.get(ctx, url)
	}
	if err != nil {
		return model.Page{}, err
	}

	links, err := ExtractLinks(html, finalURL)
	if err != nil {
		return model.Page{}, &model.FetchError{Kind: model.FetchTransient, URL: url, Err: fmt.Errorf("parse html: %w", err)}
	}

	f.logger.Debug("fetched page", "url", url, "final_url", finalURL, "mode", mode, "links", len(links))
	return model.Page{URL: url, FinalURL: finalURL, HTML: html, Links: links}, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", &model.FetchError{Kind: model.FetchNotFound, URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", classifyTransportError(ctx, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", &model.FetchError{
			Kind: model.FetchKindFromStatus(resp.StatusCode),
			URL:  url,
			Err: &model.HTTPError{
				StatusCode: resp.StatusCode,
				RetryAfter: model.ParseRetryAfter(resp.Header.Get("Retry-After")),
			},
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", "", classifyTransportError(ctx, url, err)
	}
	return string(body), resp.Request.URL.String(), nil
}

// classifyTransportError maps network failures to fetch kinds. Caller
// cancellation is passed through unclassified so it is never retried.
func classifyTransportError(ctx context.Context, url string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("fetch %s: %w", url, ctx.Err())
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return &model.FetchError{Kind: model.FetchNotFound, URL: url, Err: err}
	}
	return &model.FetchError{Kind: model.FetchTransient, URL: url, Err: err}
}

// NewHTTPClient returns a client with the per-call timeout applied.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			return nil
		},
	}
}
