package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/amishk599/careerscout/internal/model"
)

// ChromeRenderer renders pages with a headless Chrome driven over the
// DevTools protocol. Requires Chrome or Chromium on the host.
type ChromeRenderer struct {
	timeout   time.Duration
	settle    time.Duration // extra wait after body is ready for client-side rendering
	userAgent string
}

// NewChromeRenderer creates a renderer with a per-page timeout.
func NewChromeRenderer(timeout time.Duration, userAgent string) *ChromeRenderer {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &ChromeRenderer{timeout: timeout, settle: 2 * time.Second, userAgent: userAgent}
}

// Render navigates to url and returns the rendered outer HTML and the final
// location after any redirects.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(r.userAgent),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, r.timeout)
	defer cancelTimeout()

	// RunResponse reports the main document response after redirects.
	resp, err := chromedp.RunResponse(browserCtx, chromedp.Navigate(url))
	if err != nil {
		return "", "", r.renderError(ctx, url, err)
	}
	if resp != nil {
		if err := statusError(url, int(resp.Status)); err != nil {
			return "", "", err
		}
	}

	var html, finalURL string
	err = chromedp.Run(browserCtx,
		chromedp.WaitReady("body"),
		chromedp.Sleep(r.settle),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", "", r.renderError(ctx, url, err)
	}
	if finalURL == "" {
		finalURL = url
	}
	return html, finalURL, nil
}

func (r *ChromeRenderer) renderError(ctx context.Context, url string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("render %s: %w", url, ctx.Err())
	}
	return &model.FetchError{Kind: model.FetchTransient, URL: url, Err: fmt.Errorf("chrome render: %w", err)}
}

// statusError classifies the document status a renderer saw. Statuses
// below 400 are not errors.
func statusError(url string, status int) error {
	if status < 400 {
		return nil
	}
	return &model.FetchError{
		Kind: model.FetchKindFromStatus(status),
		URL:  url,
		Err:  &model.HTTPError{StatusCode: status},
	}
}
