package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/amishk599/careerscout/internal/model"
)

// PlaywrightRenderer renders pages with a Chromium instance managed by
// playwright. The browser is started lazily on first use and shared by
// subsequent renders until Close.
type PlaywrightRenderer struct {
	timeout   time.Duration
	userAgent string

	once    sync.Once
	initErr error
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewPlaywrightRenderer creates a renderer with a per-page timeout.
func NewPlaywrightRenderer(timeout time.Duration, userAgent string) *PlaywrightRenderer {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &PlaywrightRenderer{timeout: timeout, userAgent: userAgent}
}

func (r *PlaywrightRenderer) start() error {
	r.once.Do(func() {
		pw, err := playwright.Run()
		if err != nil {
			r.initErr = fmt.Errorf("start playwright: %w", err)
			return
		}
		browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(true),
		})
		if err != nil {
			pw.Stop()
			r.initErr = fmt.Errorf("launch chromium: %w", err)
			return
		}
		r.pw = pw
		r.browser = browser
	})
	return r.initErr
}

// Render loads url in a fresh page and returns its rendered content.
func (r *PlaywrightRenderer) Render(ctx context.Context, url string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", fmt.Errorf("render %s: %w", url, err)
	}
	if err := r.start(); err != nil {
		return "", "", &model.FetchError{Kind: model.FetchTransient, URL: url, Err: err}
	}

	page, err := r.browser.NewPage(playwright.BrowserNewPageOptions{
		UserAgent: playwright.String(r.userAgent),
	})
	if err != nil {
		return "", "", &model.FetchError{Kind: model.FetchTransient, URL: url, Err: fmt.Errorf("new page: %w", err)}
	}
	defer page.Close()

	resp, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(r.timeout.Milliseconds())),
	})
	if err != nil {
		return "", "", &model.FetchError{Kind: model.FetchTransient, URL: url, Err: fmt.Errorf("goto: %w", err)}
	}
	if resp != nil {
		if err := statusError(url, resp.Status()); err != nil {
			return "", "", err
		}
	}

	html, err := page.Content()
	if err != nil {
		return "", "", &model.FetchError{Kind: model.FetchTransient, URL: url, Err: fmt.Errorf("read content: %w", err)}
	}
	return html, page.URL(), nil
}

// Close shuts down the browser and the playwright driver if they were started.
func (r *PlaywrightRenderer) Close() error {
	if r.browser != nil {
		if err := r.browser.Close(); err != nil {
			return err
		}
	}
	if r.pw != nil {
		return r.pw.Stop()
	}
	return nil
}
