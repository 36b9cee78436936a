// Package position picks one representative open position from a career page.
package position

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/amishk599/careerscout/internal/ats"
	"github.com/amishk599/careerscout/internal/classifier"
	"github.com/amishk599/careerscout/internal/model"
)

// Options tunes extraction.
type Options struct {
	Threshold       float64
	BrowserFallback bool // refetch in browser mode when HTTP finds nothing
}

// BoardReader lists openings on a hosted ATS board.
type BoardReader interface {
	Openings(ctx context.Context, b ats.Board) ([]ats.Opening, error)
}

// Extractor returns at most one open position per career page.
type Extractor struct {
	fetcher model.PageFetcher
	boards  BoardReader // nil disables the ATS API path
	opts    Options
	logger  *slog.Logger
}

// NewExtractor creates an extractor. boards may be nil.
func NewExtractor(fetcher model.PageFetcher, boards BoardReader, opts Options, logger *slog.Logger) *Extractor {
	return &Extractor{fetcher: fetcher, boards: boards, opts: opts, logger: logger}
}

// Extract returns the best open-position link on careerPageURL. An empty
// result with a nil error means the page is live but no position was
// recognized. The error reports a page that could not be fetched.
func (e *Extractor) Extract(ctx context.Context, careerPageURL string) (model.PositionResult, error) {
	if board, ok := ats.Detect(careerPageURL); ok {
		if res, ok := e.fromBoard(ctx, board); ok {
			return res, nil
		}
	}

	page, err := e.fetcher.Fetch(ctx, careerPageURL, model.FetchHTTP)
	if err != nil {
		return model.PositionResult{}, fmt.Errorf("position fetch for %s: %w", careerPageURL, err)
	}

	if res, ok := e.best(careerPageURL, page); ok {
		return res, nil
	}

	if e.opts.BrowserFallback {
		rendered, err := e.fetcher.Fetch(ctx, careerPageURL, model.FetchBrowser)
		if err == nil {
			if res, ok := e.best(careerPageURL, rendered); ok {
				return res, nil
			}
			page.Links = append(page.Links, rendered.Links...)
		} else {
			e.logger.Debug("browser refetch failed", "url", careerPageURL, "error", err)
		}
	}

	// Many career pages only link out to an ATS board.
	for _, l := range page.Links {
		board, ok := ats.Detect(l.Href)
		if !ok {
			continue
		}
		if res, ok := e.fromBoard(ctx, board); ok {
			return res, nil
		}
		break
	}

	e.logger.Debug("no open position found", "career_page", careerPageURL, "links", len(page.Links))
	return model.PositionResult{}, nil
}

func (e *Extractor) best(careerPageURL string, page model.Page) (model.PositionResult, bool) {
	links := make([]model.Link, 0, len(page.Links))
	for _, l := range page.Links {
		if sameURL(l.Href, careerPageURL) || sameURL(l.Href, page.FinalURL) || isRoot(l.Href) || isBoardRoot(l.Href) {
			continue
		}
		links = append(links, l)
	}
	c, ok := classifier.Best(links, classifier.Position, e.opts.Threshold)
	if !ok {
		return model.PositionResult{}, false
	}
	e.logger.Debug("open position found", "career_page", careerPageURL, "url", c.Href, "score", c.Score, "text", c.Text)
	return model.PositionResult{URL: c.Href}, true
}

func (e *Extractor) fromBoard(ctx context.Context, board ats.Board) (model.PositionResult, bool) {
	if e.boards == nil {
		return model.PositionResult{}, false
	}
	openings, err := e.boards.Openings(ctx, board)
	if err != nil {
		e.logger.Warn("ats board lookup failed", "board", board.String(), "error", err)
		return model.PositionResult{}, false
	}
	for _, o := range openings {
		if o.URL != "" {
			e.logger.Debug("open position found via ats", "board", board.String(), "url", o.URL, "title", o.Title)
			return model.PositionResult{URL: o.URL}, true
		}
	}
	return model.PositionResult{}, false
}

func sameURL(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}

// isBoardRoot reports a link to an ATS board's index rather than a posting.
func isBoardRoot(raw string) bool {
	b, ok := ats.Detect(raw)
	if !ok {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if b.Provider == ats.Workday {
		return segs[len(segs)-1] == b.Site
	}
	return len(segs) <= 1
}

func isRoot(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.Trim(u.Path, "/") == "" && u.RawQuery == ""
}
