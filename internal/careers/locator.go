// Package careers locates a company's career page from its website.
package careers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/amishk599/careerscout/internal/classifier"
	"github.com/amishk599/careerscout/internal/model"
)

// ProbePaths are tried against the site root, in order, before any link
// scoring happens.
var ProbePaths = []string{"/careers", "/jobs", "/careers/", "/about/careers", "/join-us"}

// Options tunes the heuristic and oracle steps.
type Options struct {
	Threshold     float64       // minimum classifier score for a heuristic match
	CloseMargin   float64       // top two scores within this margin are "close"
	MaxCandidates int           // cap on links sent to the oracle
	OracleTimeout time.Duration // hard ceiling for one oracle call
	// BrowserFallback refetches the homepage in browser mode when the plain
	// HTTP version has no career links.
	BrowserFallback bool
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Threshold:     0.4,
		CloseMargin:   0.1,
		MaxCandidates: 20,
		OracleTimeout: 90 * time.Second,
	}
}

// Locator finds a career page in four steps: conventional paths, link
// scoring on the homepage, an optional oracle, and otherwise nothing.
type Locator struct {
	fetcher model.PageFetcher
	oracle  model.RankingOracle // nil disables step three
	opts    Options
	logger  *slog.Logger
}

// NewLocator creates a locator. oracle may be nil.
func NewLocator(fetcher model.PageFetcher, oracle model.RankingOracle, opts Options, logger *slog.Logger) *Locator {
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = DefaultOptions().MaxCandidates
	}
	if opts.OracleTimeout <= 0 {
		opts.OracleTimeout = DefaultOptions().OracleTimeout
	}
	return &Locator{fetcher: fetcher, oracle: oracle, opts: opts, logger: logger}
}

// locateRun carries per-call state: the site root and what every fetched
// URL resolved to.
type locateRun struct {
	root     *url.URL
	resolved map[string]string // requested URL -> final URL, for successful fetches
}

// Locate returns the most likely career page for website. An empty result
// is a valid answer; the reason explains how it was reached.
func (l *Locator) Locate(ctx context.Context, website string) model.CareerPageResult {
	root, err := siteRoot(website)
	if err != nil {
		return model.CareerPageResult{ConfidenceReason: fmt.Sprintf("invalid website %q: %v", website, err)}
	}
	run := &locateRun{root: root, resolved: make(map[string]string)}
	site := normalizeWebsite(website)

	if res, ok := l.careerSite(ctx, run, site); ok {
		return res
	}

	res, reachable := l.probe(ctx, run)
	if res.Found() {
		return res
	}
	if err := ctx.Err(); err != nil {
		return model.CareerPageResult{ConfidenceReason: "cancelled: " + err.Error()}
	}

	page, err := l.fetcher.Fetch(ctx, root.String(), model.FetchHTTP)
	if err != nil {
		reason := fmt.Sprintf("homepage unreachable: %v", err)
		if !reachable {
			reason = fmt.Sprintf("site unreachable: %v", err)
		}
		l.logger.Debug("career page not found", "website", website, "reason", reason)
		return model.CareerPageResult{ConfidenceReason: reason}
	}
	run.resolved[root.String()] = page.FinalURL

	links := page.Links
	ranked := l.rank(run, links)
	if len(ranked) == 0 && l.opts.BrowserFallback {
		if rendered, err := l.fetcher.Fetch(ctx, root.String(), model.FetchBrowser); err == nil {
			links = rendered.Links
			ranked = l.rank(run, links)
		} else {
			l.logger.Debug("browser refetch failed", "url", root.String(), "error", err)
		}
	}

	best, hasBest := l.heuristic(ctx, run, ranked)

	if l.oracle != nil && (!hasBest || l.isClose(ranked)) {
		if res, ok := l.askOracle(ctx, run, ranked, links); ok {
			return res
		}
	}

	if hasBest {
		return model.CareerPageResult{
			URL:              best.Href,
			ConfidenceReason: fmt.Sprintf("link score %.2f for %q", best.Score, best.Text),
		}
	}
	return model.CareerPageResult{ConfidenceReason: "no career link on homepage"}
}

// careerSite accepts a website that is itself a careers host or careers path,
// as long as it still looks like one after redirects.
func (l *Locator) careerSite(ctx context.Context, run *locateRun, site string) (model.CareerPageResult, bool) {
	if !classifier.Match(model.Link{Href: site}, classifier.Career) {
		return model.CareerPageResult{}, false
	}
	page, err := l.fetcher.Fetch(ctx, site, model.FetchHTTP)
	if err != nil {
		return model.CareerPageResult{}, false
	}
	run.resolved[site] = page.FinalURL
	if !classifier.Match(model.Link{Href: page.FinalURL}, classifier.Career) {
		return model.CareerPageResult{}, false
	}
	return model.CareerPageResult{URL: page.FinalURL, ConfidenceReason: "website is a careers site"}, true
}

// probe tries the conventional paths. reachable is false when the host did
// not answer at all, in which case the remaining paths are skipped.
func (l *Locator) probe(ctx context.Context, run *locateRun) (model.CareerPageResult, bool) {
	for _, p := range ProbePaths {
		if ctx.Err() != nil {
			return model.CareerPageResult{}, true
		}
		target := run.root.ResolveReference(&url.URL{Path: p}).String()
		page, err := l.fetcher.Fetch(ctx, target, model.FetchHTTP)
		if err != nil {
			l.logger.Debug("career probe failed", "url", target, "error", err)
			if hostUnreachable(err) {
				return model.CareerPageResult{}, false
			}
			continue
		}
		run.resolved[target] = page.FinalURL
		if run.isHomepage(page.FinalURL) {
			l.logger.Debug("career probe redirected to homepage", "url", target, "final_url", page.FinalURL)
			continue
		}
		return model.CareerPageResult{URL: target, ConfidenceReason: "conventional path " + p}, true
	}
	return model.CareerPageResult{}, true
}

// rank scores homepage links and drops those pointing back at the homepage.
func (l *Locator) rank(run *locateRun, links []model.Link) []classifier.Candidate {
	ranked := classifier.Rank(links, classifier.Career)
	out := ranked[:0]
	for _, c := range ranked {
		if run.isHomepage(c.Href) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// heuristic picks the highest candidate above threshold whose target does
// not redirect back to the homepage.
func (l *Locator) heuristic(ctx context.Context, run *locateRun, ranked []classifier.Candidate) (classifier.Candidate, bool) {
	const maxChecks = 3
	checks := 0
	for _, c := range ranked {
		if c.Score < l.opts.Threshold {
			break
		}
		if checks >= maxChecks {
			break
		}
		checks++
		if l.redirectsHome(ctx, run, c.Href) {
			l.logger.Debug("career candidate redirects to homepage", "url", c.Href)
			continue
		}
		return c, true
	}
	return classifier.Candidate{}, false
}

func (l *Locator) isClose(ranked []classifier.Candidate) bool {
	if len(ranked) < 2 || ranked[1].Score < l.opts.Threshold {
		return false
	}
	return ranked[0].Score-ranked[1].Score <= l.opts.CloseMargin
}

// askOracle submits a capped candidate list and accepts the suggestion only
// if it is one of the submitted links.
func (l *Locator) askOracle(ctx context.Context, run *locateRun, ranked []classifier.Candidate, pageLinks []model.Link) (model.CareerPageResult, bool) {
	var candidates []model.Link
	if len(ranked) > 0 {
		for _, c := range ranked {
			candidates = append(candidates, c.Link)
		}
	} else {
		for _, link := range pageLinks {
			if !run.isHomepage(link.Href) {
				candidates = append(candidates, link)
			}
		}
	}
	if len(candidates) == 0 {
		return model.CareerPageResult{}, false
	}
	if len(candidates) > l.opts.MaxCandidates {
		candidates = candidates[:l.opts.MaxCandidates]
	}

	octx, cancel := context.WithTimeout(ctx, l.opts.OracleTimeout)
	defer cancel()

	start := time.Now()
	suggestion, err := l.oracle.RankLinks(octx, candidates, "Find the company's careers or jobs page.")
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNoSuggestion):
			l.logger.Debug("oracle declined", "candidates", len(candidates))
		case errors.Is(octx.Err(), context.DeadlineExceeded):
			l.logger.Warn("oracle timed out", "timeout", l.opts.OracleTimeout, "elapsed", time.Since(start).Round(time.Millisecond))
		default:
			l.logger.Warn("oracle failed", "error", err)
		}
		return model.CareerPageResult{}, false
	}

	match, ok := matchCandidate(suggestion, candidates)
	if !ok {
		l.logger.Warn("oracle suggested a link not on the page", "suggestion", suggestion)
		return model.CareerPageResult{}, false
	}
	if run.isHomepage(match.Href) || l.redirectsHome(ctx, run, match.Href) {
		l.logger.Debug("oracle suggestion redirects to homepage", "url", match.Href)
		return model.CareerPageResult{}, false
	}
	return model.CareerPageResult{
		URL:              match.Href,
		ConfidenceReason: fmt.Sprintf("oracle pick among %d candidates", len(candidates)),
	}, true
}

// redirectsHome reports whether href lands on the homepage. Fetch failures
// do not count as a redirect.
func (l *Locator) redirectsHome(ctx context.Context, run *locateRun, href string) bool {
	final, seen := run.resolved[href]
	if !seen {
		page, err := l.fetcher.Fetch(ctx, href, model.FetchHTTP)
		if err != nil {
			return false
		}
		final = page.FinalURL
		run.resolved[href] = final
	}
	return run.isHomepage(final)
}

// matchCandidate finds the candidate whose href equals suggestion, ignoring a
// trailing slash.
func matchCandidate(suggestion string, candidates []model.Link) (model.Link, bool) {
	s := strings.TrimSuffix(strings.TrimSpace(suggestion), "/")
	if s == "" {
		return model.Link{}, false
	}
	for _, c := range candidates {
		if strings.TrimSuffix(c.Href, "/") == s {
			return c, true
		}
	}
	return model.Link{}, false
}

// isHomepage reports whether raw is the site root (same host, ignoring a
// leading www., with an empty or index path).
func (r *locateRun) isHomepage(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if bareHost(u.Hostname()) != bareHost(r.root.Hostname()) {
		return false
	}
	p := strings.Trim(strings.ToLower(u.Path), "/")
	return p == "" || p == "index.html" || p == "index.php" || p == "home"
}

func bareHost(h string) string {
	return strings.TrimPrefix(strings.ToLower(h), "www.")
}

func normalizeWebsite(website string) string {
	w := strings.TrimSpace(website)
	if !strings.HasPrefix(w, "http://") && !strings.HasPrefix(w, "https://") {
		w = "https://" + w
	}
	return w
}

// siteRoot returns scheme://host/ for website.
func siteRoot(website string) (*url.URL, error) {
	u, err := url.Parse(normalizeWebsite(website))
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, errors.New("missing host")
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}, nil
}

// hostUnreachable reports a fetch failure that did not produce any HTTP
// response.
func hostUnreachable(err error) bool {
	var fe *model.FetchError
	if !errors.As(err, &fe) {
		return false
	}
	var httpErr *model.HTTPError
	return !errors.As(err, &httpErr) && fe.Kind != model.FetchBlocked
}
