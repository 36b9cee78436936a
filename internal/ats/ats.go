package ats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/amishk599/careerscout/internal/model"
)

// Provider names an applicant tracking system with a public job board API.
type Provider string

const (
	Greenhouse Provider = "greenhouse"
	Lever      Provider = "lever"
	Ashby      Provider = "ashby"
	Gem        Provider = "gem"
	Workday    Provider = "workday"
)

const maxResponseBytes = 10 << 20

// Board identifies a single company's board on a hosted ATS.
type Board struct {
	Provider Provider
	Token    string
	// Host and Site are only set for Workday, whose API lives on the
	// tenant's own subdomain.
	Host string
	Site string
}

func (b Board) String() string {
	if b.Provider == Workday {
		return fmt.Sprintf("%s:%s/%s", b.Provider, b.Host, b.Site)
	}
	return fmt.Sprintf("%s:%s", b.Provider, b.Token)
}

// Opening is one published posting on a board.
type Opening struct {
	Title    string
	Location string
	URL      string
	PostedAt *time.Time
}

var (
	workdayHostRegex = regexp.MustCompile(`^([a-z0-9-]+)\.wd\d+\.myworkdayjobs\.com$`)
	localeRegex      = regexp.MustCompile(`^[a-z]{2}-[A-Z]{2}$`)
)

// Detect reports whether rawURL points at a hosted ATS board and, if so,
// which one.
func Detect(rawURL string) (Board, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return Board{}, false
	}
	host := strings.ToLower(u.Hostname())
	segs := pathSegments(u.Path)

	switch host {
	case "boards.greenhouse.io", "job-boards.greenhouse.io", "boards.eu.greenhouse.io", "job-boards.eu.greenhouse.io":
		if token := u.Query().Get("for"); token != "" {
			return Board{Provider: Greenhouse, Token: token}, true
		}
		if len(segs) > 0 && segs[0] != "embed" {
			return Board{Provider: Greenhouse, Token: segs[0]}, true
		}
	case "jobs.lever.co", "jobs.eu.lever.co":
		if len(segs) > 0 {
			return Board{Provider: Lever, Token: segs[0]}, true
		}
	case "jobs.ashbyhq.com":
		if len(segs) > 0 {
			return Board{Provider: Ashby, Token: segs[0]}, true
		}
	case "jobs.gem.com":
		if len(segs) > 0 {
			return Board{Provider: Gem, Token: segs[0]}, true
		}
	}

	if m := workdayHostRegex.FindStringSubmatch(host); m != nil {
		if len(segs) > 0 && localeRegex.MatchString(segs[0]) {
			segs = segs[1:]
		}
		if len(segs) > 0 {
			return Board{Provider: Workday, Token: m[1], Host: host, Site: segs[0]}, true
		}
	}
	return Board{}, false
}

func pathSegments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Client reads openings from public ATS board APIs.
type Client struct {
	client *http.Client
}

// NewClient creates a new ATS client.
func NewClient(client *http.Client) *Client {
	return &Client{client: client}
}

// Openings returns the board's listed postings in the order the ATS
// returns them.
func (c *Client) Openings(ctx context.Context, b Board) ([]Opening, error) {
	switch b.Provider {
	case Greenhouse:
		return c.greenhouse(ctx, b.Token)
	case Lever:
		return c.lever(ctx, b.Token)
	case Ashby:
		return c.ashby(ctx, b.Token)
	case Gem:
		return c.gem(ctx, b.Token)
	case Workday:
		return c.workday(ctx, b)
	default:
		return nil, fmt.Errorf("unsupported ATS provider %q", b.Provider)
	}
}

// do executes req and decodes a 200 response into out. Non-200 responses
// become *model.HTTPError so retry logic can inspect them.
func (c *Client) do(req *http.Request, label string, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s fetch: %w", label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: model.ParseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("%s fetch: unexpected status %d", label, resp.StatusCode),
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w", label, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, rawURL, label string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%s request: %w", label, err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, label, out)
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
