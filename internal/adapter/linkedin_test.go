package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/amishk599/careerscout/internal/model"
)

// stubFetcher serves canned pages keyed by the "start" query parameter.
type stubFetcher struct {
	pages    map[string]string
	finalURL string
	err      error
	calls    []string
}

func (s *stubFetcher) Fetch(_ context.Context, rawURL string, _ model.FetchMode) (model.Page, error) {
	s.calls = append(s.calls, rawURL)
	if s.err != nil {
		return model.Page{}, s.err
	}
	u, _ := url.Parse(rawURL)
	final := rawURL
	if s.finalURL != "" {
		final = s.finalURL
	}
	return model.Page{URL: rawURL, FinalURL: final, HTML: s.pages[u.Query().Get("start")]}, nil
}

func cardHTML(ids ...int) string {
	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, `<li><div class="base-card">
			<a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/engineer-%d?trk=x">link</a>
			<h3>Engineer %d</h3>
			<h4><a href="https://www.linkedin.com/company/acme-%d?trk=y">Acme %d</a></h4>
			<span class="job-search-card__location">Remote</span>
			<time datetime="2026-02-1%d">1 day ago</time>
		</div></li>`, 1000000+id, id, id, id, id%10)
	}
	return b.String()
}

func TestLinkedInDiscover_GuestPaging(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{
		"0":  cardHTML(1, 2),
		"25": cardHTML(2, 3),
		"50": "",
	}}
	a := NewLinkedInAdapter("https://www.linkedin.com", true, 5, f)

	jobs, err := a.Discover(context.Background(), model.Query{Keyword: "go", Location: "Remote", Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 deduplicated jobs, got %d", len(jobs))
	}
	if len(f.calls) != 3 {
		t.Errorf("expected paging to stop at the empty page, got %d calls", len(f.calls))
	}
	if !strings.Contains(f.calls[0], "/jobs-guest/jobs/api/seeMoreJobPostings/search") {
		t.Errorf("unexpected endpoint %s", f.calls[0])
	}

	j := jobs[0]
	if j.JobURL != "https://www.linkedin.com/jobs/view/1000001/" {
		t.Errorf("JobURL = %q", j.JobURL)
	}
	if j.Title != "Engineer 1" || j.CompanyName != "Acme 1" || j.Location != "Remote" {
		t.Errorf("card not parsed: %+v", j)
	}
	if j.CompanyLinkedInURL != "https://www.linkedin.com/company/acme-1" {
		t.Errorf("CompanyLinkedInURL = %q", j.CompanyLinkedInURL)
	}
	if j.DatePosted == nil {
		t.Error("expected DatePosted from <time>")
	}
	if j.Source != SourceLinkedIn {
		t.Errorf("Source = %q", j.Source)
	}
}

func TestLinkedInDiscover_LimitAndMaxPages(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{"0": cardHTML(1, 2, 3), "25": cardHTML(4, 5)}}

	jobs, err := NewLinkedInAdapter("", true, 2, f).Discover(context.Background(), model.Query{Keyword: "go", Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 || len(f.calls) != 1 {
		t.Fatalf("expected 2 jobs from 1 page, got %d jobs from %d pages", len(jobs), len(f.calls))
	}

	f = &stubFetcher{pages: map[string]string{"0": cardHTML(1), "25": cardHTML(2), "50": cardHTML(3)}}
	jobs, _ = NewLinkedInAdapter("", true, 2, f).Discover(context.Background(), model.Query{Keyword: "go", Limit: 10})
	if len(jobs) != 2 || len(f.calls) != 2 {
		t.Fatalf("expected max_pages to cap paging, got %d jobs from %d pages", len(jobs), len(f.calls))
	}
}

func TestLinkedInDiscover_SearchPageWithoutGuestAPI(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{"": cardHTML(1)}}
	jobs, err := NewLinkedInAdapter("", false, 3, f).Discover(context.Background(), model.Query{Keyword: "go", Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 || len(f.calls) != 1 {
		t.Fatalf("got %d jobs from %d pages", len(jobs), len(f.calls))
	}
	if !strings.Contains(f.calls[0], "/jobs/search/") {
		t.Errorf("unexpected endpoint %s", f.calls[0])
	}
}

func TestLinkedInDiscover_AuthWall(t *testing.T) {
	f := &stubFetcher{finalURL: "https://www.linkedin.com/authwall?trk=gf", pages: map[string]string{}}
	_, err := NewLinkedInAdapter("", true, 2, f).Discover(context.Background(), model.Query{Keyword: "go"})
	if kind := discoveryKind(t, err); kind != model.DiscoveryAuthFailed {
		t.Errorf("kind = %s, want auth_failed", kind)
	}
}

func TestLinkedInDiscover_FetchErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want model.DiscoveryErrorKind
	}{
		{"999", &model.FetchError{Kind: model.FetchBlocked, Err: &model.HTTPError{StatusCode: 999}}, model.DiscoveryRateLimited},
		{"403", &model.FetchError{Kind: model.FetchBlocked, Err: &model.HTTPError{StatusCode: http.StatusForbidden}}, model.DiscoveryAuthFailed},
		{"429", &model.FetchError{Kind: model.FetchTransient, Err: &model.HTTPError{StatusCode: http.StatusTooManyRequests}}, model.DiscoveryRateLimited},
		{"503", &model.FetchError{Kind: model.FetchTransient, Err: &model.HTTPError{StatusCode: http.StatusServiceUnavailable}}, model.DiscoveryTransientNetwork},
		{"404", &model.FetchError{Kind: model.FetchNotFound}, model.DiscoveryEmptyResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &stubFetcher{err: tt.err}
			_, err := NewLinkedInAdapter("", true, 2, f).Discover(context.Background(), model.Query{Keyword: "go"})
			if kind := discoveryKind(t, err); kind != tt.want {
				t.Errorf("kind = %s, want %s", kind, tt.want)
			}
		})
	}
}

func TestLinkedInDiscover_NoCards(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{"0": `<html><body><a href="/legal">Legal</a></body></html>`}}
	_, err := NewLinkedInAdapter("", true, 2, f).Discover(context.Background(), model.Query{Keyword: "go"})
	if kind := discoveryKind(t, err); kind != model.DiscoveryEmptyResult {
		t.Errorf("kind = %s, want empty_result", kind)
	}
}
