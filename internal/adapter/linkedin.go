package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/amishk599/careerscout/internal/model"
)

// SourceLinkedIn is the last-resort scraping source.
const SourceLinkedIn = "linkedin_scrape"

const (
	linkedInBaseURL  = "https://www.linkedin.com"
	linkedInPageSize = 25
)

// LinkedInAdapter scrapes LinkedIn job search results. With guestAPI set it
// pages through the public guest endpoint; otherwise it reads the single
// logged-out search page.
type LinkedInAdapter struct {
	baseURL  string
	guestAPI bool
	maxPages int
	fetcher  model.PageFetcher
}

// NewLinkedInAdapter creates the scraping adapter. An empty baseURL targets
// linkedin.com.
func NewLinkedInAdapter(baseURL string, guestAPI bool, maxPages int, fetcher model.PageFetcher) *LinkedInAdapter {
	if baseURL == "" {
		baseURL = linkedInBaseURL
	}
	if maxPages <= 0 {
		maxPages = 1
	}
	return &LinkedInAdapter{baseURL: baseURL, guestAPI: guestAPI, maxPages: maxPages, fetcher: fetcher}
}

// Name returns the source name.
func (a *LinkedInAdapter) Name() string { return SourceLinkedIn }

// Discover scrapes job cards until limit is reached or a page comes back empty.
func (a *LinkedInAdapter) Discover(ctx context.Context, q model.Query) ([]model.JobRecord, error) {
	seen := mapset.NewThreadUnsafeSet[string]()
	var jobs []model.JobRecord

	pages := a.maxPages
	if !a.guestAPI {
		pages = 1
	}
	for p := 0; p < pages; p++ {
		pageURL := a.searchURL(q, p*linkedInPageSize)
		page, err := a.fetcher.Fetch(ctx, pageURL, model.FetchHTTP)
		if err != nil {
			if len(jobs) > 0 {
				break // keep what earlier pages produced
			}
			return nil, scrapeError(err)
		}
		if isAuthWall(page.FinalURL) {
			if len(jobs) > 0 {
				break
			}
			return nil, &model.DiscoveryError{
				Kind:   model.DiscoveryAuthFailed,
				Source: SourceLinkedIn,
				Err:    fmt.Errorf("redirected to login: %s", page.FinalURL),
			}
		}

		cards, err := parseJobCards(page.HTML, page.FinalURL)
		if err != nil {
			return nil, &model.DiscoveryError{Kind: model.DiscoveryTransientNetwork, Source: SourceLinkedIn, Err: err}
		}
		if len(cards) == 0 {
			break
		}
		for _, c := range cards {
			if seen.Contains(c.JobURL) {
				continue
			}
			seen.Add(c.JobURL)
			jobs = append(jobs, c)
			if q.Limit > 0 && len(jobs) >= q.Limit {
				return jobs, nil
			}
		}
	}

	if len(jobs) == 0 {
		return nil, emptyResult(SourceLinkedIn)
	}
	return jobs, nil
}

func (a *LinkedInAdapter) searchURL(q model.Query, start int) string {
	params := url.Values{}
	params.Set("keywords", q.Keyword)
	if q.Location != "" {
		params.Set("location", q.Location)
	}
	if a.guestAPI {
		params.Set("start", strconv.Itoa(start))
		return a.baseURL + "/jobs-guest/jobs/api/seeMoreJobPostings/search?" + params.Encode()
	}
	return a.baseURL + "/jobs/search/?" + params.Encode()
}

// parseJobCards extracts job records from a search results document. Every
// anchor pointing at /jobs/view/ is a candidate; the surrounding card, when
// present, supplies company and location.
func parseJobCards(html, pageURL string) ([]model.JobRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	var jobs []model.JobRecord
	doc.Find(`a[href*="/jobs/view/"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		jobURL := canonicalJobURL(base.ResolveReference(ref).String())
		if linkedInJobID(jobURL) == "" || seen.Contains(jobURL) {
			return
		}
		seen.Add(jobURL)

		card := s.Closest("div.base-card, div.job-search-card, li")
		title := firstNonEmpty(card.Find("h3").First().Text(), s.Text())
		companySel := card.Find("h4").First()
		job := model.JobRecord{
			JobURL:      jobURL,
			Title:       extractText(title),
			CompanyName: extractText(companySel.Text()),
			Location:    extractText(card.Find(".job-search-card__location").First().Text()),
			Source:      SourceLinkedIn,
		}
		if companyHref, ok := companySel.Find("a").Attr("href"); ok {
			if ref, err := url.Parse(companyHref); err == nil {
				u := base.ResolveReference(ref)
				u.RawQuery = ""
				job.CompanyLinkedInURL = u.String()
			}
		}
		if dt, ok := card.Find("time[datetime]").Attr("datetime"); ok {
			job.DatePosted = parseDate(dt)
		}
		jobs = append(jobs, job)
	})
	return jobs, nil
}

func isAuthWall(finalURL string) bool {
	lower := strings.ToLower(finalURL)
	return strings.Contains(lower, "/authwall") || strings.Contains(lower, "/login") ||
		strings.Contains(lower, "/checkpoint") || strings.Contains(lower, "/uas/")
}

// scrapeError maps a page fetch failure to a discovery error kind.
func scrapeError(err error) error {
	var fe *model.FetchError
	if !errors.As(err, &fe) {
		return err
	}
	kind := model.DiscoveryTransientNetwork
	switch fe.Kind {
	case model.FetchBlocked:
		kind = model.DiscoveryAuthFailed
		var httpErr *model.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == 999 {
			kind = model.DiscoveryRateLimited
		}
	case model.FetchNotFound:
		kind = model.DiscoveryEmptyResult
	case model.FetchTransient:
		var httpErr *model.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
			kind = model.DiscoveryRateLimited
		}
	}
	return &model.DiscoveryError{Kind: kind, Source: SourceLinkedIn, RetryAfter: model.RetryAfter(err), Err: err}
}
