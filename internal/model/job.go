package model

import (
	"context"
	"time"
)

// JobRecord is a job posting as produced by a discovery source. Records are
// treated as values: enrichment returns a new record instead of mutating.
type JobRecord struct {
	JobURL             string     `json:"linkedin_job_url" validate:"required,url"`
	Title              string     `json:"title"`
	CompanyName        string     `json:"company_name,omitempty"`
	CompanyLinkedInURL string     `json:"company_linkedin_url,omitempty"`
	CompanyWebsite     string     `json:"company_website,omitempty"`
	Location           string     `json:"location,omitempty"`
	DatePosted         *time.Time `json:"date_posted,omitempty"`
	Source             string     `json:"source" validate:"required"`
}

// WithCompany returns a copy of r with the company fields filled in from c.
// Empty fields in c keep the value already present on r.
func (r JobRecord) WithCompany(c CompanyInfo) JobRecord {
	out := r
	if c.Name != "" {
		out.CompanyName = c.Name
	}
	if c.Website != "" {
		out.CompanyWebsite = c.Website
	}
	if c.LinkedInURL != "" {
		out.CompanyLinkedInURL = c.LinkedInURL
	}
	return out
}

// CompanyInfo is what the company-data API (or the HTML fallback) knows about
// the employer behind a posting.
type CompanyInfo struct {
	Name        string
	Website     string
	LinkedInURL string
}

// Link is an anchor found on a page, with Href already resolved to an absolute URL.
type Link struct {
	Text string
	Href string
}

// Page is the result of a successful fetch.
type Page struct {
	URL      string // requested URL
	FinalURL string // URL after redirects
	HTML     string
	Links    []Link
}

// FetchMode selects how a page is retrieved.
type FetchMode string

const (
	FetchHTTP    FetchMode = "http"
	FetchBrowser FetchMode = "browser"
)

// CareerPageResult is the Career Page Locator's answer. An empty URL is a
// valid outcome.
type CareerPageResult struct {
	URL              string
	ConfidenceReason string
}

// Found reports whether a career page was located.
func (r CareerPageResult) Found() bool { return r.URL != "" }

// PositionResult holds at most one representative open position.
type PositionResult struct {
	URL string
}

// Found reports whether an open position was extracted.
func (r PositionResult) Found() bool { return r.URL != "" }

// Status is the externally visible outcome of one job's traversal.
type Status string

const (
	StatusComplete                Status = "complete"
	StatusPartial                 Status = "partial"
	StatusCompanyExtractionFailed Status = "company_extraction_failed"
)

// PipelineResult is the per-job unit handed to sinks and report writers.
type PipelineResult struct {
	Job          JobRecord
	CareerPage   CareerPageResult
	Position     PositionResult
	Status       Status
	Reason       string // diagnostic reason for non-complete statuses
	DiscoveredAt time.Time
}

// SourceAttempt records one adapter invocation during discovery.
type SourceAttempt struct {
	SourceName string
	Success    bool
	Err        error
	JobCount   int
}

// Query is the discovery input shared by every source adapter.
type Query struct {
	Keyword  string
	Location string
	Limit    int
}

// SourceAdapter discovers job postings from one external source.
type SourceAdapter interface {
	Name() string
	Discover(ctx context.Context, q Query) ([]JobRecord, error)
}

// PageFetcher retrieves a page and its links.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, mode FetchMode) (Page, error)
}

// CompanyDataAPI resolves company details from a job URL.
type CompanyDataAPI interface {
	ResolveCompany(ctx context.Context, jobURL string) (CompanyInfo, error)
}

// RankingOracle suggests the most relevant link among candidates. The
// suggestion is advisory and must be checked against the candidate set.
type RankingOracle interface {
	RankLinks(ctx context.Context, candidates []Link, taskHint string) (string, error)
}

// Sink persists pipeline results.
type Sink interface {
	Save(ctx context.Context, runID string, results []PipelineResult) error
}

// Notifier announces the outcome of a batch.
type Notifier interface {
	Notify(summary BatchSummary) error
}

// BatchSummary is a compact view of a finished batch for notifiers.
type BatchSummary struct {
	RunID     string
	Query     Query
	Attempts  []SourceAttempt
	Results   []PipelineResult
	Exhausted bool
}

// Counts returns the number of results per status.
func (s BatchSummary) Counts() map[Status]int {
	counts := make(map[Status]int, 3)
	for _, r := range s.Results {
		counts[r.Status]++
	}
	return counts
}

// JobFilter decides whether a discovered job should be processed.
type JobFilter interface {
	Match(job JobRecord) bool
}
