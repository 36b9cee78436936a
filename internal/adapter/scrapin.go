package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/amishk599/careerscout/internal/model"
)

// SourceScrapin is the primary discovery source.
const SourceScrapin = "scrapin"

const scrapinBaseURL = "https://api.scrapin.io"

// scrapinJob is one job in the Scrapin search response. The API has shipped
// several field spellings; all are accepted.
type scrapinJob struct {
	URL         string          `json:"url"`
	JobURL      string          `json:"job_url"`
	Link        string          `json:"link"`
	Title       string          `json:"title"`
	CompanyName string          `json:"company_name"`
	Company     json.RawMessage `json:"company"`
	CompanyURL  string          `json:"company_linkedin_url"`
	Location    string          `json:"location"`
	PostedAt    string          `json:"posted_at"`
	DatePosted  string          `json:"date_posted"`
}

// scrapinCompany is the company object embedded in job and job-detail responses.
type scrapinCompany struct {
	Name           string `json:"name"`
	Website        string `json:"website"`
	WebsiteURL     string `json:"websiteUrl"`
	WebsiteURLAlt  string `json:"website_url"`
	LinkedInURL    string `json:"linkedInUrl"`
	LinkedInURLAlt string `json:"linkedin_url"`
}

// scrapinJobDetail is the /linkedin/job response.
type scrapinJobDetail struct {
	Company *scrapinCompany `json:"company"`
	Job     *struct {
		Company *scrapinCompany `json:"company"`
	} `json:"job"`
}

// ScrapinAdapter searches LinkedIn jobs through the Scrapin API. It also
// serves as the structured company-data API for the company resolver.
type ScrapinAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var (
	_ model.SourceAdapter  = (*ScrapinAdapter)(nil)
	_ model.CompanyDataAPI = (*ScrapinAdapter)(nil)
)

// NewScrapinAdapter creates a Scrapin client. An empty baseURL uses the
// public API host.
func NewScrapinAdapter(baseURL, apiKey string, client *http.Client) *ScrapinAdapter {
	if baseURL == "" {
		baseURL = scrapinBaseURL
	}
	return &ScrapinAdapter{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Name returns the source name.
func (a *ScrapinAdapter) Name() string { return SourceScrapin }

// Discover searches for jobs matching the query.
func (a *ScrapinAdapter) Discover(ctx context.Context, q model.Query) ([]model.JobRecord, error) {
	params := url.Values{}
	params.Set("keyword", q.Keyword)
	if q.Location != "" {
		params.Set("location", q.Location)
	}
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("apikey", a.apiKey)
	endpoint := a.baseURL + "/linkedin/search/jobs?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("scrapin fetch for %q: %w", q.Keyword, err)
	}
	req.Header.Set("Accept", "application/json")

	var raw json.RawMessage
	if err := doJSON(a.client, SourceScrapin, req, &raw); err != nil {
		return nil, err
	}

	items, err := decodeScrapinJobs(raw)
	if err != nil {
		return nil, &model.DiscoveryError{Kind: model.DiscoveryTransientNetwork, Source: SourceScrapin, Err: err}
	}

	jobs := make([]model.JobRecord, 0, len(items))
	for _, it := range items {
		jobURL := canonicalJobURL(firstNonEmpty(it.URL, it.JobURL, it.Link))
		if jobURL == "" {
			continue
		}
		company := it.company()
		jobs = append(jobs, model.JobRecord{
			JobURL:             jobURL,
			Title:              it.Title,
			CompanyName:        firstNonEmpty(it.CompanyName, company.Name),
			CompanyLinkedInURL: model.NormalizeURL(firstNonEmpty(it.CompanyURL, company.LinkedInURL, company.LinkedInURLAlt)),
			CompanyWebsite:     model.NormalizeURL(firstNonEmpty(company.Website, company.WebsiteURL, company.WebsiteURLAlt)),
			Location:           it.Location,
			DatePosted:         parseDate(firstNonEmpty(it.PostedAt, it.DatePosted)),
			Source:             SourceScrapin,
		})
		if q.Limit > 0 && len(jobs) >= q.Limit {
			break
		}
	}

	if len(jobs) == 0 {
		return nil, emptyResult(SourceScrapin)
	}
	return jobs, nil
}

// decodeScrapinJobs accepts a bare array or an object wrapping the array in
// "jobs" or "results".
func decodeScrapinJobs(raw json.RawMessage) ([]scrapinJob, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []scrapinJob
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode job list: %w", err)
		}
		return items, nil
	}

	var wrapped struct {
		Jobs    []scrapinJob `json:"jobs"`
		Results []scrapinJob `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode job envelope: %w", err)
	}
	if len(wrapped.Jobs) > 0 {
		return wrapped.Jobs, nil
	}
	return wrapped.Results, nil
}

// company decodes the "company" field, which is either a name or an object.
func (j scrapinJob) company() scrapinCompany {
	var c scrapinCompany
	if len(j.Company) == 0 {
		return c
	}
	var name string
	if err := json.Unmarshal(j.Company, &name); err == nil {
		c.Name = name
		return c
	}
	_ = json.Unmarshal(j.Company, &c)
	return c
}

// ResolveCompany looks up the employer behind a job posting URL.
func (a *ScrapinAdapter) ResolveCompany(ctx context.Context, jobURL string) (model.CompanyInfo, error) {
	params := url.Values{}
	params.Set("url", jobURL)
	params.Set("apikey", a.apiKey)
	endpoint := a.baseURL + "/linkedin/job?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.CompanyInfo{}, fmt.Errorf("scrapin company for %s: %w", jobURL, err)
	}
	req.Header.Set("Accept", "application/json")

	var detail scrapinJobDetail
	if err := doJSON(a.client, SourceScrapin, req, &detail); err != nil {
		return model.CompanyInfo{}, fmt.Errorf("scrapin company for %s: %w", jobURL, err)
	}

	c := detail.Company
	if c == nil && detail.Job != nil {
		c = detail.Job.Company
	}
	if c == nil || c.Name == "" {
		return model.CompanyInfo{}, fmt.Errorf("scrapin company for %s: %w", jobURL, errors.New("response has no company name"))
	}
	return model.CompanyInfo{
		Name:        c.Name,
		Website:     firstNonEmpty(c.Website, c.WebsiteURL, c.WebsiteURLAlt),
		LinkedInURL: firstNonEmpty(c.LinkedInURL, c.LinkedInURLAlt),
	}, nil
}
