package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/amishk599/careerscout/internal/model"
)

// SourceSerpAPI is the first fallback source.
const SourceSerpAPI = "serpapi"

const serpAPIBaseURL = "https://serpapi.com"

type serpJob struct {
	Title              string `json:"title"`
	CompanyName        string `json:"company_name"`
	Location           string `json:"location"`
	Link               string `json:"link"`
	ShareLink          string `json:"share_link"`
	DetectedExtensions struct {
		PostedAt string `json:"posted_at"`
	} `json:"detected_extensions"`
}

type serpResponse struct {
	JobsResults []serpJob `json:"jobs_results"`
	Error       string    `json:"error"`
}

// SerpAPIAdapter searches LinkedIn job listings through SerpAPI.
type SerpAPIAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewSerpAPIAdapter creates a SerpAPI client. An empty baseURL uses the
// public API host.
func NewSerpAPIAdapter(baseURL, apiKey string, client *http.Client) *SerpAPIAdapter {
	if baseURL == "" {
		baseURL = serpAPIBaseURL
	}
	return &SerpAPIAdapter{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Name returns the source name.
func (a *SerpAPIAdapter) Name() string { return SourceSerpAPI }

// Discover runs a linkedin_jobs search.
func (a *SerpAPIAdapter) Discover(ctx context.Context, q model.Query) ([]model.JobRecord, error) {
	params := url.Values{}
	params.Set("engine", "linkedin_jobs")
	params.Set("q", q.Keyword)
	if q.Location != "" {
		params.Set("location", q.Location)
	}
	params.Set("api_key", a.apiKey)
	endpoint := a.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("serpapi fetch for %q: %w", q.Keyword, err)
	}

	var sr serpResponse
	if err := doJSON(a.client, SourceSerpAPI, req, &sr); err != nil {
		return nil, err
	}

	// SerpAPI reports "no results" as a 200 with an error string.
	if sr.Error != "" && len(sr.JobsResults) == 0 {
		if strings.Contains(strings.ToLower(sr.Error), "hasn't returned any results") {
			return nil, emptyResult(SourceSerpAPI)
		}
		if strings.Contains(strings.ToLower(sr.Error), "api key") {
			return nil, &model.DiscoveryError{Kind: model.DiscoveryAuthFailed, Source: SourceSerpAPI, Err: errors.New(sr.Error)}
		}
		return nil, &model.DiscoveryError{Kind: model.DiscoveryTransientNetwork, Source: SourceSerpAPI, Err: errors.New(sr.Error)}
	}

	jobs := make([]model.JobRecord, 0, len(sr.JobsResults))
	for _, sj := range sr.JobsResults {
		jobURL := canonicalJobURL(firstNonEmpty(sj.Link, sj.ShareLink))
		if jobURL == "" {
			continue
		}
		jobs = append(jobs, model.JobRecord{
			JobURL:      jobURL,
			Title:       sj.Title,
			CompanyName: sj.CompanyName,
			Location:    sj.Location,
			DatePosted:  parseDate(sj.DetectedExtensions.PostedAt),
			Source:      SourceSerpAPI,
		})
		if q.Limit > 0 && len(jobs) >= q.Limit {
			break
		}
	}

	if len(jobs) == 0 {
		return nil, emptyResult(SourceSerpAPI)
	}
	return jobs, nil
}
