package ats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"
	leverBaseURL      = "https://api.lever.co/v0/postings"
	ashbyBaseURL      = "https://api.ashbyhq.com/posting-api/job-board"
	gemBaseURL        = "https://api.gem.com/job_board/v0"
)

type greenhouseResponse struct {
	Jobs []struct {
		Title    string `json:"title"`
		Location struct {
			Name string `json:"name"`
		} `json:"location"`
		AbsoluteURL string `json:"absolute_url"`
		UpdatedAt   string `json:"updated_at"`
	} `json:"jobs"`
}

func (c *Client) greenhouse(ctx context.Context, token string) ([]Opening, error) {
	var resp greenhouseResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s/jobs", greenhouseBaseURL, token), "greenhouse "+token, &resp); err != nil {
		return nil, err
	}
	out := make([]Opening, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		out = append(out, Opening{
			Title:    j.Title,
			Location: j.Location.Name,
			URL:      j.AbsoluteURL,
			PostedAt: parseTime(j.UpdatedAt),
		})
	}
	return out, nil
}

type leverJob struct {
	Text       string `json:"text"`
	Categories struct {
		Location     string   `json:"location"`
		AllLocations []string `json:"allLocations"`
	} `json:"categories"`
	CreatedAt int64  `json:"createdAt"`
	HostedURL string `json:"hostedUrl"`
}

func (c *Client) lever(ctx context.Context, slug string) ([]Opening, error) {
	var jobs []leverJob
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s?mode=json", leverBaseURL, slug), "lever "+slug, &jobs); err != nil {
		return nil, err
	}
	out := make([]Opening, 0, len(jobs))
	for _, j := range jobs {
		location := j.Categories.Location
		if len(j.Categories.AllLocations) > 0 {
			location = strings.Join(j.Categories.AllLocations, ", ")
		}
		var postedAt *time.Time
		if j.CreatedAt > 0 {
			t := time.UnixMilli(j.CreatedAt).UTC()
			postedAt = &t
		}
		out = append(out, Opening{Title: j.Text, Location: location, URL: j.HostedURL, PostedAt: postedAt})
	}
	return out, nil
}

type ashbyResponse struct {
	Jobs []struct {
		Title       string `json:"title"`
		Location    string `json:"location"`
		JobURL      string `json:"jobUrl"`
		PublishedAt string `json:"publishedAt"`
		IsListed    bool   `json:"isListed"`
	} `json:"jobs"`
}

func (c *Client) ashby(ctx context.Context, token string) ([]Opening, error) {
	var resp ashbyResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s", ashbyBaseURL, token), "ashby "+token, &resp); err != nil {
		return nil, err
	}
	out := make([]Opening, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		if !j.IsListed {
			continue
		}
		out = append(out, Opening{Title: j.Title, Location: j.Location, URL: j.JobURL, PostedAt: parseTime(j.PublishedAt)})
	}
	return out, nil
}

type gemJob struct {
	Title    string `json:"title"`
	Location struct {
		Name string `json:"name"`
	} `json:"location"`
	AbsoluteURL    string `json:"absolute_url"`
	FirstPublished string `json:"first_published_at"`
}

func (c *Client) gem(ctx context.Context, token string) ([]Opening, error) {
	var jobs []gemJob
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s/job_posts/", gemBaseURL, token), "gem "+token, &jobs); err != nil {
		return nil, err
	}
	out := make([]Opening, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, Opening{Title: j.Title, Location: j.Location.Name, URL: j.AbsoluteURL, PostedAt: parseTime(j.FirstPublished)})
	}
	return out, nil
}

// Workday only needs the first page: the pipeline picks a single posting.
const workdayPageSize = 20

type workdayListingRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

type workdayListingResponse struct {
	Total       int `json:"total"`
	JobPostings []struct {
		Title         string `json:"title"`
		ExternalPath  string `json:"externalPath"`
		LocationsText string `json:"locationsText"`
	} `json:"jobPostings"`
}

func (c *Client) workday(ctx context.Context, b Board) ([]Opening, error) {
	label := "workday " + b.Token
	body, err := json.Marshal(workdayListingRequest{AppliedFacets: map[string]any{}, Limit: workdayPageSize})
	if err != nil {
		return nil, fmt.Errorf("%s marshal: %w", label, err)
	}

	endpoint := fmt.Sprintf("https://%s/wday/cxs/%s/%s/jobs", b.Host, b.Token, b.Site)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", label, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var resp workdayListingResponse
	if err := c.do(req, label, &resp); err != nil {
		return nil, err
	}
	out := make([]Opening, 0, len(resp.JobPostings))
	for _, p := range resp.JobPostings {
		if p.ExternalPath == "" {
			continue
		}
		out = append(out, Opening{
			Title:    p.Title,
			Location: p.LocationsText,
			URL:      fmt.Sprintf("https://%s/%s%s", b.Host, b.Site, p.ExternalPath),
		})
	}
	return out, nil
}
