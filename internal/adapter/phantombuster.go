package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/amishk599/careerscout/internal/model"
)

// SourcePhantomBuster is the second fallback source.
const SourcePhantomBuster = "phantombuster"

const phantomBusterBaseURL = "https://api.phantombuster.com"

type phantomOutput struct {
	Output       json.RawMessage `json:"output"`
	ResultObject string          `json:"resultObject"`
}

// PhantomBusterAdapter reads the latest export of a scheduled PhantomBuster
// LinkedIn jobs agent. The agent runs on its own schedule; the query only
// bounds how many rows are taken.
type PhantomBusterAdapter struct {
	baseURL string
	apiKey  string
	agentID string
	client  *http.Client
}

// NewPhantomBusterAdapter creates a PhantomBuster client for one agent.
func NewPhantomBusterAdapter(baseURL, apiKey, agentID string, client *http.Client) *PhantomBusterAdapter {
	if baseURL == "" {
		baseURL = phantomBusterBaseURL
	}
	return &PhantomBusterAdapter{baseURL: baseURL, apiKey: apiKey, agentID: agentID, client: client}
}

// Name returns the source name.
func (a *PhantomBusterAdapter) Name() string { return SourcePhantomBuster }

// Discover fetches the agent output and normalizes its rows.
func (a *PhantomBusterAdapter) Discover(ctx context.Context, q model.Query) ([]model.JobRecord, error) {
	body, err := json.Marshal(map[string]string{"id": a.agentID})
	if err != nil {
		return nil, fmt.Errorf("phantombuster fetch for agent %s: %w", a.agentID, err)
	}

	endpoint := a.baseURL + "/api/v2/agents/fetch-output"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("phantombuster fetch for agent %s: %w", a.agentID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Phantombuster-Key", a.apiKey)

	var out phantomOutput
	if err := doJSON(a.client, SourcePhantomBuster, req, &out); err != nil {
		return nil, err
	}

	rows := decodePhantomRows(out)
	jobs := make([]model.JobRecord, 0, len(rows))
	for _, row := range rows {
		jobURL := canonicalJobURL(rowString(row, "jobUrl", "url", "link", "jobLink"))
		if jobURL == "" {
			continue
		}
		jobs = append(jobs, model.JobRecord{
			JobURL:             jobURL,
			Title:              extractText(rowString(row, "jobTitle", "title")),
			CompanyName:        extractText(rowString(row, "companyName", "company")),
			CompanyLinkedInURL: model.NormalizeURL(rowString(row, "companyUrl", "companyLinkedinUrl")),
			Location:           rowString(row, "location", "jobLocation"),
			DatePosted:         parseDate(rowString(row, "postedAt", "publishedDate", "timestamp")),
			Source:             SourcePhantomBuster,
		})
		if q.Limit > 0 && len(jobs) >= q.Limit {
			break
		}
	}

	if len(jobs) == 0 {
		return nil, emptyResult(SourcePhantomBuster)
	}
	return jobs, nil
}

// decodePhantomRows reads rows from "output" when it is an array, otherwise
// from "resultObject", which the API returns as a JSON-encoded string.
func decodePhantomRows(out phantomOutput) []map[string]any {
	var rows []map[string]any
	if trimmed := bytes.TrimSpace(out.Output); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &rows); err == nil {
			return rows
		}
	}
	if out.ResultObject != "" {
		if err := json.Unmarshal([]byte(out.ResultObject), &rows); err == nil {
			return rows
		}
	}
	return nil
}

func rowString(row map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
