package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/careerscout/internal/model"
)

// Slack rejects messages with more than 50 blocks.
const maxListedResults = 10

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts batch summaries to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts one message per batch.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends a single Block Kit message for the batch. Batches with no
// results are only reported when every source was exhausted.
func (s *SlackNotifier) Notify(summary model.BatchSummary) error {
	if len(summary.Results) == 0 && !summary.Exhausted {
		return nil
	}

	body, err := json.Marshal(buildPayload(summary))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	retried, err := s.post(body)
	if err != nil {
		return err
	}
	s.logger.Info("slack message sent", "run_id", summary.RunID, "results", len(summary.Results), "retried", retried)
	return nil
}

// post delivers body, retrying once when Slack answers 429.
func (s *SlackNotifier) post(body []byte) (bool, error) {
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("post to slack: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		time.Sleep(time.Duration(secs) * time.Second)

		resp2, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return true, fmt.Errorf("post to slack (retry): %w", err)
		}
		resp2.Body.Close()
		if resp2.StatusCode != http.StatusOK {
			return true, fmt.Errorf("slack returned %d on retry", resp2.StatusCode)
		}
		return true, nil
	}

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	return false, nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style,omitempty"`
}

// SendTestMessage sends a sample batch to verify the integration works.
func SendTestMessage(n model.Notifier) error {
	now := time.Now()
	summary := model.BatchSummary{
		RunID: "test-run",
		Query: model.Query{Keyword: "integration test", Location: "Everywhere", Limit: 1},
		Attempts: []model.SourceAttempt{
			{SourceName: "test", Success: true, JobCount: 1},
		},
		Results: []model.PipelineResult{
			{
				Job: model.JobRecord{
					JobURL:         "https://www.linkedin.com/jobs/view/0",
					Title:          "Test Notification",
					CompanyName:    "CareerScout",
					CompanyWebsite: "https://example.com",
					Location:       "Everywhere",
					DatePosted:     &now,
					Source:         "test",
				},
				CareerPage:   model.CareerPageResult{URL: "https://example.com/careers", ConfidenceReason: "test"},
				Position:     model.PositionResult{URL: "https://example.com/careers/test"},
				Status:       model.StatusComplete,
				DiscoveredAt: now,
			},
		},
	}
	return n.Notify(summary)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func buildPayload(s model.BatchSummary) slackPayload {
	counts := s.Counts()

	title := fmt.Sprintf("🔎 %d jobs for %q", len(s.Results), s.Query.Keyword)
	if s.Query.Location != "" {
		title += " in " + s.Query.Location
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Complete:*\n%d", counts[model.StatusComplete])},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Partial:*\n%d", counts[model.StatusPartial])},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Company unknown:*\n%d", counts[model.StatusCompanyExtractionFailed])},
				{Type: "mrkdwn", Text: "*Sources:*\n" + attemptsText(s.Attempts)},
			},
		},
	}

	if s.Exhausted {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: ":warning: All discovery sources were exhausted."},
		})
	}

	listed := 0
	for _, r := range s.Results {
		if r.Status != model.StatusComplete {
			continue
		}
		if listed == maxListedResults {
			break
		}
		listed++
		blocks = append(blocks,
			slackBlock{Type: "divider"},
			slackBlock{
				Type: "section",
				Fields: []slackText{
					{Type: "mrkdwn", Text: "*Company:*\n" + capitalize(r.Job.CompanyName)},
					{Type: "mrkdwn", Text: "*Title:*\n" + r.Job.Title},
				},
			},
			slackBlock{
				Type: "actions",
				Elements: []slackElement{
					{
						Type:  "button",
						Text:  slackText{Type: "plain_text", Text: "Open Position"},
						URL:   r.Position.URL,
						Style: "primary",
					},
					{
						Type: "button",
						Text: slackText{Type: "plain_text", Text: "Career Page"},
						URL:  r.CareerPage.URL,
					},
				},
			},
		)
	}

	if rest := counts[model.StatusComplete] - listed; rest > 0 {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("_…and %d more_", rest)},
		})
	}

	return slackPayload{Blocks: blocks}
}

func attemptsText(attempts []model.SourceAttempt) string {
	if len(attempts) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		mark := "✗"
		if a.Success {
			mark = "✓"
		}
		parts = append(parts, fmt.Sprintf("%s %s (%d)", mark, capitalize(a.SourceName), a.JobCount))
	}
	return strings.Join(parts, "\n")
}
