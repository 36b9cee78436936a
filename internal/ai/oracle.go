package ai

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"text/template"

	"github.com/amishk599/careerscout/internal/model"
)

// LinkOracle implements model.RankingOracle on top of an LLM. Its answer is
// advisory; callers check it against the candidates they sent.
type LinkOracle struct {
	provider      LLMProvider
	tmpl          *template.Template
	maxCandidates int
	logger        *slog.Logger
}

// NewLinkOracle creates an oracle. maxCandidates <= 0 means no cap.
func NewLinkOracle(provider LLMProvider, tmpl *template.Template, maxCandidates int, logger *slog.Logger) *LinkOracle {
	return &LinkOracle{
		provider:      provider,
		tmpl:          tmpl,
		maxCandidates: maxCandidates,
		logger:        logger,
	}
}

// RankLinks asks the model for the single best href. A "none" answer, or one
// with no usable URL, returns model.ErrNoSuggestion.
func (o *LinkOracle) RankLinks(ctx context.Context, candidates []model.Link, taskHint string) (string, error) {
	if len(candidates) == 0 {
		return "", model.ErrNoSuggestion
	}
	if o.maxCandidates > 0 && len(candidates) > o.maxCandidates {
		candidates = candidates[:o.maxCandidates]
	}

	var promptBuf bytes.Buffer
	if err := o.tmpl.Execute(&promptBuf, struct {
		Task       string
		Candidates []model.Link
	}{Task: taskHint, Candidates: candidates}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	raw, err := o.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		return "", fmt.Errorf("llm complete: %w", err)
	}

	suggestion := parseSuggestion(raw)
	if suggestion == "" {
		if o.logger != nil {
			o.logger.Debug("oracle gave no link", "response", truncate(raw, 200))
		}
		return "", model.ErrNoSuggestion
	}
	return suggestion, nil
}

var urlPattern = regexp.MustCompile("https?://[^\\s<>\"'`)\\]]+")

// parseSuggestion pulls a single URL out of a free-form model answer. It
// returns "" for "none" and for answers without a URL.
func parseSuggestion(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.Trim(s, " \t\r\n\"'`*<>")

	if strings.EqualFold(s, "none") || strings.EqualFold(strings.TrimSuffix(s, "."), "none") {
		return ""
	}
	m := urlPattern.FindString(s)
	return strings.TrimRight(m, ".,;:")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
