package notifier

import (
	"log/slog"

	"github.com/amishk599/careerscout/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes a batch summary to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the source attempts, one line per complete result, and the
// status counts. Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(s model.BatchSummary) error {
	for _, a := range s.Attempts {
		args := []any{"run_id", s.RunID, "source", a.SourceName, "success", a.Success, "jobs", a.JobCount}
		if a.Err != nil {
			args = append(args, "kind", model.DiscoveryKind(a.Err))
		}
		n.logger.Info("source attempt", args...)
	}
	for _, r := range s.Results {
		if r.Status != model.StatusComplete {
			continue
		}
		n.logger.Info("open position found",
			"company", r.Job.CompanyName,
			"title", r.Job.Title,
			"career_page", r.CareerPage.URL,
			"position", r.Position.URL,
		)
	}
	counts := s.Counts()
	n.logger.Info("batch summary",
		"run_id", s.RunID,
		"keyword", s.Query.Keyword,
		"location", s.Query.Location,
		"jobs", len(s.Results),
		"complete", counts[model.StatusComplete],
		"partial", counts[model.StatusPartial],
		"failed", counts[model.StatusCompanyExtractionFailed],
		"exhausted", s.Exhausted,
	)
	return nil
}
