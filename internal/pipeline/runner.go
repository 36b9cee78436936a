package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/careerscout/internal/model"
)

// CompanyResolver fills in company fields on a discovered job.
type CompanyResolver interface {
	Resolve(ctx context.Context, job model.JobRecord) (model.JobRecord, error)
}

// CareerLocator finds a career page from a company website.
type CareerLocator interface {
	Locate(ctx context.Context, website string) model.CareerPageResult
}

// PositionExtractor picks one open position from a career page.
type PositionExtractor interface {
	Extract(ctx context.Context, careerPageURL string) (model.PositionResult, error)
}

// state is a job's position in the traversal. Transitions only move forward.
type state int

const (
	stateDiscovered state = iota
	stateCompanyResolved
	stateCareerPageFound
	statePositionFound
	stateCompanyExtractionFailed
	statePartial
)

func (s state) String() string {
	switch s {
	case stateDiscovered:
		return "discovered"
	case stateCompanyResolved:
		return "company_resolved"
	case stateCareerPageFound:
		return "career_page_found"
	case statePositionFound:
		return "position_found"
	case stateCompanyExtractionFailed:
		return "company_extraction_failed"
	case statePartial:
		return "partial"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// status maps a terminal state to the externally visible status.
func (s state) status() model.Status {
	switch s {
	case statePositionFound:
		return model.StatusComplete
	case stateCompanyExtractionFailed:
		return model.StatusCompanyExtractionFailed
	default:
		return model.StatusPartial
	}
}

// traversal tracks one job through the state machine.
type traversal struct {
	state  state
	result model.PipelineResult
}

func (t *traversal) advance(next state) {
	if next <= t.state {
		panic(fmt.Sprintf("pipeline: illegal transition %s -> %s", t.state, next))
	}
	t.state = next
}

func (t *traversal) stop(terminal state, reason string) model.PipelineResult {
	t.state = terminal
	t.result.Reason = reason
	return t.finish()
}

func (t *traversal) finish() model.PipelineResult {
	t.result.Status = t.state.status()
	return t.result
}

// Runner takes discovered jobs through company resolution, career page
// location and position extraction.
type Runner struct {
	resolver  CompanyResolver
	locator   CareerLocator
	extractor PositionExtractor
	logger    *slog.Logger
	now       func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(resolver CompanyResolver, locator CareerLocator, extractor PositionExtractor, logger *slog.Logger) *Runner {
	return &Runner{
		resolver:  resolver,
		locator:   locator,
		extractor: extractor,
		logger:    logger,
		now:       time.Now,
	}
}

// Process runs a single job to a terminal state. Stage failures become a
// status and a reason, never an error.
func (r *Runner) Process(ctx context.Context, job model.JobRecord) model.PipelineResult {
	t := &traversal{
		state:  stateDiscovered,
		result: model.PipelineResult{Job: job, DiscoveredAt: r.now().UTC()},
	}

	resolved, err := r.resolver.Resolve(ctx, job)
	if err != nil {
		r.logger.Warn("company resolution failed", "job_url", job.JobURL, "error", err)
		return t.stop(stateCompanyExtractionFailed, err.Error())
	}
	t.result.Job = resolved
	t.advance(stateCompanyResolved)

	if resolved.CompanyWebsite == "" {
		return t.stop(statePartial, "company website unknown")
	}

	cp := r.locator.Locate(ctx, resolved.CompanyWebsite)
	t.result.CareerPage = cp
	if !cp.Found() {
		return t.stop(statePartial, "career page not found: "+cp.ConfidenceReason)
	}
	t.advance(stateCareerPageFound)

	pos, err := r.extractor.Extract(ctx, cp.URL)
	if err != nil {
		return t.stop(statePartial, "career page unreachable: "+err.Error())
	}
	if !pos.Found() {
		return t.stop(statePartial, "no open position on career page")
	}
	t.result.Position = pos
	t.advance(statePositionFound)

	return t.finish()
}

// Run processes jobs in order. Cancellation is checked between jobs only; on
// cancellation the results gathered so far are returned with ctx's error.
func (r *Runner) Run(ctx context.Context, jobs []model.JobRecord) ([]model.PipelineResult, error) {
	results := make([]model.PipelineResult, 0, len(jobs))
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			r.logger.Info("batch stopped", "processed", i, "remaining", len(jobs)-i)
			return results, err
		}
		res := r.Process(ctx, job)
		r.logger.Info("processed job",
			"job_url", job.JobURL,
			"company", res.Job.CompanyName,
			"status", res.Status,
			"career_page", res.CareerPage.URL,
			"position", res.Position.URL,
		)
		results = append(results, res)
	}
	return results, nil
}

// Complete re-runs every result that is not complete and keeps complete ones
// as they are. Order and count are preserved; results not reached before
// cancellation are returned unchanged along with ctx's error.
func (r *Runner) Complete(ctx context.Context, results []model.PipelineResult) ([]model.PipelineResult, error) {
	out := make([]model.PipelineResult, len(results))
	copy(out, results)

	redone := 0
	for i, prev := range results {
		if prev.Status == model.StatusComplete {
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		next := r.Process(ctx, prev.Job)
		if !prev.DiscoveredAt.IsZero() {
			next.DiscoveredAt = prev.DiscoveredAt
		}
		out[i] = next
		redone++
		r.logger.Debug("reprocessed job", "job_url", prev.Job.JobURL, "before", prev.Status, "after", next.Status)
	}
	r.logger.Info("completion pass finished", "total", len(results), "reprocessed", redone)
	return out, nil
}
