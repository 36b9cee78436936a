// Package pipeline runs discovered jobs through company resolution, career
// page location and position extraction, and hands finished batches to
// sinks and notifiers.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/careerscout/internal/discovery"
	"github.com/amishk599/careerscout/internal/model"
)

// Discoverer runs the source cascade.
type Discoverer interface {
	Discover(ctx context.Context, q model.Query) discovery.Outcome
}

// Batch is the outcome of one Execute call.
type Batch struct {
	RunID       string
	Query       model.Query
	Attempts    []model.SourceAttempt
	Exhausted   bool
	Discovered  int // jobs returned by discovery, before filtering
	Results     []model.PipelineResult
	GeneratedAt time.Time
}

// Summary returns the notifier view of the batch.
func (b Batch) Summary() model.BatchSummary {
	return model.BatchSummary{
		RunID:     b.RunID,
		Query:     b.Query,
		Attempts:  b.Attempts,
		Results:   b.Results,
		Exhausted: b.Exhausted,
	}
}

// Recorder persists the batch artifact. A failure is logged and does not
// stop delivery.
type Recorder interface {
	Record(b Batch) error
}

const deliverTimeout = 30 * time.Second

// Pipeline wires discovery, filtering, the runner and the outbound side.
type Pipeline struct {
	discoverer Discoverer
	filter     model.JobFilter
	runner     *Runner
	sink       model.Sink
	notifier   model.Notifier
	recorder   Recorder
	logger     *slog.Logger
	newRunID   func() string
	now        func() time.Time
}

// New creates a Pipeline. filter, sink and notifier may be nil.
func New(
	discoverer Discoverer,
	filter model.JobFilter,
	runner *Runner,
	sink model.Sink,
	notifier model.Notifier,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		discoverer: discoverer,
		filter:     filter,
		runner:     runner,
		sink:       sink,
		notifier:   notifier,
		logger:     logger,
		newRunID:   uuid.NewString,
		now:        time.Now,
	}
}

// Execute runs one batch. The returned error is non-nil only when ctx was
// cancelled; the batch then holds every result computed before the stop.
// Source exhaustion is reported on the batch, not as an error.
func (p *Pipeline) Execute(ctx context.Context, q model.Query) (Batch, error) {
	b := Batch{RunID: p.newRunID(), Query: q}
	log := p.logger.With("run_id", b.RunID)

	out := p.discoverer.Discover(ctx, q)
	b.Attempts = out.Attempts
	b.Exhausted = out.Exhausted
	b.Discovered = len(out.Jobs)
	if out.Exhausted {
		log.Warn("all discovery sources exhausted", "attempts", len(out.Attempts), "error", out.Err())
	}

	jobs := p.applyFilter(out.Jobs)
	if len(jobs) < len(out.Jobs) {
		log.Info("filtered discovered jobs", "discovered", len(out.Jobs), "kept", len(jobs))
	}

	results, runErr := p.runner.Run(ctx, jobs)
	b.Results = results
	b.GeneratedAt = p.now().UTC()

	if p.recorder != nil {
		if err := p.recorder.Record(b); err != nil {
			log.Error("recording batch failed", "error", err)
		}
	}
	p.Deliver(ctx, b)

	counts := b.Summary().Counts()
	log.Info("batch finished",
		"discovered", b.Discovered,
		"processed", len(results),
		"complete", counts[model.StatusComplete],
		"partial", counts[model.StatusPartial],
		"failed", counts[model.StatusCompanyExtractionFailed],
	)
	if err := ctx.Err(); err != nil {
		return b, err
	}
	return b, runErr
}

// Deliver saves the batch to the sink and notifies. Both are best-effort:
// failures are logged and never affect the batch. Delivery still happens
// after ctx is cancelled so computed results are not lost.
func (p *Pipeline) Deliver(ctx context.Context, b Batch) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliverTimeout)
	defer cancel()

	if p.sink != nil && len(b.Results) > 0 {
		if err := p.sink.Save(dctx, b.RunID, b.Results); err != nil {
			p.logger.Error("saving results failed", "run_id", b.RunID, "results", len(b.Results), "error", err)
		}
	}
	if p.notifier != nil {
		if err := p.notifier.Notify(b.Summary()); err != nil {
			p.logger.Error("notification failed", "run_id", b.RunID, "error", err)
		}
	}
}

// WithRecorder sets a recorder that receives each finished batch before it
// is delivered.
func (p *Pipeline) WithRecorder(r Recorder) *Pipeline {
	p.recorder = r
	return p
}

// Runner returns the per-job runner, for completion passes.
func (p *Pipeline) Runner() *Runner { return p.runner }

func (p *Pipeline) applyFilter(jobs []model.JobRecord) []model.JobRecord {
	if p.filter == nil {
		return jobs
	}
	kept := make([]model.JobRecord, 0, len(jobs))
	for _, j := range jobs {
		if p.filter.Match(j) {
			kept = append(kept, j)
		}
	}
	return kept
}
