package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/amishk599/careerscout/internal/model"
)

// Tier is a fixed position in the source cascade.
type Tier int

const (
	Primary Tier = iota
	Fallback1
	Fallback2
	LastResort
)

func (t Tier) String() string {
	switch t {
	case Primary:
		return "primary"
	case Fallback1:
		return "fallback1"
	case Fallback2:
		return "fallback2"
	case LastResort:
		return "last_resort"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ErrNoSources is returned by New when nothing could ever be attempted.
var ErrNoSources = errors.New("no discovery source configured and last-resort scraping disabled")

// Sources holds one adapter per tier. A nil tier is treated as not configured.
type Sources struct {
	Primary          model.SourceAdapter
	Fallback1        model.SourceAdapter
	Fallback2        model.SourceAdapter
	LastResort       model.SourceAdapter
	EnableLastResort bool
}

// configurable is implemented by placeholder adapters that stand in for a
// source without credentials.
type configurable interface {
	Configured() bool
}

func isConfigured(a model.SourceAdapter) bool {
	if a == nil {
		return false
	}
	if c, ok := a.(configurable); ok {
		return c.Configured()
	}
	return true
}

// TierInfo describes one cascade slot for display.
type TierInfo struct {
	Tier       Tier
	Source     string
	Configured bool
	Enabled    bool
}

// Outcome is the result of one cascade run. Attempts lists every tier that
// was tried, in order.
type Outcome struct {
	Jobs      []model.JobRecord
	Attempts  []model.SourceAttempt
	Exhausted bool
	stopErr   error
}

// Err reports why the cascade produced no jobs: ErrAllSourcesExhausted when
// every tier failed, or the context error when the run was cancelled.
func (o Outcome) Err() error {
	if o.stopErr != nil {
		return o.stopErr
	}
	if o.Exhausted {
		return model.ErrAllSourcesExhausted
	}
	return nil
}

// Orchestrator runs the source cascade in fixed priority order and stops at
// the first source that yields jobs.
type Orchestrator struct {
	tiers            [4]model.SourceAdapter
	enableLastResort bool
	logger           *slog.Logger
}

// New validates the tier set. It fails only when no tier could ever run.
func New(src Sources, logger *slog.Logger) (*Orchestrator, error) {
	o := &Orchestrator{
		tiers:            [4]model.SourceAdapter{src.Primary, src.Fallback1, src.Fallback2, src.LastResort},
		enableLastResort: src.EnableLastResort,
		logger:           logger,
	}

	usable := 0
	for i, a := range o.tiers {
		if Tier(i) == LastResort && !o.enableLastResort {
			continue
		}
		if isConfigured(a) {
			usable++
		}
	}
	if usable == 0 {
		return nil, ErrNoSources
	}
	return o, nil
}

// Tiers describes the cascade, including disabled and unconfigured slots.
func (o *Orchestrator) Tiers() []TierInfo {
	out := make([]TierInfo, 0, len(o.tiers))
	for i, a := range o.tiers {
		info := TierInfo{
			Tier:       Tier(i),
			Configured: isConfigured(a),
			Enabled:    Tier(i) != LastResort || o.enableLastResort,
		}
		if a != nil {
			info.Source = a.Name()
		}
		out = append(out, info)
	}
	return out
}

// Discover tries each tier in order. Zero jobs is a normal outcome and is
// reported through Outcome.Exhausted rather than an error.
func (o *Orchestrator) Discover(ctx context.Context, q model.Query) Outcome {
	var out Outcome

	for i, a := range o.tiers {
		tier := Tier(i)
		if tier == LastResort && !o.enableLastResort {
			o.logger.Debug("last-resort source disabled, skipping")
			continue
		}
		if err := ctx.Err(); err != nil {
			out.stopErr = err
			return out
		}

		attempt, jobs := o.attempt(ctx, tier, a, q)
		out.Attempts = append(out.Attempts, attempt)
		if attempt.Success {
			out.Jobs = jobs
			return out
		}
	}

	out.Exhausted = true
	o.logger.Warn("all discovery sources exhausted", "attempts", len(out.Attempts))
	return out
}

func (o *Orchestrator) attempt(ctx context.Context, tier Tier, a model.SourceAdapter, q model.Query) (model.SourceAttempt, []model.JobRecord) {
	if a == nil {
		err := &model.DiscoveryError{Kind: model.DiscoveryUnsupported, Source: tier.String(), Err: errors.New("no adapter configured")}
		o.logger.Info("source not configured", "tier", tier.String())
		return model.SourceAttempt{SourceName: tier.String(), Err: err}, nil
	}

	name := a.Name()
	jobs, err := a.Discover(ctx, q)
	if err == nil {
		jobs = o.clean(name, jobs)
		if len(jobs) == 0 {
			err = &model.DiscoveryError{Kind: model.DiscoveryEmptyResult, Source: name, Err: errors.New("no valid job records")}
		}
	}
	if err != nil {
		kind := model.DiscoveryKind(err)
		if kind == model.DiscoveryUnsupported {
			o.logger.Info("source not configured", "tier", tier.String(), "source", name, "error", err)
		} else {
			o.logger.Warn("source attempt failed", "tier", tier.String(), "source", name, "kind", string(kind), "error", err)
		}
		return model.SourceAttempt{SourceName: name, Err: err}, nil
	}

	o.logger.Info("source attempt", "tier", tier.String(), "source", name, "success", true, "jobs", len(jobs))
	return model.SourceAttempt{SourceName: name, Success: true, JobCount: len(jobs)}, jobs
}

// clean normalizes optional company URLs, then drops records that fail
// validation or repeat a job URL already seen.
func (o *Orchestrator) clean(source string, jobs []model.JobRecord) []model.JobRecord {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]model.JobRecord, 0, len(jobs))
	for _, j := range jobs {
		j = j.Normalized()
		if err := j.Validate(); err != nil {
			o.logger.Debug("dropping invalid job record", "source", source, "url", j.JobURL, "error", err)
			continue
		}
		if !seen.Add(j.JobURL) {
			continue
		}
		out = append(out, j)
	}
	return out
}
