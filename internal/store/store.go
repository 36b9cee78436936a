// Package store persists pipeline results to relational sinks.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/careerscout/internal/model"
)

const table = "job_discoveries"

var columns = []string{
	"run_id", "linkedin_job_url", "company_name", "company_website",
	"career_page_url", "open_position_url", "title", "location",
	"status", "discovered_at", "source", "metadata",
}

// metadata is the free-form blob stored next to each row.
type metadata struct {
	CompanyLinkedInURL string `json:"company_linkedin_url,omitempty"`
	CareerPageReason   string `json:"career_page_reason,omitempty"`
	Reason             string `json:"reason,omitempty"`
	DatePosted         string `json:"date_posted,omitempty"`
}

// insertFor builds one multi-row INSERT for results. jsonValue wraps the
// encoded metadata for the target column type.
func insertFor(b sq.StatementBuilderType, runID string, results []model.PipelineResult, jsonValue func(string) any) (sq.InsertBuilder, error) {
	ins := b.Insert(table).Columns(columns...)
	for _, r := range results {
		meta, err := encodeMetadata(r)
		if err != nil {
			return ins, fmt.Errorf("encoding metadata for %s: %w", r.Job.JobURL, err)
		}
		ins = ins.Values(
			runID,
			r.Job.JobURL,
			nullString(r.Job.CompanyName),
			nullString(r.Job.CompanyWebsite),
			nullString(r.CareerPage.URL),
			nullString(r.Position.URL),
			r.Job.Title,
			r.Job.Location,
			string(r.Status),
			r.DiscoveredAt.UTC(),
			r.Job.Source,
			jsonValue(meta),
		)
	}
	return ins, nil
}

func encodeMetadata(r model.PipelineResult) (string, error) {
	m := metadata{
		CompanyLinkedInURL: r.Job.CompanyLinkedInURL,
		CareerPageReason:   r.CareerPage.ConfidenceReason,
		Reason:             r.Reason,
	}
	if r.Job.DatePosted != nil {
		m.DatePosted = r.Job.DatePosted.UTC().Format("2006-01-02")
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func plainJSON(s string) any { return s }

// nullString maps "" to NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// MultiSink saves to several sinks concurrently. Every sink is attempted;
// the returned error joins all failures.
type MultiSink struct {
	sinks  []namedSink
	logger *slog.Logger
}

type namedSink struct {
	name string
	sink model.Sink
}

// NewMultiSink creates an empty fan-out sink.
func NewMultiSink(logger *slog.Logger) *MultiSink {
	return &MultiSink{logger: logger}
}

// Add registers a sink under name.
func (m *MultiSink) Add(name string, s model.Sink) {
	m.sinks = append(m.sinks, namedSink{name: name, sink: s})
}

// Len returns the number of registered sinks.
func (m *MultiSink) Len() int { return len(m.sinks) }

func (m *MultiSink) Save(ctx context.Context, runID string, results []model.PipelineResult) error {
	errs := make([]error, len(m.sinks))
	var g errgroup.Group
	for i, ns := range m.sinks {
		g.Go(func() error {
			if err := ns.sink.Save(ctx, runID, results); err != nil {
				errs[i] = fmt.Errorf("sink %s: %w", ns.name, err)
				return errs[i]
			}
			m.logger.Debug("results saved", "sink", ns.name, "run_id", runID, "results", len(results))
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
