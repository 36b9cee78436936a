// Package report reads and writes the JSON document that carries a batch of
// pipeline results.
package report

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/amishk599/careerscout/internal/model"
)

//go:embed schema.json
var schemaJSON []byte

const completedSuffix = "_completed"

// Metadata is the document header. total_jobs, generated_at and source are
// the fixed contract; the rest is additive.
type Metadata struct {
	TotalJobs   int        `json:"total_jobs"`
	GeneratedAt time.Time  `json:"generated_at"`
	Source      string     `json:"source"`
	RunID       string     `json:"run_id,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Record is one result row. Unknown values are written as null.
type Record struct {
	LinkedInJobURL     string       `json:"linkedin_job_url"`
	CompanyName        *string      `json:"company_name"`
	CompanyWebsite     *string      `json:"company_website"`
	CompanyLinkedInURL *string      `json:"company_linkedin_url,omitempty"`
	CareerPageURL      *string      `json:"career_page_url"`
	CareerPageReason   string       `json:"career_page_reason,omitempty"`
	OpenPositionURL    *string      `json:"open_position_url"`
	Title              string       `json:"title"`
	Location           string       `json:"location"`
	DatePosted         *time.Time   `json:"date_posted,omitempty"`
	Source             string       `json:"source"`
	Status             model.Status `json:"status"`
	Reason             string       `json:"reason,omitempty"`
	DiscoveredAt       time.Time    `json:"discovered_at"`
}

// Document is the output artifact.
type Document struct {
	Metadata Metadata `json:"metadata"`
	Results  []Record `json:"results"`
}

// New builds a document from a finished batch.
func New(runID, source string, generatedAt time.Time, results []model.PipelineResult) Document {
	doc := Document{
		Metadata: Metadata{
			GeneratedAt: generatedAt.UTC(),
			Source:      source,
			RunID:       runID,
		},
	}
	doc.SetResults(results)
	return doc
}

// SetResults replaces the result rows and keeps total_jobs in step.
func (d *Document) SetResults(results []model.PipelineResult) {
	d.Results = make([]Record, len(results))
	for i, r := range results {
		d.Results[i] = toRecord(r)
	}
	d.Metadata.TotalJobs = len(d.Results)
}

// PipelineResults converts the rows back for reprocessing.
func (d Document) PipelineResults() []model.PipelineResult {
	out := make([]model.PipelineResult, len(d.Results))
	for i, r := range d.Results {
		out[i] = r.toResult()
	}
	return out
}

// MarkCompleted stamps the document after a completion pass.
func (d *Document) MarkCompleted(at time.Time) {
	t := at.UTC()
	d.Metadata.CompletedAt = &t
	if !strings.HasSuffix(d.Metadata.Source, completedSuffix) {
		d.Metadata.Source += completedSuffix
	}
}

// Counts returns the number of rows per status.
func (d Document) Counts() map[model.Status]int {
	counts := make(map[model.Status]int, 3)
	for _, r := range d.Results {
		counts[r.Status]++
	}
	return counts
}

// Write stores doc at path as indented JSON, replacing any existing file
// atomically.
func Write(path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*.json")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace report %s: %w", path, err)
	}
	return nil
}

// Load reads and schema-validates the document at path.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read report: %w", err)
	}
	if err := Validate(data); err != nil {
		return Document{}, fmt.Errorf("report %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode report %s: %w", path, err)
	}
	if doc.Metadata.TotalJobs != len(doc.Results) {
		return Document{}, fmt.Errorf("report %s: total_jobs is %d but %d results are present", path, doc.Metadata.TotalJobs, len(doc.Results))
	}
	return doc, nil
}

// FieldError is a single schema violation.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every schema violation in a document.
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:")
	for i, e := range ve.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, e.Field, e.Message)
	}
	return sb.String()
}

// Validate checks raw JSON against the embedded document schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("schema check: %w", err)
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}

func toRecord(r model.PipelineResult) Record {
	return Record{
		LinkedInJobURL:     r.Job.JobURL,
		CompanyName:        nullable(r.Job.CompanyName),
		CompanyWebsite:     nullable(r.Job.CompanyWebsite),
		CompanyLinkedInURL: nullable(r.Job.CompanyLinkedInURL),
		CareerPageURL:      nullable(r.CareerPage.URL),
		CareerPageReason:   r.CareerPage.ConfidenceReason,
		OpenPositionURL:    nullable(r.Position.URL),
		Title:              r.Job.Title,
		Location:           r.Job.Location,
		DatePosted:         r.Job.DatePosted,
		Source:             r.Job.Source,
		Status:             r.Status,
		Reason:             r.Reason,
		DiscoveredAt:       r.DiscoveredAt.UTC(),
	}
}

func (r Record) toResult() model.PipelineResult {
	return model.PipelineResult{
		Job: model.JobRecord{
			JobURL:             r.LinkedInJobURL,
			Title:              r.Title,
			CompanyName:        deref(r.CompanyName),
			CompanyLinkedInURL: deref(r.CompanyLinkedInURL),
			CompanyWebsite:     deref(r.CompanyWebsite),
			Location:           r.Location,
			DatePosted:         r.DatePosted,
			Source:             r.Source,
		},
		CareerPage:   model.CareerPageResult{URL: deref(r.CareerPageURL), ConfidenceReason: r.CareerPageReason},
		Position:     model.PositionResult{URL: deref(r.OpenPositionURL)},
		Status:       r.Status,
		Reason:       r.Reason,
		DiscoveredAt: r.DiscoveredAt,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
