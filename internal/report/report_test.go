package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/careerscout/internal/model"
)

var generated = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func sampleResults() []model.PipelineResult {
	return []model.PipelineResult{
		{
			Job: model.JobRecord{
				JobURL:         "https://www.linkedin.com/jobs/view/1",
				Title:          "Backend Engineer",
				CompanyName:    "Acme",
				CompanyWebsite: "https://acme.com",
				Location:       "Remote",
				Source:         "scrapin",
			},
			CareerPage:   model.CareerPageResult{URL: "https://acme.com/careers", ConfidenceReason: "conventional path /careers"},
			Position:     model.PositionResult{URL: "https://acme.com/jobs/42"},
			Status:       model.StatusComplete,
			DiscoveredAt: generated,
		},
		{
			Job:          model.JobRecord{JobURL: "https://www.linkedin.com/jobs/view/2", Title: "SRE", CompanyName: "Widgets", CompanyWebsite: "https://widgets.io", Source: "serpapi"},
			Status:       model.StatusPartial,
			Reason:       "career page not found: site unreachable",
			DiscoveredAt: generated,
		},
		{
			Job:          model.JobRecord{JobURL: "https://www.linkedin.com/jobs/view/3", Title: "Designer", Source: "serpapi"},
			Status:       model.StatusCompanyExtractionFailed,
			Reason:       "company_extraction_failed for https://www.linkedin.com/jobs/view/3",
			DiscoveredAt: generated,
		},
	}
}

func TestNew_ExactFieldNames(t *testing.T) {
	doc := New("run-1", "careerscout", generated, sampleResults())

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	meta := raw["metadata"].(map[string]any)
	assert.EqualValues(t, 3, meta["total_jobs"])
	assert.Equal(t, "2026-03-14T09:30:00Z", meta["generated_at"])
	assert.Equal(t, "careerscout", meta["source"])
	assert.Equal(t, "run-1", meta["run_id"])
	assert.NotContains(t, meta, "completed_at")

	results := raw["results"].([]any)
	require.Len(t, results, 3)

	partial := results[1].(map[string]any)
	assert.Equal(t, "partial", partial["status"])
	assert.Contains(t, partial, "career_page_url")
	assert.Nil(t, partial["career_page_url"], "unknown urls are written as null")
	assert.Nil(t, partial["open_position_url"])
	assert.Equal(t, "https://widgets.io", partial["company_website"])

	failed := results[2].(map[string]any)
	assert.Equal(t, "company_extraction_failed", failed["status"])
	assert.Nil(t, failed["company_name"])
}

func TestWriteLoad_RoundTripsResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "jobs.json")
	in := sampleResults()

	require.NoError(t, Write(path, New("run-1", "careerscout", generated, in)))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Metadata.TotalJobs)

	out := doc.PipelineResults()
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].Job.JobURL, out[i].Job.JobURL)
		assert.Equal(t, in[i].Status, out[i].Status)
		assert.Equal(t, in[i].CareerPage, out[i].CareerPage)
		assert.Equal(t, in[i].Position, out[i].Position)
		assert.Equal(t, in[i].Job.CompanyWebsite, out[i].Job.CompanyWebsite)
	}
}

func TestLoad_RejectsUnknownStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	body := `{"metadata":{"total_jobs":1,"generated_at":"2026-03-14T09:30:00Z","source":"x"},
	"results":[{"linkedin_job_url":"https://www.linkedin.com/jobs/view/1","source":"x","status":"incomplete"}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Load(path)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.NotEmpty(t, ve.Errors)
}

func TestLoad_RejectsMissingMetadata(t *testing.T) {
	err := Validate([]byte(`{"results":[]}`))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "(root)", ve.Errors[0].Field)
}

func TestLoad_RejectsCountMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mismatch.json")
	body := `{"metadata":{"total_jobs":2,"generated_at":"2026-03-14T09:30:00Z","source":"x"},"results":[]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "total_jobs")
}

func TestMarkCompleted(t *testing.T) {
	doc := New("run-1", "careerscout", generated, sampleResults())
	done := generated.Add(time.Hour)

	doc.MarkCompleted(done)
	doc.MarkCompleted(done)

	assert.Equal(t, "careerscout_completed", doc.Metadata.Source)
	require.NotNil(t, doc.Metadata.CompletedAt)
	assert.Equal(t, done, *doc.Metadata.CompletedAt)
	assert.Equal(t, generated, doc.Metadata.GeneratedAt, "generated_at is kept")
}

func TestCounts(t *testing.T) {
	doc := New("run-1", "careerscout", generated, sampleResults())
	assert.Equal(t, map[model.Status]int{
		model.StatusComplete:                1,
		model.StatusPartial:                 1,
		model.StatusCompanyExtractionFailed: 1,
	}, doc.Counts())
}
