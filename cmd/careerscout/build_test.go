package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/careerscout/internal/model"
	"github.com/amishk599/careerscout/internal/pipeline"
	"github.com/amishk599/careerscout/internal/report"
)

func TestAcquireLock_Exclusive(t *testing.T) {
	out := filepath.Join(t.TempDir(), "jobs.json")

	lk, err := acquireLock(out)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	defer lk.Unlock()

	_, err = acquireLock(out)
	if err == nil || !strings.Contains(err.Error(), "another careerscout process") {
		t.Fatalf("second lock err = %v, want contention error", err)
	}

	if err := lk.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	again, err := acquireLock(out)
	if err != nil {
		t.Fatalf("lock after unlock: %v", err)
	}
	again.Unlock()
}

func TestReportRecorder_WritesLoadableArtifact(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out", "jobs.json")
	rec := reportRecorder{path: out, source: "careerscout", logger: quietLogger()}

	b := pipeline.Batch{
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Results: []model.PipelineResult{{
			Job:          model.JobRecord{JobURL: "https://www.linkedin.com/jobs/view/1", Title: "SRE", Source: "serpapi"},
			Status:       model.StatusCompanyExtractionFailed,
			DiscoveredAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		}},
	}
	if err := rec.Record(b); err != nil {
		t.Fatalf("Record: %v", err)
	}

	doc, err := report.Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Metadata.RunID != "run-1" || doc.Metadata.TotalJobs != 1 {
		t.Errorf("metadata = %+v", doc.Metadata)
	}
}

func TestOrNone(t *testing.T) {
	if orNone("") != "(none)" || orNone("https://a.com") != "https://a.com" {
		t.Error("orNone")
	}
}
