package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/amishk599/careerscout/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedAdapter returns a fixed result and counts calls.
type scriptedAdapter struct {
	name  string
	jobs  []model.JobRecord
	err   error
	calls int
}

func (s *scriptedAdapter) Name() string { return s.name }

func (s *scriptedAdapter) Discover(_ context.Context, _ model.Query) ([]model.JobRecord, error) {
	s.calls++
	return s.jobs, s.err
}

type placeholder struct{ scriptedAdapter }

func (p *placeholder) Configured() bool { return false }

func failing(name string, kind model.DiscoveryErrorKind) *scriptedAdapter {
	return &scriptedAdapter{name: name, err: &model.DiscoveryError{Kind: kind, Source: name, Err: errors.New("boom")}}
}

func succeeding(name string, n int) *scriptedAdapter {
	jobs := make([]model.JobRecord, n)
	for i := range jobs {
		jobs[i] = model.JobRecord{
			JobURL: fmt.Sprintf("https://www.linkedin.com/jobs/view/%d/", 1000000+i),
			Title:  fmt.Sprintf("Job %d", i),
			Source: name,
		}
	}
	return &scriptedAdapter{name: name, jobs: jobs}
}

var testQuery = model.Query{Keyword: "go", Location: "Remote", Limit: 10}

func TestDiscover_FailFailSucceed(t *testing.T) {
	a := failing("a", model.DiscoveryAuthFailed)
	b := failing("b", model.DiscoveryRateLimited)
	c := succeeding("c", 3)
	d := succeeding("d", 5)

	o, err := New(Sources{Primary: a, Fallback1: b, Fallback2: c, LastResort: d, EnableLastResort: true}, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := o.Discover(context.Background(), testQuery)
	if len(out.Jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(out.Jobs))
	}
	if len(out.Attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(out.Attempts))
	}
	for i, want := range []string{"a", "b", "c"} {
		if out.Attempts[i].SourceName != want {
			t.Errorf("attempt %d source = %q, want %q", i, out.Attempts[i].SourceName, want)
		}
	}
	if out.Attempts[0].Success || out.Attempts[1].Success || !out.Attempts[2].Success {
		t.Errorf("unexpected success flags: %+v", out.Attempts)
	}
	if out.Attempts[2].JobCount != 3 {
		t.Errorf("JobCount = %d", out.Attempts[2].JobCount)
	}
	if d.calls != 0 {
		t.Error("cascade must stop at the first non-empty source")
	}
	if out.Exhausted || out.Err() != nil {
		t.Errorf("unexpected exhaustion: %v", out.Err())
	}
}

func TestDiscover_AllSourcesExhausted(t *testing.T) {
	o, err := New(Sources{
		Primary:          failing("a", model.DiscoveryTransientNetwork),
		Fallback1:        failing("b", model.DiscoveryEmptyResult),
		Fallback2:        &scriptedAdapter{name: "c"},
		LastResort:       failing("d", model.DiscoveryAuthFailed),
		EnableLastResort: true,
	}, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := o.Discover(context.Background(), testQuery)
	if len(out.Jobs) != 0 {
		t.Fatalf("expected no jobs, got %d", len(out.Jobs))
	}
	if !out.Exhausted {
		t.Error("expected Exhausted")
	}
	if !errors.Is(out.Err(), model.ErrAllSourcesExhausted) {
		t.Errorf("Err() = %v, want ErrAllSourcesExhausted", out.Err())
	}
	if len(out.Attempts) != 4 {
		t.Errorf("expected 4 attempts, got %d", len(out.Attempts))
	}
	if model.DiscoveryKind(out.Attempts[2].Err) != model.DiscoveryEmptyResult {
		t.Errorf("empty list should be recorded as empty_result, got %v", out.Attempts[2].Err)
	}
}

func TestDiscover_LastResortRequiresOptIn(t *testing.T) {
	last := succeeding("scrape", 2)
	o, err := New(Sources{
		Primary:    failing("a", model.DiscoveryTransientNetwork),
		LastResort: last,
	}, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := o.Discover(context.Background(), testQuery)
	if last.calls != 0 {
		t.Error("last resort must not run unless enabled")
	}
	if !out.Exhausted {
		t.Error("expected Exhausted")
	}
	if len(out.Attempts) != 3 {
		t.Errorf("expected attempts for primary and the two unconfigured fallbacks, got %d", len(out.Attempts))
	}
}

func TestDiscover_UnconfiguredRecorded(t *testing.T) {
	o, err := New(Sources{
		Primary:   &placeholder{scriptedAdapter{name: "scrapin", err: &model.DiscoveryError{Kind: model.DiscoveryUnsupported}}},
		Fallback1: succeeding("serpapi", 1),
	}, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := o.Discover(context.Background(), testQuery)
	if len(out.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(out.Attempts))
	}
	if model.DiscoveryKind(out.Attempts[0].Err) != model.DiscoveryUnsupported {
		t.Errorf("expected unsupported attempt, got %v", out.Attempts[0].Err)
	}
	if len(out.Jobs) != 1 {
		t.Errorf("expected 1 job, got %d", len(out.Jobs))
	}
}

func TestDiscover_DropsInvalidAndDuplicateRecords(t *testing.T) {
	src := &scriptedAdapter{name: "a", jobs: []model.JobRecord{
		{JobURL: "https://www.linkedin.com/jobs/view/1000001/", Source: "a"},
		{JobURL: "https://www.linkedin.com/jobs/view/1000001/", Source: "a"},
		{JobURL: "not a url", Source: "a"},
		{JobURL: "https://www.linkedin.com/jobs/view/1000002/"},
	}}
	o, err := New(Sources{Primary: src}, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := o.Discover(context.Background(), testQuery)
	if len(out.Jobs) != 1 {
		t.Fatalf("expected 1 clean job, got %d", len(out.Jobs))
	}
	if out.Attempts[0].JobCount != 1 {
		t.Errorf("JobCount = %d", out.Attempts[0].JobCount)
	}
}

func TestDiscover_SchemelessCompanyWebsiteKept(t *testing.T) {
	src := &scriptedAdapter{name: "scrapin", jobs: []model.JobRecord{
		{JobURL: "https://www.linkedin.com/jobs/view/3899999999/", Source: "scrapin", CompanyWebsite: "acme.com"},
	}}
	fallback := succeeding("serpapi", 1)
	o, _ := New(Sources{Primary: src, Fallback1: fallback}, discardLogger())

	out := o.Discover(context.Background(), testQuery)
	if out.Err() != nil {
		t.Fatalf("unexpected error: %v", out.Err())
	}
	if len(out.Jobs) != 1 || fallback.calls != 0 {
		t.Fatalf("expected primary job to be kept, got %d jobs and %d fallback calls", len(out.Jobs), fallback.calls)
	}
	if out.Jobs[0].CompanyWebsite != "https://acme.com" {
		t.Errorf("CompanyWebsite = %q", out.Jobs[0].CompanyWebsite)
	}
	if !out.Attempts[0].Success {
		t.Errorf("attempt 0 = %+v", out.Attempts[0])
	}
}

func TestDiscover_OnlyInvalidRecordsFallsThrough(t *testing.T) {
	bad := &scriptedAdapter{name: "a", jobs: []model.JobRecord{{JobURL: "", Source: "a"}}}
	good := succeeding("b", 2)
	o, _ := New(Sources{Primary: bad, Fallback1: good}, discardLogger())

	out := o.Discover(context.Background(), testQuery)
	if len(out.Jobs) != 2 || good.calls != 1 {
		t.Fatalf("expected fallback to run, got %d jobs", len(out.Jobs))
	}
	if model.DiscoveryKind(out.Attempts[0].Err) != model.DiscoveryEmptyResult {
		t.Errorf("attempt 0 err = %v", out.Attempts[0].Err)
	}
}

func TestDiscover_CancelledBetweenTiers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := &cancellingAdapter{cancel: cancel}
	second := succeeding("b", 1)
	o, _ := New(Sources{Primary: first, Fallback1: second}, discardLogger())

	out := o.Discover(ctx, testQuery)
	if second.calls != 0 {
		t.Error("no tier should start after cancellation")
	}
	if !errors.Is(out.Err(), context.Canceled) {
		t.Errorf("Err() = %v, want context.Canceled", out.Err())
	}
	if out.Exhausted {
		t.Error("a cancelled cascade is not exhausted")
	}
	if len(out.Attempts) != 1 {
		t.Errorf("expected the in-flight attempt to be recorded, got %d", len(out.Attempts))
	}
}

type cancellingAdapter struct{ cancel context.CancelFunc }

func (c *cancellingAdapter) Name() string { return "a" }

func (c *cancellingAdapter) Discover(_ context.Context, _ model.Query) ([]model.JobRecord, error) {
	c.cancel()
	return nil, &model.DiscoveryError{Kind: model.DiscoveryTransientNetwork, Source: "a"}
}

func TestNew_NoSources(t *testing.T) {
	tests := []struct {
		name string
		src  Sources
	}{
		{"empty", Sources{}},
		{"only placeholders", Sources{Primary: &placeholder{scriptedAdapter{name: "scrapin"}}}},
		{"last resort disabled", Sources{LastResort: succeeding("scrape", 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.src, discardLogger()); !errors.Is(err, ErrNoSources) {
				t.Errorf("err = %v, want ErrNoSources", err)
			}
		})
	}

	if _, err := New(Sources{LastResort: succeeding("scrape", 1), EnableLastResort: true}, discardLogger()); err != nil {
		t.Errorf("enabled last resort alone should be valid: %v", err)
	}
}

func TestTiers(t *testing.T) {
	o, _ := New(Sources{
		Primary:    succeeding("scrapin", 1),
		Fallback1:  &placeholder{scriptedAdapter{name: "serpapi"}},
		LastResort: succeeding("linkedin_scrape", 1),
	}, discardLogger())

	tiers := o.Tiers()
	if len(tiers) != 4 {
		t.Fatalf("expected 4 tiers, got %d", len(tiers))
	}
	if !tiers[0].Configured || tiers[0].Source != "scrapin" {
		t.Errorf("tier 0 = %+v", tiers[0])
	}
	if tiers[1].Configured {
		t.Errorf("placeholder should be unconfigured: %+v", tiers[1])
	}
	if tiers[2].Configured || tiers[2].Source != "" {
		t.Errorf("nil tier = %+v", tiers[2])
	}
	if tiers[3].Enabled || tiers[3].Tier.String() != "last_resort" {
		t.Errorf("last resort = %+v", tiers[3])
	}
}
