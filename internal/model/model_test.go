package model

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestJobRecordValidate(t *testing.T) {
	ok := JobRecord{JobURL: "https://www.linkedin.com/jobs/view/1", Source: "scrapin"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	missingSource := JobRecord{JobURL: "https://www.linkedin.com/jobs/view/1"}
	if err := missingSource.Validate(); err == nil {
		t.Error("expected error for missing source")
	}

	badURL := JobRecord{JobURL: "not a url", Source: "serpapi"}
	if err := badURL.Validate(); err == nil {
		t.Error("expected error for malformed job URL")
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"acme.com", "https://acme.com"},
		{"  www.acme.com/about ", "https://www.acme.com/about"},
		{"//acme.com", "https://acme.com"},
		{"http://acme.com", "http://acme.com"},
		{"https://www.linkedin.com/company/acme", "https://www.linkedin.com/company/acme"},
		{"ftp://acme.com", ""},
		{"not a website", ""},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJobRecordNormalized_KeepsRecordValid(t *testing.T) {
	r := JobRecord{
		JobURL:             "https://www.linkedin.com/jobs/view/1",
		Source:             "scrapin",
		CompanyWebsite:     "acme.com",
		CompanyLinkedInURL: "n/a",
	}
	n := r.Normalized()
	if n.CompanyWebsite != "https://acme.com" {
		t.Errorf("CompanyWebsite = %q", n.CompanyWebsite)
	}
	if n.CompanyLinkedInURL != "" {
		t.Errorf("CompanyLinkedInURL = %q, want cleared", n.CompanyLinkedInURL)
	}
	if err := n.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if r.CompanyWebsite != "acme.com" {
		t.Error("Normalized mutated the original")
	}
}

func TestWithCompany_DoesNotMutateOriginal(t *testing.T) {
	orig := JobRecord{JobURL: "https://x.test/jobs/1", Source: "scrapin", CompanyName: "Old"}
	enriched := orig.WithCompany(CompanyInfo{Name: "Acme", Website: "https://acme.test"})

	if orig.CompanyName != "Old" || orig.CompanyWebsite != "" {
		t.Errorf("original mutated: %+v", orig)
	}
	if enriched.CompanyName != "Acme" || enriched.CompanyWebsite != "https://acme.test" {
		t.Errorf("unexpected enriched record: %+v", enriched)
	}

	kept := orig.WithCompany(CompanyInfo{})
	if kept.CompanyName != "Old" {
		t.Errorf("empty info should keep existing name, got %q", kept.CompanyName)
	}
}

func TestFetchKindFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   FetchErrorKind
	}{
		{404, FetchNotFound},
		{410, FetchNotFound},
		{403, FetchBlocked},
		{999, FetchBlocked},
		{429, FetchTransient},
		{503, FetchTransient},
	}
	for _, tc := range tests {
		if got := FetchKindFromStatus(tc.status); got != tc.want {
			t.Errorf("FetchKindFromStatus(%d) = %s, want %s", tc.status, got, tc.want)
		}
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"cancelled", fmt.Errorf("wrap: %w", context.Canceled), false},
		{"fetch transient", &FetchError{Kind: FetchTransient}, true},
		{"fetch not found", &FetchError{Kind: FetchNotFound}, false},
		{"rate limited", &DiscoveryError{Kind: DiscoveryRateLimited}, true},
		{"auth failed", &DiscoveryError{Kind: DiscoveryAuthFailed}, false},
		{"empty", &DiscoveryError{Kind: DiscoveryEmptyResult}, false},
		{"http 502", &HTTPError{StatusCode: 502}, true},
		{"http 400", &HTTPError{StatusCode: 400}, false},
		{"plain network error", errors.New("connection reset"), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestRetryAfter(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &DiscoveryError{Kind: DiscoveryRateLimited, RetryAfter: 3 * time.Second})
	if got := RetryAfter(err); got != 3*time.Second {
		t.Errorf("RetryAfter = %v, want 3s", got)
	}
	if got := RetryAfter(errors.New("x")); got != 0 {
		t.Errorf("RetryAfter(plain) = %v, want 0", got)
	}
}

func TestBatchSummaryCounts(t *testing.T) {
	s := BatchSummary{Results: []PipelineResult{
		{Status: StatusComplete}, {Status: StatusPartial}, {Status: StatusPartial},
	}}
	counts := s.Counts()
	if counts[StatusComplete] != 1 || counts[StatusPartial] != 2 || counts[StatusCompanyExtractionFailed] != 0 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
