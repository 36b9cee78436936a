package adapter

import (
	"strings"
	"testing"
	"time"
)

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"&lt;p&gt;Encoded&lt;/p&gt;", "Encoded"},
		{"  spaced\n\tout  ", "spaced out"},
		{"Data &amp; ML", "Data & ML"},
	}
	for _, tt := range tests {
		if got := extractText(tt.in); got != tt.want {
			t.Errorf("extractText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalJobURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://www.linkedin.com/jobs/view/backend-engineer-at-acme-3812345678?trk=public_jobs", "https://www.linkedin.com/jobs/view/3812345678/"},
		{"https://uk.linkedin.com/jobs/view/3812345678/?refId=abc", "https://www.linkedin.com/jobs/view/3812345678/"},
		{"https://acme.com/jobs/42?utm_source=li&utm_medium=x&team=eng", "https://acme.com/jobs/42?team=eng"},
		{"https://acme.com/jobs/42?gclid=1#apply", "https://acme.com/jobs/42"},
		{"  ", ""},
		{"relative/path", "relative/path"},
	}
	for _, tt := range tests {
		if got := canonicalJobURL(tt.in); got != tt.want {
			t.Errorf("canonicalJobURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLinkedInJobID(t *testing.T) {
	if id := linkedInJobID("https://www.linkedin.com/jobs/view/3812345678/"); id != "3812345678" {
		t.Errorf("id = %q", id)
	}
	if id := linkedInJobID("https://www.linkedin.com/company/acme"); id != "" {
		t.Errorf("expected no id, got %q", id)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2026-02-10T09:00:00Z", time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC), true},
		{"2026-02-10T09:00:00", time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC), true},
		{"2026-02-10", time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), true},
		{"February 10, 2026", time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), true},
		{"3 days ago", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got := parseDate(tt.in)
		if (got != nil) != tt.ok {
			t.Errorf("parseDate(%q) = %v, want ok=%v", tt.in, got, tt.ok)
			continue
		}
		if got != nil && !got.Equal(tt.want) {
			t.Errorf("parseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", " b ", "c"); got != "b" {
		t.Errorf("got %q", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Errorf("got %q", got)
	}
}
