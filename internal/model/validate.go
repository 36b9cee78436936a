package model

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks that a record carries the mandatory job URL and source.
func (r JobRecord) Validate() error {
	if err := recordValidator().Struct(r); err != nil {
		return fmt.Errorf("invalid job record %q: %w", r.JobURL, err)
	}
	return nil
}

// Normalized returns a copy of r whose optional company URLs are absolute.
// Schemeless values such as "acme.com" get https://; values that still do
// not parse to a host are cleared.
func (r JobRecord) Normalized() JobRecord {
	out := r
	out.CompanyWebsite = NormalizeURL(r.CompanyWebsite)
	out.CompanyLinkedInURL = NormalizeURL(r.CompanyLinkedInURL)
	return out
}

// NormalizeURL prefixes https:// when raw has no scheme and returns "" when
// the result has no dotted host.
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + strings.TrimPrefix(s, "//")
	}
	u, err := url.Parse(s)
	if err != nil || !strings.Contains(u.Hostname(), ".") {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
