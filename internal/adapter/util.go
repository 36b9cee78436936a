package adapter

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// extractText converts an HTML or HTML-encoded string to plain text.
// Entities are unescaped before tags are stripped so double-encoded
// markup collapses too.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, "")
	return strings.Join(strings.Fields(plain), " ")
}

var linkedInJobIDRegex = regexp.MustCompile(`/jobs/view/(?:[^/?#]*-)?(\d{5,})`)

// trackingParams are dropped from job URLs so the same posting discovered
// through different sources compares equal.
var trackingParams = []string{"refid", "trackingid", "trk", "position", "pagenum", "ebp", "currentjobid"}

// canonicalJobURL normalizes LinkedIn job links to
// https://www.linkedin.com/jobs/view/<id>/ and strips utm_* and other
// tracking parameters from everything else.
func canonicalJobURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if m := linkedInJobIDRegex.FindStringSubmatch(raw); m != nil && strings.Contains(raw, "linkedin.com") {
		return "https://www.linkedin.com/jobs/view/" + m[1] + "/"
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || lk == "gclid" || lk == "fbclid" {
			q.Del(k)
			continue
		}
		for _, p := range trackingParams {
			if lk == p {
				q.Del(k)
				break
			}
		}
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String()
}

// linkedInJobID returns the numeric posting id in a LinkedIn job URL.
func linkedInJobID(raw string) string {
	if m := linkedInJobIDRegex.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "January 2, 2006"}

// parseDate accepts the handful of absolute date formats discovery APIs use.
// Relative strings ("3 days ago") yield nil.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
