package company

import "strings"

// wellKnown maps large employers to the site that hosts their openings.
// These employers rarely link a careers page from the corporate homepage.
var wellKnown = []struct {
	key  string
	site string
}{
	{"netflix", "https://jobs.netflix.com"},
	{"nike", "https://jobs.nike.com"},
	{"intuit", "https://www.intuit.com/careers"},
	{"nuro", "https://www.nuro.ai/careers"},
	{"seatgeek", "https://seatgeek.com/jobs"},
	{"google", "https://careers.google.com"},
	{"microsoft", "https://careers.microsoft.com"},
	{"apple", "https://www.apple.com/careers"},
	{"amazon", "https://www.amazon.jobs"},
	{"meta", "https://www.metacareers.com"},
	{"facebook", "https://www.metacareers.com"},
}

// WellKnownWebsite returns the careers site for a well-known employer, or ""
// when the name is not recognized. An exact match wins over a word match.
func WellKnownWebsite(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return ""
	}
	for _, wk := range wellKnown {
		if n == wk.key {
			return wk.site
		}
	}
	words := strings.FieldsFunc(n, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '-' || r == '(' || r == ')'
	})
	for _, wk := range wellKnown {
		for _, w := range words {
			if w == wk.key {
				return wk.site
			}
		}
	}
	return ""
}
