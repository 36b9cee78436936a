package filter

import (
	"strings"

	"github.com/amishk599/careerscout/internal/model"
)

// Rules lists case-insensitive substrings. Empty lists are treated as
// "match all" (includes) or "exclude none" (excludes).
type Rules struct {
	TitleKeywords        []string
	TitleExcludeKeywords []string
	Locations            []string
	ExcludeLocations     []string
}

// TitleAndLocationFilter decides which discovered jobs enter the pipeline.
type TitleAndLocationFilter struct {
	rules Rules
}

// NewTitleAndLocationFilter returns a filter for rules. Keywords are
// lower-cased once here.
func NewTitleAndLocationFilter(rules Rules) *TitleAndLocationFilter {
	return &TitleAndLocationFilter{rules: Rules{
		TitleKeywords:        lower(rules.TitleKeywords),
		TitleExcludeKeywords: lower(rules.TitleExcludeKeywords),
		Locations:            lower(rules.Locations),
		ExcludeLocations:     lower(rules.ExcludeLocations),
	}}
}

// Match returns true if the title contains an include keyword and no exclude
// keyword, and the location passes the location lists. A job with no
// location is not dropped by the location include list, since many sources
// leave it blank.
func (f *TitleAndLocationFilter) Match(job model.JobRecord) bool {
	title := strings.ToLower(job.Title)
	location := strings.ToLower(job.Location)

	if len(f.rules.TitleKeywords) > 0 && !containsAny(title, f.rules.TitleKeywords) {
		return false
	}
	if containsAny(title, f.rules.TitleExcludeKeywords) {
		return false
	}

	if location == "" {
		return true
	}
	if len(f.rules.Locations) > 0 && !containsAny(location, f.rules.Locations) {
		return false
	}
	return !containsAny(location, f.rules.ExcludeLocations)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
