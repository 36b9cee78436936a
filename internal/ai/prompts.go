package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/rank_links.md
var rankLinksPromptRaw string

// RankLinksTemplate is the parsed prompt for picking one link among candidates.
var RankLinksTemplate = template.Must(template.New("rank_links").Parse(rankLinksPromptRaw))
