// Package classifier scores links against keyword taxonomies to decide
// whether they point at a career page or an individual open position.
package classifier

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/amishk599/careerscout/internal/model"
)

// URL matches outweigh anchor text matches: anchor text varies by locale and
// site copy, paths are far more stable.
const (
	urlPatternWeight = 0.6
	urlKeywordWeight = 0.5
	textWeight       = 0.4
)

// Taxonomy is a named set of keywords and URL patterns.
type Taxonomy struct {
	Name         string
	TextKeywords []string         // whole words in normalized anchor text, plural allowed
	URLKeywords  []string         // matched against normalized host + path
	URLPatterns  []*regexp.Regexp // matched against the raw lowercased URL
	Exclude      []string         // any hit in text or URL disqualifies the link
}

// Career recognizes links to a company's careers landing page.
var Career = Taxonomy{
	Name: "career",
	TextKeywords: []string{
		"career", "jobs", "join us", "join our team", "join the team", "work with us", "work for us",
		"working at", "positions", "openings", "we're hiring", "we are hiring", "hiring",
		"opportunities", "vacancies", "open roles", "carriere", "karriere", "empleo", "trabaja con nosotros",
	},
	URLKeywords: []string{
		"career", "jobs", "join us", "joinus", "join", "work with us", "hiring",
		"opportunities", "openings", "positions", "vacancies", "karriere",
	},
	URLPatterns: []*regexp.Regexp{
		regexp.MustCompile(`(boards|jobs)\.greenhouse\.io/`),
		regexp.MustCompile(`jobs\.lever\.co/`),
		regexp.MustCompile(`jobs\.ashbyhq\.com/`),
		regexp.MustCompile(`\.myworkdayjobs\.com/`),
		regexp.MustCompile(`apply\.workable\.com/`),
	},
	Exclude: []string{"privacy", "cookie", "terms of", "legal", "login", "sign in", "signin", "mailto:", "tel:"},
}

// Position recognizes links to a single open position.
var Position = Taxonomy{
	Name: "position",
	TextKeywords: []string{
		"apply", "view job", "view role", "see job", "job details", "opening", "position",
		"vacancy", "role", "engineer", "developer", "manager", "analyst", "designer",
	},
	URLKeywords: []string{"job", "position", "opening", "vacancy", "requisition"},
	URLPatterns: []*regexp.Regexp{
		regexp.MustCompile(`/jobs?/[^/?#]*\d{2,}`),
		regexp.MustCompile(`/careers?/.+/\d+`),
		regexp.MustCompile(`/(positions?|openings?|vacanc(y|ies)|requisitions?)/[^/?#]+`),
		regexp.MustCompile(`[?&](gh_jid|jobid|job_id|jid)=\w+`),
		regexp.MustCompile(`jobs\.lever\.co/[^/]+/[0-9a-f-]{8,}`),
		regexp.MustCompile(`jobs\.ashbyhq\.com/[^/]+/[0-9a-f-]{8,}`),
		regexp.MustCompile(`/job/[^/?#]+`),
	},
	Exclude: []string{"privacy", "cookie", "terms of", "legal", "login", "sign in", "signin", "mailto:", "tel:", "benefits", "blog"},
}

// Candidate is a link that matched a taxonomy.
type Candidate struct {
	model.Link
	Score float64
	Depth int
}

// Score returns a relevance score in [0, 1]. Zero means no match.
func Score(link model.Link, tax Taxonomy) float64 {
	text := normalize(link.Text)
	rawURL := strings.ToLower(link.Href)
	urlText := urlTokens(link.Href)

	for _, ex := range tax.Exclude {
		if strings.Contains(text, ex) || strings.Contains(rawURL, ex) {
			return 0
		}
	}

	score := urlScore(urlText, rawURL, tax)
	for _, kw := range tax.TextKeywords {
		if containsWord(text, kw) {
			score += textWeight
			break
		}
	}
	return score
}

// Match reports whether the link matches the taxonomy at all.
func Match(link model.Link, tax Taxonomy) bool {
	return Score(link, tax) > 0
}

// Rank returns every matching link ordered by score, then by shallower path,
// then by page order.
func Rank(links []model.Link, tax Taxonomy) []Candidate {
	var out []Candidate
	for _, l := range links {
		s := Score(l, tax)
		if s <= 0 {
			continue
		}
		out = append(out, Candidate{Link: l, Score: s, Depth: pathDepth(l.Href)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Depth < out[j].Depth
	})
	return out
}

// Best returns the highest ranked candidate scoring at least threshold.
// The boolean is false when nothing qualifies; no default guess is made.
func Best(links []model.Link, tax Taxonomy, threshold float64) (Candidate, bool) {
	ranked := Rank(links, tax)
	if len(ranked) == 0 || ranked[0].Score < threshold {
		return Candidate{}, false
	}
	return ranked[0], true
}

// urlScore prefers structural patterns (job ids, ATS hosts) over bare keywords.
func urlScore(urlText, rawURL string, tax Taxonomy) float64 {
	for _, re := range tax.URLPatterns {
		if re.MatchString(rawURL) {
			return urlPatternWeight
		}
	}
	for _, kw := range tax.URLKeywords {
		if strings.Contains(urlText, kw) {
			return urlKeywordWeight
		}
	}
	return 0
}

// urlTokens turns host and path into a space separated, normalized string so
// "/join-us" and "join us" compare equal. The registrable domain is dropped so
// a company named "Jobs Inc" does not match every link on its own site.
func urlTokens(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return normalize(raw)
	}
	host := strings.ToLower(u.Hostname())
	labels := strings.Split(host, ".")
	sub := ""
	if len(labels) > 2 {
		sub = strings.Join(labels[:len(labels)-2], " ")
	}
	path := strings.NewReplacer("-", " ", "_", " ", "/", " ", ".", " ").Replace(u.Path)
	return normalize(sub + " " + path)
}

// containsWord reports whether kw occurs in s as a whole word or phrase,
// optionally followed by a plural "s" or "es". "position" matches
// "open positions" but not "composition".
func containsWord(s, kw string) bool {
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], kw)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(kw)
		if boundaryBefore(s, i) {
			for _, suffix := range []string{"", "s", "es"} {
				if strings.HasPrefix(s[end:], suffix) && boundaryAfter(s, end+len(suffix)) {
					return true
				}
			}
		}
		from = i + 1
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func pathDepth(raw string) int {
	u, err := url.Parse(raw)
	if err != nil {
		return 0
	}
	depth := 0
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			depth++
		}
	}
	return depth
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalize lowercases, strips diacritics and collapses whitespace.
func normalize(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	out = strings.ReplaceAll(out, "’", "'")
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}
