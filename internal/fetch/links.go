package fetch

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/amishk599/careerscout/internal/model"
)

// ExtractLinks parses html and returns every navigable anchor with its href
// resolved against baseURL. Fragments are dropped and duplicates collapse to
// the first occurrence. A <base href> in the document overrides baseURL.
func ExtractLinks(html, baseURL string) ([]model.Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := base.Parse(strings.TrimSpace(href)); err == nil {
			base = b
		}
	}
	return LinksFromDocument(doc, base), nil
}

// LinksFromDocument extracts links from an already parsed document.
func LinksFromDocument(doc *goquery.Document, base *url.URL) []model.Link {
	seen := mapset.NewThreadUnsafeSet[string]()
	var links []model.Link

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs, ok := resolve(base, href)
		if !ok || seen.Contains(abs) {
			return
		}
		seen.Add(abs)
		links = append(links, model.Link{Text: anchorText(s), Href: abs})
	})
	return links
}

// ResolveURL resolves href against base, returning "" for non-navigable hrefs.
func ResolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	abs, ok := resolve(b, href)
	if !ok {
		return ""
	}
	return abs
}

func resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return "", false
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}

func anchorText(s *goquery.Selection) string {
	text := strings.Join(strings.Fields(s.Text()), " ")
	if text != "" {
		return text
	}
	for _, attr := range []string{"aria-label", "title"} {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if alt, ok := s.Find("img[alt]").First().Attr("alt"); ok {
		return strings.TrimSpace(alt)
	}
	return ""
}
