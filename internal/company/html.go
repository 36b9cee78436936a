package company

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/careerscout/internal/fetch"
	"github.com/amishk599/careerscout/internal/model"
)

// Hosts that are never a company's own website.
var nonCompanyHosts = []string{
	"linkedin.com", "licdn.com", "facebook.com", "twitter.com", "x.com", "instagram.com",
	"youtube.com", "glassdoor.com", "indeed.com", "google.com/maps", "bit.ly", "lnkd.in",
}

var companyNameSelectors = []string{
	"a.topcard__org-name-link",
	".topcard__flavor a",
	"h4.topcard__flavor",
	`a[data-tracking-control-name*="company"]`,
	".job-details-jobs-unified-top-card__company-name a",
	".company-name",
}

var websiteSelectors = []string{
	`a[data-tracking-control-name*="website"]`,
	`a[data-control-name*="website"]`,
	"dd.website a",
	`a[class*="website"]`,
}

var aboutSelectors = []string{
	".about-us", ".org-top-card", `section[class*="about"]`, `section[class*="company"]`, `div[class*="company-info"]`,
}

// parseJobPage extracts the company name, LinkedIn company URL and website
// from a job posting page.
func parseJobPage(html, pageURL string) model.CompanyInfo {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return model.CompanyInfo{}
	}

	var info model.CompanyInfo
	for _, sel := range companyNameSelectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		name := cleanText(s.Text())
		if name == "" {
			continue
		}
		info.Name = name
		if href, ok := s.Attr("href"); ok && strings.Contains(href, "/company/") {
			info.LinkedInURL = stripQuery(fetch.ResolveURL(pageURL, href))
		}
		break
	}

	if info.LinkedInURL == "" {
		if href, ok := doc.Find(`a[href*="/company/"]`).First().Attr("href"); ok {
			info.LinkedInURL = stripQuery(fetch.ResolveURL(pageURL, href))
		}
	}

	for _, ld := range jsonLD(doc) {
		org := ld.HiringOrganization
		if org == nil {
			continue
		}
		if info.Name == "" {
			info.Name = cleanText(org.Name)
		}
		if info.Website == "" {
			info.Website = firstExternal(append([]string{org.URL}, org.SameAs...)...)
		}
	}
	return info
}

// parseCompanyPage finds the company's own website on a LinkedIn company page.
func parseCompanyPage(html, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	for _, sel := range websiteSelectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			found = firstExternal(unwrapRedirect(fetch.ResolveURL(pageURL, href)), cleanText(s.Text()))
			return found == ""
		})
		if found != "" {
			return found
		}
	}

	for _, ld := range jsonLD(doc) {
		if site := firstExternal(append([]string{ld.URL}, ld.SameAs...)...); site != "" {
			return site
		}
	}

	for _, sel := range aboutSelectors {
		var found string
		doc.Find(sel).Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			found = firstExternal(unwrapRedirect(fetch.ResolveURL(pageURL, href)))
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}

type ldOrganization struct {
	Name   string
	URL    string
	SameAs []string
}

type ldNode struct {
	URL                string
	SameAs             []string
	HiringOrganization *ldOrganization
}

// jsonLD decodes every application/ld+json block on the page. sameAs and
// hiringOrganization appear as either a string or an object/array, so they
// are decoded by hand.
func jsonLD(doc *goquery.Document) []ldNode {
	var out []ldNode
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		var nodes []map[string]json.RawMessage
		if strings.HasPrefix(raw, "[") {
			if err := json.Unmarshal([]byte(raw), &nodes); err != nil {
				return
			}
		} else {
			var node map[string]json.RawMessage
			if err := json.Unmarshal([]byte(raw), &node); err != nil {
				return
			}
			nodes = append(nodes, node)
		}
		for _, n := range nodes {
			out = append(out, decodeLDNode(n))
		}
	})
	return out
}

func decodeLDNode(n map[string]json.RawMessage) ldNode {
	var node ldNode
	_ = json.Unmarshal(n["url"], &node.URL)
	node.SameAs = stringOrList(n["sameAs"])
	if raw, ok := n["hiringOrganization"]; ok {
		var fields map[string]json.RawMessage
		org := &ldOrganization{}
		if err := json.Unmarshal(raw, &fields); err == nil {
			_ = json.Unmarshal(fields["name"], &org.Name)
			_ = json.Unmarshal(fields["url"], &org.URL)
			org.SameAs = stringOrList(fields["sameAs"])
		} else {
			_ = json.Unmarshal(raw, &org.Name)
		}
		node.HiringOrganization = org
	}
	return node
}

func stringOrList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}
	}
	var many []string
	_ = json.Unmarshal(raw, &many)
	return many
}

// firstExternal returns the first candidate that is an http(s) URL on a host
// other than LinkedIn or a social network.
func firstExternal(candidates ...string) string {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !strings.HasPrefix(c, "http://") && !strings.HasPrefix(c, "https://") {
			if strings.Contains(c, ".") && !strings.ContainsAny(c, " @:/") {
				c = "https://" + c
			} else {
				continue
			}
		}
		u, err := url.Parse(c)
		if err != nil || u.Host == "" {
			continue
		}
		if isNonCompanyHost(u) {
			continue
		}
		return c
	}
	return ""
}

func isNonCompanyHost(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	hostPath := host + strings.ToLower(u.Path)
	for _, h := range nonCompanyHosts {
		if strings.Contains(h, "/") {
			if strings.HasPrefix(hostPath, h) || strings.Contains(hostPath, "."+h) {
				return true
			}
			continue
		}
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// unwrapRedirect extracts the target of LinkedIn's outbound redirect links
// (/redir/redirect?url=...).
func unwrapRedirect(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if strings.Contains(u.Path, "/redir/") {
		if target := u.Query().Get("url"); target != "" {
			return target
		}
	}
	return raw
}

func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
