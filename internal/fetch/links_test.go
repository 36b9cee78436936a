package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks_ResolvesRelative(t *testing.T) {
	html := `
		<html><body>
			<nav>
				<a href="/careers">Join Our Team</a>
				<a href="about">About</a>
				<a href="https://other.test/x">External</a>
			</nav>
		</body></html>`

	links, err := ExtractLinks(html, "https://acme.test/company/")
	require.NoError(t, err)
	require.Len(t, links, 3)

	assert.Equal(t, "https://acme.test/careers", links[0].Href)
	assert.Equal(t, "Join Our Team", links[0].Text)
	assert.Equal(t, "https://acme.test/company/about", links[1].Href)
	assert.Equal(t, "https://other.test/x", links[2].Href)
}

func TestExtractLinks_SkipsNonNavigable(t *testing.T) {
	html := `
		<a href="#top">Top</a>
		<a href="javascript:void(0)">JS</a>
		<a href="mailto:jobs@acme.test">Mail</a>
		<a href="tel:+15551234">Call</a>
		<a href="ftp://acme.test/file">FTP</a>
		<a href="">Empty</a>
		<a href="/jobs">Jobs</a>`

	links, err := ExtractLinks(html, "https://acme.test")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "https://acme.test/jobs", links[0].Href)
}

func TestExtractLinks_DedupesAndDropsFragments(t *testing.T) {
	html := `
		<a href="/careers#open">Careers</a>
		<a href="/careers">Careers again</a>`

	links, err := ExtractLinks(html, "https://acme.test")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "https://acme.test/careers", links[0].Href)
	assert.Equal(t, "Careers", links[0].Text)
}

func TestExtractLinks_HonorsBaseElement(t *testing.T) {
	html := `<head><base href="https://cdn.acme.test/en/"></head><body><a href="jobs">Jobs</a></body>`

	links, err := ExtractLinks(html, "https://acme.test/")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "https://cdn.acme.test/en/jobs", links[0].Href)
}

func TestExtractLinks_TextFallbacks(t *testing.T) {
	html := `
		<a href="/a" aria-label="Careers"><svg></svg></a>
		<a href="/b"><img src="x.png" alt="Work with us"></a>
		<a href="/c">  Open
		   roles </a>`

	links, err := ExtractLinks(html, "https://acme.test")
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, "Careers", links[0].Text)
	assert.Equal(t, "Work with us", links[1].Text)
	assert.Equal(t, "Open roles", links[2].Text)
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://acme.test/jobs/42", ResolveURL("https://acme.test/careers", "/jobs/42"))
	assert.Equal(t, "", ResolveURL("https://acme.test", "mailto:x@acme.test"))
}
