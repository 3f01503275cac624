package crawler

import (
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestLinkExtractor_Extract(t *testing.T) {
	origin := mustURL(t, "https://example.com/")
	base := mustURL(t, "https://example.com/app/index.html")

	body := []byte(`<html><head>
<link rel="stylesheet" href="/static/site.css">
<script src="main.js"></script>
<script src="https://cdn.other.net/lib.js"></script>
</head><body>
<a href="../about#team">About</a>
<a href="/about">About again</a>
<a href="mailto:root@example.com">Mail</a>
<a href="#top">Top</a>
<a href="http://example.com/insecure">Other scheme</a>
<a href="https://example.com:8443/admin">Other port</a>
</body></html>`)

	links := NewLinkExtractor(origin).Extract(base, body)

	assert.Equal(t, []string{
		"https://example.com/about",
		"https://example.com/app/main.js",
		"https://example.com/static/site.css",
	}, links)
}

func TestLinkExtractor_HonoursBaseElement(t *testing.T) {
	origin := mustURL(t, "https://example.com/")
	base := mustURL(t, "https://example.com/index.html")

	body := []byte(`<html><head><base href="/assets/"></head>
<body><script src="bundle.js"></script></body></html>`)

	links := NewLinkExtractor(origin).Extract(base, body)
	assert.Equal(t, []string{"https://example.com/assets/bundle.js"}, links)
}

func TestLinkExtractor_NonHTMLYieldsNothing(t *testing.T) {
	origin := mustURL(t, "https://example.com/")

	links := NewLinkExtractor(origin).Extract(origin, []byte("just some text, no markup"))
	assert.Empty(t, links)

	links = NewLinkExtractor(origin).Extract(origin, nil)
	assert.Empty(t, links)
}

func TestScriptLinkExtractor_Extract(t *testing.T) {
	origin := mustURL(t, "https://example.com/")
	base := mustURL(t, "https://example.com/static/app.js")

	body := []byte(`
fetch("/api/users");
fetch("https://evil.example.net/collect");
fetch("/api/items/" + itemId);
`)

	links := NewScriptLinkExtractor(origin, zerolog.Nop()).Extract(base, body)

	assert.Contains(t, links, "https://example.com/api/users")
	for _, link := range links {
		assert.NotContains(t, link, "evil.example.net")
		assert.NotContains(t, link, "EXPR")
	}
}
