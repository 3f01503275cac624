package crawler

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/jsenum/internal/urlhandler"
)

// linkSelectors lists the elements and attributes that reference crawlable
// same-origin assets.
var linkSelectors = []struct {
	selector  string
	attribute string
}{
	{selector: "a[href]", attribute: "href"},
	{selector: "script[src]", attribute: "src"},
	{selector: "link[href]", attribute: "href"},
}

// LinkExtractor pulls same-origin links out of HTML documents.
type LinkExtractor struct {
	origin *url.URL
}

// NewLinkExtractor creates an extractor that keeps links on origin.
func NewLinkExtractor(origin *url.URL) *LinkExtractor {
	return &LinkExtractor{origin: origin}
}

// Extract returns the absolute, fragment-free, same-origin links found in
// body, grouped by element kind and without duplicates. A document that cannot be
// parsed yields no links.
func (le *LinkExtractor) Extract(base *url.URL, body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	base = documentBase(doc, base)

	seen := make(map[string]struct{})
	var links []string
	for _, sel := range linkSelectors {
		doc.Find(sel.selector).Each(func(_ int, s *goquery.Selection) {
			raw, _ := s.Attr(sel.attribute)
			resolved, ok := urlhandler.Resolve(base, raw)
			if !ok || !urlhandler.SameOriginString(le.origin, resolved) {
				return
			}
			if _, dup := seen[resolved]; dup {
				return
			}
			seen[resolved] = struct{}{}
			links = append(links, resolved)
		})
	}
	return links
}

// documentBase honours a <base href> element.
func documentBase(doc *goquery.Document, base *url.URL) *url.URL {
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" || base == nil {
		return base
	}
	resolved, err := base.Parse(strings.TrimSpace(href))
	if err != nil {
		return base
	}
	return resolved
}
