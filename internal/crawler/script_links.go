package crawler

import (
	"net/url"
	"strings"

	"github.com/BishopFox/jsluice"
	"github.com/aleister1102/jsenum/internal/urlhandler"
	"github.com/rs/zerolog"
)

// jsluice renders non-literal parts of a URL expression as EXPR.
const jsluiceExpressionMarker = "EXPR"

// ScriptLinkExtractor finds same-origin URLs referenced from JavaScript.
type ScriptLinkExtractor struct {
	origin *url.URL
	logger zerolog.Logger
}

// NewScriptLinkExtractor creates an extractor that keeps links on origin.
func NewScriptLinkExtractor(origin *url.URL, logger zerolog.Logger) *ScriptLinkExtractor {
	return &ScriptLinkExtractor{
		origin: origin,
		logger: logger.With().Str("module", "ScriptLinkExtractor").Logger(),
	}
}

// Extract returns the resolvable same-origin URLs that jsluice finds in body.
func (se *ScriptLinkExtractor) Extract(base *url.URL, body []byte) (links []string) {
	defer func() {
		if r := recover(); r != nil {
			se.logger.Debug().Interface("panic", r).Str("url", base.String()).Msg("jsluice analysis failed")
			links = nil
		}
	}()

	seen := make(map[string]struct{})
	for _, found := range jsluice.NewAnalyzer(body).GetURLs() {
		if strings.Contains(found.URL, jsluiceExpressionMarker) {
			continue
		}
		resolved, ok := urlhandler.Resolve(base, found.URL)
		if !ok || !urlhandler.SameOriginString(se.origin, resolved) {
			continue
		}
		if _, dup := seen[resolved]; dup {
			continue
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
	}
	return links
}
