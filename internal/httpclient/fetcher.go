package httpclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aleister1102/jsenum/internal/urlhandler"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

const maxRedirects = 10

// colly.Context keys used to hand response data back to Fetch.
const (
	ctxKeyBody        = "body"
	ctxKeyContentType = "content_type"
	ctxKeyStatus      = "status"
	ctxKeyFinalURL    = "final_url"
)

// FetchResult is a successfully retrieved asset.
type FetchResult struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher performs single GET requests through a synchronous colly collector.
// Deduplication is left to the caller, so revisits are allowed. Safe for
// concurrent use.
type Fetcher struct {
	collector *colly.Collector
	agents    *UserAgentPool
	logger    zerolog.Logger
}

// NewFetcher creates a Fetcher from the given configuration.
func NewFetcher(cfg HTTPClientConfig, logger zerolog.Logger) (*Fetcher, error) {
	log := logger.With().Str("module", "Fetcher").Logger()

	transport, err := NewTransport(cfg, log)
	if err != nil {
		return nil, err
	}

	options := []colly.CollectorOption{
		colly.AllowURLRevisit(),
		colly.MaxBodySize(cfg.MaxContentSize),
	}
	if !cfg.RespectRobotsTxt {
		options = append(options, colly.IgnoreRobotsTxt())
	}

	collector := colly.NewCollector(options...)
	if cfg.RespectRobotsTxt {
		collector.IgnoreRobotsTxt = false
	}
	// Status codes are judged in Fetch; colly alone rejects everything from 203 up.
	collector.ParseHTTPErrorResponse = true
	collector.WithTransport(transport)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.SetRedirectHandler(sameOriginRedirect)

	f := &Fetcher{
		collector: collector,
		agents:    NewUserAgentPool(cfg.UserAgents),
		logger:    log,
	}
	collector.OnResponse(f.handleResponse)
	collector.OnError(f.handleError)

	log.Debug().
		Dur("timeout", cfg.Timeout).
		Bool("insecure_skip_verify", cfg.InsecureSkipVerify).
		Bool("respect_robots_txt", cfg.RespectRobotsTxt).
		Int("max_content_size", cfg.MaxContentSize).
		Int("user_agents", len(f.agents.agents)).
		Msg("Fetcher created")

	return f, nil
}

// Fetch issues one GET for rawURL. There are no retries; every failure is
// returned as a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, newFetchError(rawURL, 0, err)
	}

	hdr := http.Header{}
	hdr.Set("User-Agent", f.agents.Pick())

	cctx := colly.NewContext()
	err := f.collector.Request(http.MethodGet, rawURL, nil, cctx, hdr)
	status, _ := cctx.GetAny(ctxKeyStatus).(int)
	if err == nil && !isSuccessStatus(status) {
		err = fmt.Errorf("unexpected status %d", status)
	}
	if err != nil {
		fe := newFetchError(rawURL, status, err)
		f.logger.Debug().Str("url", rawURL).Str("kind", fe.Kind.String()).Int("status", status).Err(err).Msg("Fetch failed")
		return nil, fe
	}

	body, _ := cctx.GetAny(ctxKeyBody).([]byte)
	finalURL := cctx.Get(ctxKeyFinalURL)
	if finalURL == "" {
		finalURL = rawURL
	}

	return &FetchResult{
		URL:         rawURL,
		FinalURL:    finalURL,
		StatusCode:  status,
		ContentType: cctx.Get(ctxKeyContentType),
		Body:        body,
	}, nil
}

func (f *Fetcher) handleResponse(r *colly.Response) {
	r.Ctx.Put(ctxKeyStatus, r.StatusCode)
	r.Ctx.Put(ctxKeyBody, r.Body)
	if r.Headers != nil {
		r.Ctx.Put(ctxKeyContentType, r.Headers.Get("Content-Type"))
	}
	if r.Request != nil && r.Request.URL != nil {
		r.Ctx.Put(ctxKeyFinalURL, r.Request.URL.String())
	}
}

func (f *Fetcher) handleError(r *colly.Response, _ error) {
	if r == nil || r.Ctx == nil {
		return
	}
	r.Ctx.Put(ctxKeyStatus, r.StatusCode)
}

func isSuccessStatus(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

// sameOriginRedirect follows redirects that stay on the requested origin.
// Anything else returns the redirect response itself.
func sameOriginRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return http.ErrUseLastResponse
	}
	if len(via) > 0 && !urlhandler.SameOrigin(via[0].URL, req.URL) {
		return http.ErrUseLastResponse
	}
	return nil
}
