package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/jsenum/internal/httpclient"
	"github.com/aleister1102/jsenum/internal/models"
	"github.com/aleister1102/jsenum/internal/secrets"
	"github.com/aleister1102/jsenum/internal/urlhandler"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "sk-abcdefghijklmnopqrstuvwxyz0123456789ABCDEFGHIJKL"

type fakePage struct {
	contentType string
	body        string
}

// fakeSite serves pages from memory and counts fetches per URL.
type fakeSite struct {
	mu      sync.Mutex
	pages   map[string]fakePage
	hits    map[string]int
	onFetch func(url string)
}

func newFakeSite(pages map[string]fakePage) *fakeSite {
	return &fakeSite{pages: pages, hits: make(map[string]int)}
}

func (s *fakeSite) Fetch(ctx context.Context, rawURL string) (*httpclient.FetchResult, error) {
	s.mu.Lock()
	s.hits[rawURL]++
	page, ok := s.pages[rawURL]
	hook := s.onFetch
	s.mu.Unlock()

	if hook != nil {
		hook(rawURL)
	}
	if !ok {
		return nil, &httpclient.FetchError{Kind: httpclient.ErrorKindHTTPStatus, URL: rawURL, StatusCode: http.StatusNotFound}
	}
	return &httpclient.FetchResult{
		URL:         rawURL,
		FinalURL:    rawURL,
		StatusCode:  http.StatusOK,
		ContentType: page.contentType,
		Body:        []byte(page.body),
	}, nil
}

func (s *fakeSite) hitCount(rawURL string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[rawURL]
}

func (s *fakeSite) fetched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.hits))
	for u := range s.hits {
		out = append(out, u)
	}
	return out
}

// timeoutFetcher reports a timeout for one URL and defers to the site otherwise.
type timeoutFetcher struct {
	*fakeSite
	slow string
}

func (f *timeoutFetcher) Fetch(ctx context.Context, rawURL string) (*httpclient.FetchResult, error) {
	if rawURL == f.slow {
		return nil, &httpclient.FetchError{Kind: httpclient.ErrorKindTimeout, URL: rawURL, Err: context.DeadlineExceeded}
	}
	return f.fakeSite.Fetch(ctx, rawURL)
}

type recordingObserver struct {
	mu         sync.Mutex
	discovered []string
	visited    []string
	failed     []string
	findings   []models.Finding
}

func (r *recordingObserver) OnDiscovered(item models.WorkItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discovered = append(r.discovered, item.URL)
}

func (r *recordingObserver) OnVisit(item models.WorkItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visited = append(r.visited, item.URL)
}

func (r *recordingObserver) OnFetchFailed(item models.WorkItem, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, item.URL)
}

func (r *recordingObserver) OnFinding(f models.Finding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findings = append(r.findings, f)
}

func html(body string) fakePage {
	return fakePage{contentType: "text/html; charset=utf-8", body: "<html><body>" + body + "</body></html>"}
}

func script(body string) fakePage {
	return fakePage{contentType: "application/javascript", body: body}
}

func newTestCoordinator(cfg CoordinatorConfig, site *fakeSite, obs Observer) *Coordinator {
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}
	if cfg.DequeueWait == 0 {
		cfg.DequeueWait = 100 * time.Millisecond
	}
	scanner := secrets.NewScanner(secrets.NewRegistry(secrets.DefaultPatterns(), true))
	return NewCoordinator(cfg, site, scanner, obs, zerolog.Nop())
}

func TestCoordinator_FetchesEachAssetAtMostOnce(t *testing.T) {
	var links strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&links, `<a href="/page">p</a><script src="/app.js?v=%d"></script>`, i)
	}

	site := newFakeSite(map[string]fakePage{
		"https://example.com/":           html(links.String()),
		"https://example.com/page":       html(`<a href="/">home</a><script src="/app.js"></script>`),
		"https://example.com/app.js?v=0": script("console.log('hi')"),
	})

	c := newTestCoordinator(CoordinatorConfig{MaxDepth: 3, Workers: 8}, site, nil)
	result, err := c.Run(context.Background(), "https://example.com/")
	require.NoError(t, err)

	for _, u := range site.fetched() {
		assert.Equal(t, 1, site.hitCount(u), "fetched more than once: %s", u)
	}
	assert.Equal(t, 1, site.hitCount("https://example.com/app.js?v=0"))
	assert.Equal(t, 0, site.hitCount("https://example.com/app.js"))
	assert.Equal(t, int64(3), result.Stats.AssetsDiscovered)
	assert.Equal(t, int64(3), result.Stats.AssetsFetched)
	assert.Equal(t, StateStopped, c.State())
}

func TestCoordinator_RootVariantsShareOneFetch(t *testing.T) {
	tests := []struct {
		name string
		seed string
	}{
		{name: "bare host seed", seed: "example.com"},
		{name: "seed without path", seed: "https://example.com"},
		{name: "seed with default port", seed: "https://example.com:443/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := newFakeSite(map[string]fakePage{
				"https://example.com/": html(`
<a href="https://example.com">home</a>
<a href="https://example.com:443/">home again</a>
<a href="HTTPS://EXAMPLE.COM:443">shouting</a>
<a href="/">root</a>`),
			})

			c := newTestCoordinator(CoordinatorConfig{MaxDepth: 2}, site, nil)
			result, err := c.Run(context.Background(), tt.seed)
			require.NoError(t, err)

			assert.Equal(t, []string{"https://example.com/"}, site.fetched())
			assert.Equal(t, 1, site.hitCount("https://example.com/"))
			assert.Equal(t, int64(1), result.Stats.AssetsDiscovered)
		})
	}
}

func TestCoordinator_RespectsDepthBound(t *testing.T) {
	site := newFakeSite(map[string]fakePage{
		"https://example.com/":  html(`<a href="/b">b</a>`),
		"https://example.com/b": html(`<a href="/c">c</a>`),
		"https://example.com/c": html(`<a href="/d">d</a>`),
		"https://example.com/d": html(``),
	})

	c := newTestCoordinator(CoordinatorConfig{MaxDepth: 2}, site, nil)
	result, err := c.Run(context.Background(), "https://example.com/")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"https://example.com/",
		"https://example.com/b",
		"https://example.com/c",
	}, site.fetched())
	assert.Equal(t, int64(3), result.Stats.AssetsDiscovered)
}

func TestCoordinator_DepthZeroFetchesOnlySeed(t *testing.T) {
	site := newFakeSite(map[string]fakePage{
		"https://example.com/": html(`<a href="/b">b</a>`),
	})

	c := newTestCoordinator(CoordinatorConfig{MaxDepth: 0}, site, nil)
	_, err := c.Run(context.Background(), "https://example.com/")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/"}, site.fetched())
}

func TestCoordinator_StaysOnOrigin(t *testing.T) {
	site := newFakeSite(map[string]fakePage{
		"https://example.com/": html(`
<script src="https://cdn.other.net/lib.js"></script>
<a href="http://example.com/plain">plain</a>
<script src="/local.js"></script>`),
		"https://example.com/local.js": script(""),
	})

	c := newTestCoordinator(CoordinatorConfig{MaxDepth: 3}, site, nil)
	_, err := c.Run(context.Background(), "https://example.com/")
	require.NoError(t, err)

	for _, u := range site.fetched() {
		assert.True(t, strings.HasPrefix(u, "https://example.com/"), "left origin: %s", u)
	}
	assert.Equal(t, 1, site.hitCount("https://example.com/local.js"))
}

func TestCoordinator_ScansScriptsAndReportsFindings(t *testing.T) {
	site := newFakeSite(map[string]fakePage{
		"https://example.com/": html(`<script src="/static/app.js"></script>`),
		"https://example.com/static/app.js": script(
			"var a = 1;\nconst key = \"" + testSecret + "\";\n"),
	})
	obs := &recordingObserver{}

	c := newTestCoordinator(CoordinatorConfig{MaxDepth: 3}, site, obs)
	result, err := c.Run(context.Background(), "https://example.com/")
	require.NoError(t, err)

	require.NotEmpty(t, result.Findings)
	assert.Equal(t, len(result.Findings), result.Stats.FindingsCount)
	assert.Len(t, obs.findings, len(result.Findings))

	byService := models.FindingsByService(result.Findings)
	require.Contains(t, byService, "Any sk- key")
	f := byService["Any sk- key"][0]
	assert.Equal(t, testSecret, f.SecretValue)
	assert.Equal(t, "https://example.com/static/app.js", f.SourceURL)
	assert.Equal(t, 2, f.LineNumber)
	assert.False(t, f.FoundAt.IsZero())
}

func TestCoordinator_HTMLPagesAreNotScanned(t *testing.T) {
	site := newFakeSite(map[string]fakePage{
		"https://example.com/": html(`<p>` + testSecret + `</p>`),
	})

	c := newTestCoordinator(CoordinatorConfig{MaxDepth: 1}, site, nil)
	result, err := c.Run(context.Background(), "https://example.com/")
	require.NoError(t, err)
	assert.Empty(t, result.Findings)
}

func TestCoordinator_RoutesByContentType(t *testing.T) {
	site := newFakeSite(map[string]fakePage{
		"https://example.com/": html(`<script src="/bundle"></script><a href="/sniffed">s</a>`),
		"https://example.com/bundle": {
			contentType: "text/javascript",
			body:        "const k = \"" + testSecret + "\";",
		},
		"https://example.com/sniffed": {
			body: `<!DOCTYPE html><html><body><a href="/deep">deep</a></body></html>`,
		},
		"https://example.com/deep": html(``),
	})

	c := newTestCoordinator(CoordinatorConfig{MaxDepth: 3}, site, nil)
	result, err := c.Run(context.Background(), "https://example.com/")
	require.NoError(t, err)

	assert.NotEmpty(t, result.Findings)
	assert.Equal(t, 1, site.hitCount("https://example.com/deep"))
}

func TestCoordinator_CountsFailedFetches(t *testing.T) {
	site := newFakeSite(map[string]fakePage{
		"https://example.com/": html(`<a href="/missing">m</a><script src="/gone.js"></script>`),
	})
	obs := &recordingObserver{}

	c := newTestCoordinator(CoordinatorConfig{MaxDepth: 2}, site, obs)
	result, err := c.Run(context.Background(), "https://example.com/")
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.Stats.AssetsFetched)
	assert.Equal(t, int64(2), result.Stats.AssetsFailed)
	assert.ElementsMatch(t, []string{"https://example.com/missing", "https://example.com/gone.js"}, obs.failed)
}

func TestCoordinator_LogsTimeoutsAsWarnings(t *testing.T) {
	site := newFakeSite(map[string]fakePage{
		"https://example.com/": html(`<a href="/slow">slow</a><a href="/missing">missing</a>`),
	})
	slow := &timeoutFetcher{fakeSite: site, slow: "https://example.com/slow"}

	var logs bytes.Buffer
	scanner := secrets.NewScanner(secrets.NewRegistry(secrets.DefaultPatterns(), true))
	c := NewCoordinator(CoordinatorConfig{MaxDepth: 1, Workers: 2, DequeueWait: 100 * time.Millisecond},
		slow, scanner, nil, zerolog.New(&logs).Level(zerolog.WarnLevel))

	result, err := c.Run(context.Background(), "https://example.com/")
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.Stats.AssetsFailed)
	assert.Contains(t, logs.String(), "Fetch timed out")
	assert.Contains(t, logs.String(), "https://example.com/slow")
	assert.NotContains(t, logs.String(), "https://example.com/missing")
}

func TestCoordinator_SinglePageDrainsPromptly(t *testing.T) {
	site := newFakeSite(map[string]fakePage{
		"https://example.com/": html(`no links here`),
	})

	c := newTestCoordinator(CoordinatorConfig{MaxDepth: 3, Workers: 10, DequeueWait: 5 * time.Second}, site, nil)

	start := time.Now()
	result, err := c.Run(context.Background(), "https://example.com/")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int64(1), result.Stats.AssetsFetched)
	assert.False(t, result.Stats.Interrupted)
	assert.Equal(t, StateStopped, c.State())
}

func TestCoordinator_StopsOnCancellation(t *testing.T) {
	var links strings.Builder
	pages := map[string]fakePage{}
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&links, `<a href="/p%d">p</a>`, i)
		pages[fmt.Sprintf("https://example.com/p%d", i)] = html(``)
	}
	pages["https://example.com/"] = html(links.String())
	site := newFakeSite(pages)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var once sync.Once
	var fetches int
	var mu sync.Mutex
	site.onFetch = func(string) {
		mu.Lock()
		fetches++
		n := fetches
		mu.Unlock()
		if n >= 5 {
			once.Do(cancel)
		}
	}

	c := newTestCoordinator(CoordinatorConfig{MaxDepth: 1, Workers: 2}, site, nil)

	done := make(chan *Result, 1)
	go func() {
		result, err := c.Run(ctx, "https://example.com/")
		assert.NoError(t, err)
		done <- result
	}()

	select {
	case result := <-done:
		require.NotNil(t, result)
		assert.True(t, result.Stats.Interrupted)
		assert.Less(t, result.Stats.AssetsFetched, int64(201))
		assert.Equal(t, StateStopped, c.State())
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator did not stop after cancellation")
	}
}

func TestCoordinator_PreCancelledContextFetchesNothing(t *testing.T) {
	site := newFakeSite(map[string]fakePage{"https://example.com/": html(``)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestCoordinator(CoordinatorConfig{MaxDepth: 1}, site, nil)
	result, err := c.Run(ctx, "https://example.com/")
	require.NoError(t, err)

	assert.True(t, result.Stats.Interrupted)
	assert.Zero(t, result.Stats.AssetsFetched)
	assert.Empty(t, site.fetched())
}

func TestCoordinator_RunsOnce(t *testing.T) {
	site := newFakeSite(map[string]fakePage{"https://example.com/": html(``)})
	c := newTestCoordinator(CoordinatorConfig{}, site, nil)

	assert.Equal(t, StateIdle, c.State())
	_, err := c.Run(context.Background(), "https://example.com/")
	require.NoError(t, err)

	_, err = c.Run(context.Background(), "https://example.com/")
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestCoordinator_RejectsInvalidSeed(t *testing.T) {
	c := newTestCoordinator(CoordinatorConfig{}, newFakeSite(nil), nil)

	_, err := c.Run(context.Background(), "ftp://example.com")
	assert.True(t, errors.Is(err, urlhandler.ErrInvalidSeed))
	assert.Equal(t, StateIdle, c.State())
}

func TestCoordinator_AssetFilter(t *testing.T) {
	pages := map[string]fakePage{
		"https://example.com/":         html(`<a href="/about">a</a><script src="/app.js"></script>`),
		"https://example.com/about":    html(`<script src="/about.js"></script>`),
		"https://example.com/app.js":   script("k = \"" + testSecret + "\""),
		"https://example.com/about.js": script(""),
	}

	t.Run("page only skips scripts", func(t *testing.T) {
		site := newFakeSite(pages)
		obs := &recordingObserver{}
		c := newTestCoordinator(CoordinatorConfig{MaxDepth: 3, AssetFilter: []string{"page"}}, site, obs)

		result, err := c.Run(context.Background(), "https://example.com/")
		require.NoError(t, err)

		assert.Empty(t, result.Findings)
		assert.Zero(t, site.hitCount("https://example.com/app.js"))
		assert.ElementsMatch(t, []string{"https://example.com/", "https://example.com/about"}, obs.visited)
	})

	t.Run("js only still walks pages", func(t *testing.T) {
		site := newFakeSite(pages)
		obs := &recordingObserver{}
		c := newTestCoordinator(CoordinatorConfig{MaxDepth: 3, AssetFilter: []string{"JS"}}, site, obs)

		result, err := c.Run(context.Background(), "https://example.com/")
		require.NoError(t, err)

		assert.NotEmpty(t, result.Findings)
		assert.Equal(t, 1, site.hitCount("https://example.com/about.js"))
		assert.ElementsMatch(t, []string{"https://example.com/app.js", "https://example.com/about.js"}, obs.visited)
	})
}

func TestCoordinator_FollowScriptURLs(t *testing.T) {
	pages := map[string]fakePage{
		"https://example.com/":              html(`<script src="/app.js"></script>`),
		"https://example.com/app.js":        script(`fetch("/api/config.js");`),
		"https://example.com/api/config.js": script("k = \"" + testSecret + "\""),
	}

	site := newFakeSite(pages)
	c := newTestCoordinator(CoordinatorConfig{MaxDepth: 3}, site, nil)
	_, err := c.Run(context.Background(), "https://example.com/")
	require.NoError(t, err)
	assert.Zero(t, site.hitCount("https://example.com/api/config.js"))

	site = newFakeSite(pages)
	c = newTestCoordinator(CoordinatorConfig{MaxDepth: 3, FollowScriptURLs: true}, site, nil)
	result, err := c.Run(context.Background(), "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, 1, site.hitCount("https://example.com/api/config.js"))
	assert.NotEmpty(t, result.Findings)
}

func TestCoordinator_CrawlsLiveSite(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
<a href="/docs">docs</a>
<a href="/missing">missing</a>
<script src="/static/app.js?v=1"></script>
</body></html>`))
	})
	mux.HandleFunc("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<a href="/">home</a><script src="/static/app.js?v=2"></script>`))
	})
	mux.HandleFunc("/static/app.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write([]byte("// config\nwindow.OPENAI_API_KEY = \"" + testSecret + "\";\n"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := httpclient.DefaultHTTPClientConfig()
	cfg.Timeout = 5 * time.Second
	fetcher, err := httpclient.NewFetcher(cfg, zerolog.Nop())
	require.NoError(t, err)

	scanner := secrets.NewScanner(secrets.NewRegistry(secrets.DefaultPatterns(), true))
	obs := &recordingObserver{}
	c := NewCoordinator(CoordinatorConfig{MaxDepth: 3, Workers: 4, DequeueWait: 200 * time.Millisecond},
		fetcher, scanner, obs, zerolog.Nop())

	result, err := c.Run(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, int64(4), result.Stats.AssetsDiscovered)
	assert.Equal(t, int64(3), result.Stats.AssetsFetched)
	assert.Equal(t, int64(1), result.Stats.AssetsFailed)

	byService := models.FindingsByService(result.Findings)
	require.Contains(t, byService, "Hard-coded Key")
	assert.Equal(t, testSecret, byService["Hard-coded Key"][0].SecretValue)
	assert.Equal(t, server.URL+"/static/app.js?v=1", byService["Hard-coded Key"][0].SourceURL)
}
