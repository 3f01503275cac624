package crawler

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aleister1102/jsenum/internal/common/errorwrapper"
	"github.com/aleister1102/jsenum/internal/config"
	"github.com/aleister1102/jsenum/internal/httpclient"
	"github.com/aleister1102/jsenum/internal/models"
	"github.com/aleister1102/jsenum/internal/urlhandler"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrAlreadyStarted is returned when Run is called more than once.
var ErrAlreadyStarted = errors.New("coordinator already started")

// State is the lifecycle phase of a Coordinator.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Fetcher retrieves a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*httpclient.FetchResult, error)
}

// Scanner finds secrets in a fetched body.
type Scanner interface {
	Scan(sourceURL string, body []byte) []models.Finding
}

// CoordinatorConfig controls a crawl.
type CoordinatorConfig struct {
	MaxDepth    int
	Workers     int
	DequeueWait time.Duration
	// AssetFilter holds log tags ("JS", "PAGE"). Empty means everything.
	AssetFilter      []string
	FollowScriptURLs bool
}

// CoordinatorConfigFrom maps the crawler section of the global config.
func CoordinatorConfigFrom(cfg config.CrawlerConfig) CoordinatorConfig {
	return CoordinatorConfig{
		MaxDepth:         cfg.MaxDepth,
		Workers:          cfg.Workers,
		DequeueWait:      config.DefaultCrawlerDequeueWait,
		AssetFilter:      cfg.AssetFilter,
		FollowScriptURLs: cfg.FollowScriptURLs,
	}
}

// Result is what a finished crawl hands back.
type Result struct {
	Findings []models.Finding
	Stats    models.CrawlStats
}

// Coordinator drives the worker pool over the frontier.
type Coordinator struct {
	cfg      CoordinatorConfig
	fetcher  Fetcher
	scanner  Scanner
	observer Observer
	logger   zerolog.Logger

	frontier    *Frontier
	links       *LinkExtractor
	scriptLinks *ScriptLinkExtractor
	filter      map[string]struct{}
	// wantScripts is false when a filter excludes JS; scripts are then
	// neither queued nor scanned.
	wantScripts bool

	state            atomic.Int32
	assetsDiscovered atomic.Int64
	assetsFetched    atomic.Int64
	assetsFailed     atomic.Int64

	findingsMu sync.Mutex
	findings   []models.Finding
}

// NewCoordinator creates a coordinator. A nil observer is replaced with
// NopObserver.
func NewCoordinator(cfg CoordinatorConfig, fetcher Fetcher, scanner Scanner, observer Observer, logger zerolog.Logger) *Coordinator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}
	if cfg.DequeueWait <= 0 {
		cfg.DequeueWait = config.DefaultCrawlerDequeueWait
	}
	if observer == nil {
		observer = NopObserver{}
	}

	filter := make(map[string]struct{}, len(cfg.AssetFilter))
	for _, tag := range cfg.AssetFilter {
		tag = strings.ToUpper(strings.TrimSpace(tag))
		if tag != "" {
			filter[tag] = struct{}{}
		}
	}
	_, wantsScripts := filter[models.TagScript]

	return &Coordinator{
		cfg:         cfg,
		fetcher:     fetcher,
		scanner:     scanner,
		observer:    observer,
		logger:      logger.With().Str("module", "Coordinator").Logger(),
		frontier:    NewFrontier(),
		filter:      filter,
		wantScripts: len(filter) == 0 || wantsScripts,
	}
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Run crawls from seed until the frontier drains or ctx is cancelled. It
// returns once every worker has exited. Cancellation is not an error; the
// result is marked interrupted instead.
func (c *Coordinator) Run(ctx context.Context, seed string) (*Result, error) {
	seedURL, err := urlhandler.NormalizeSeed(seed)
	if err != nil {
		return nil, err
	}
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return nil, ErrAlreadyStarted
	}
	defer c.state.Store(int32(StateStopped))

	c.links = NewLinkExtractor(seedURL)
	if c.cfg.FollowScriptURLs {
		c.scriptLinks = NewScriptLinkExtractor(seedURL, c.logger)
	}

	started := time.Now()
	c.logger.Info().
		Str("seed", seedURL.String()).
		Int("max_depth", c.cfg.MaxDepth).
		Int("workers", c.cfg.Workers).
		Msg("Crawl started")

	c.enqueue(seedURL.String(), 0)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.cfg.Workers; i++ {
		g.Go(func() error {
			c.worker(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errorwrapper.WrapError(err, "crawl workers failed")
	}

	result := &Result{
		Findings: c.Findings(),
		Stats: models.CrawlStats{
			SeedURL:          seedURL.String(),
			AssetsDiscovered: c.assetsDiscovered.Load(),
			AssetsFetched:    c.assetsFetched.Load(),
			AssetsFailed:     c.assetsFailed.Load(),
			StartedAt:        started,
			Duration:         time.Since(started),
			Interrupted:      ctx.Err() != nil,
		},
	}
	result.Stats.FindingsCount = len(result.Findings)

	c.logger.Info().
		Int64("discovered", result.Stats.AssetsDiscovered).
		Int64("fetched", result.Stats.AssetsFetched).
		Int64("failed", result.Stats.AssetsFailed).
		Int("findings", result.Stats.FindingsCount).
		Dur("duration", result.Stats.Duration).
		Bool("interrupted", result.Stats.Interrupted).
		Msg("Crawl finished")

	return result, nil
}

// Findings returns a copy of the findings recorded so far.
func (c *Coordinator) Findings() []models.Finding {
	c.findingsMu.Lock()
	defer c.findingsMu.Unlock()
	out := make([]models.Finding, len(c.findings))
	copy(out, c.findings)
	return out
}

func (c *Coordinator) worker(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			c.beginDraining()
			return
		}
		item, ok := c.frontier.Dequeue(ctx, c.cfg.DequeueWait)
		if !ok {
			if ctx.Err() != nil || c.frontier.Drained() {
				c.beginDraining()
				return
			}
			continue
		}
		c.process(ctx, item)
		c.frontier.Done()
	}
}

func (c *Coordinator) beginDraining() {
	c.state.CompareAndSwap(int32(StateRunning), int32(StateDraining))
}

func (c *Coordinator) enqueue(rawURL string, depth int) {
	if !c.wantScripts && urlhandler.Tag(rawURL) == models.TagScript {
		return
	}
	item, ok := c.frontier.push(rawURL, depth)
	if !ok {
		return
	}
	c.assetsDiscovered.Add(1)
	c.observer.OnDiscovered(item)
}

func (c *Coordinator) visible(item models.WorkItem) bool {
	if len(c.filter) == 0 {
		return true
	}
	_, ok := c.filter[item.Tag()]
	return ok
}

func (c *Coordinator) process(ctx context.Context, item models.WorkItem) {
	if c.visible(item) {
		c.observer.OnVisit(item)
	}

	result, err := c.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		c.assetsFailed.Add(1)
		if httpclient.IsFetchErrorKind(err, httpclient.ErrorKindTimeout) {
			c.logger.Warn().Err(err).Str("url", item.URL).Int("depth", item.Depth).Msg("Fetch timed out")
		} else {
			c.logger.Debug().Err(err).Str("url", item.URL).Msg("Fetch failed")
		}
		c.observer.OnFetchFailed(item, err)
		return
	}
	c.assetsFetched.Add(1)

	base, err := url.Parse(result.FinalURL)
	if err != nil || result.FinalURL == "" {
		base, _ = url.Parse(item.URL)
	}
	canExpand := item.Depth < c.cfg.MaxDepth

	switch {
	case isScript(item, result):
		if c.wantScripts {
			c.record(c.scanner.Scan(item.URL, result.Body))
		}
		if c.scriptLinks != nil && canExpand {
			for _, link := range c.scriptLinks.Extract(base, result.Body) {
				c.enqueue(link, item.Depth+1)
			}
		}
	case isHTML(result):
		if canExpand {
			for _, link := range c.links.Extract(base, result.Body) {
				c.enqueue(link, item.Depth+1)
			}
		}
	}
}

func (c *Coordinator) record(found []models.Finding) {
	if len(found) == 0 {
		return
	}
	now := time.Now()
	c.findingsMu.Lock()
	for i := range found {
		found[i].FoundAt = now
	}
	c.findings = append(c.findings, found...)
	c.findingsMu.Unlock()

	for _, f := range found {
		c.observer.OnFinding(f)
	}
}

func isScript(item models.WorkItem, result *httpclient.FetchResult) bool {
	if item.Type == models.AssetTypeScript {
		return true
	}
	ct := strings.ToLower(result.ContentType)
	return strings.Contains(ct, "javascript") || strings.Contains(ct, "ecmascript")
}

func isHTML(result *httpclient.FetchResult) bool {
	ct := strings.ToLower(result.ContentType)
	if ct == "" {
		return mimetype.Detect(result.Body).Is("text/html")
	}
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
