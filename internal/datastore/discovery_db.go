package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/jsenum/internal/common/errorwrapper"
	"github.com/aleister1102/jsenum/internal/models"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Run statuses stored in crawl_runs.
const (
	RunStatusStarted     = "STARTED"
	RunStatusCompleted   = "COMPLETED"
	RunStatusInterrupted = "INTERRUPTED"
)

// Asset statuses stored in discovered_assets.
const (
	AssetStatusQueued  = "queued"
	AssetStatusVisited = "visited"
	AssetStatusFailed  = "failed"
)

const assetHashLength = 16

// DiscoveryDB keeps a per-run history of discovered assets and run totals
// in SQLite. It is a record of what happened, never a resume point.
type DiscoveryDB struct {
	db      *sql.DB
	logger  zerolog.Logger
	hashGen *URLHashGenerator
}

// RunRecord is a row of crawl_runs.
type RunRecord struct {
	RunID            string
	SeedURL          string
	StartedAt        time.Time
	FinishedAt       sql.NullTime
	Status           string
	AssetsDiscovered int64
	AssetsFetched    int64
	AssetsFailed     int64
	FindingsCount    int
	FindingsFile     sql.NullString
}

// AssetRecord is a row of discovered_assets.
type AssetRecord struct {
	URL       string
	URLKey    string
	URLHash   string
	Depth     int
	AssetType models.AssetType
	Status    string
	Findings  int
}

// NewDiscoveryDB opens (creating if needed) the database at dataSourceName
// and ensures the schema exists.
func NewDiscoveryDB(dataSourceName string, logger zerolog.Logger) (*DiscoveryDB, error) {
	log := logger.With().Str("module", "DiscoveryDB").Logger()

	dbDir := filepath.Dir(dataSourceName)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create discovery database directory %s: %w", dbDir, err)
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", dataSourceName, err)
	}
	// Observer callbacks arrive from every worker; one connection keeps
	// SQLite writes serialized.
	dbInstance.SetMaxOpenConns(1)

	d := &DiscoveryDB{
		db:      dbInstance,
		logger:  log,
		hashGen: NewURLHashGenerator(assetHashLength),
	}
	if err := d.InitSchema(); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Debug().Str("path", dataSourceName).Msg("Discovery database ready")
	return d, nil
}

// Close closes the database connection.
func (d *DiscoveryDB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// InitSchema creates the tables if they do not exist.
func (d *DiscoveryDB) InitSchema() error {
	const query = `
	CREATE TABLE IF NOT EXISTS crawl_runs (
		run_id TEXT PRIMARY KEY,
		seed_url TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		status TEXT NOT NULL,
		assets_discovered INTEGER DEFAULT 0,
		assets_fetched INTEGER DEFAULT 0,
		assets_failed INTEGER DEFAULT 0,
		findings_count INTEGER DEFAULT 0,
		findings_file TEXT
	);
	CREATE TABLE IF NOT EXISTS discovered_assets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		url TEXT NOT NULL,
		url_key TEXT NOT NULL,
		url_hash TEXT NOT NULL,
		depth INTEGER NOT NULL,
		asset_type TEXT NOT NULL,
		status TEXT NOT NULL,
		findings INTEGER DEFAULT 0,
		discovered_at DATETIME NOT NULL,
		UNIQUE(run_id, url_key)
	);
	CREATE INDEX IF NOT EXISTS idx_discovered_assets_run ON discovered_assets(run_id);
	`
	if _, err := d.db.Exec(query); err != nil {
		d.logger.Error().Err(err).Msg("Failed to initialize schema")
		return err
	}
	return nil
}

// StartRun inserts a run in STARTED state.
func (d *DiscoveryDB) StartRun(ctx context.Context, runID, seedURL string, startedAt time.Time) error {
	const query = `INSERT INTO crawl_runs (run_id, seed_url, started_at, status) VALUES (?, ?, ?, ?)`
	if _, err := d.db.ExecContext(ctx, query, runID, seedURL, startedAt, RunStatusStarted); err != nil {
		return fmt.Errorf("failed to insert crawl run %s: %w", runID, err)
	}
	d.logger.Debug().Str("run_id", runID).Str("seed", seedURL).Msg("Recorded run start")
	return nil
}

// FinishRun stores the final totals of a run.
func (d *DiscoveryDB) FinishRun(ctx context.Context, stats models.CrawlStats, findingsFile string) error {
	status := RunStatusCompleted
	if stats.Interrupted {
		status = RunStatusInterrupted
	}

	const query = `UPDATE crawl_runs SET finished_at = ?, status = ?, assets_discovered = ?, assets_fetched = ?,
		assets_failed = ?, findings_count = ?, findings_file = ? WHERE run_id = ?`
	res, err := d.db.ExecContext(ctx, query,
		stats.StartedAt.Add(stats.Duration), status,
		stats.AssetsDiscovered, stats.AssetsFetched, stats.AssetsFailed, stats.FindingsCount,
		sql.NullString{String: findingsFile, Valid: findingsFile != ""},
		stats.RunID)
	if err != nil {
		return fmt.Errorf("failed to update crawl run %s: %w", stats.RunID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("crawl run %s: %w", stats.RunID, errorwrapper.ErrNotFound)
	}
	d.logger.Debug().Str("run_id", stats.RunID).Str("status", status).Msg("Recorded run completion")
	return nil
}

// GetRun loads a run by ID.
func (d *DiscoveryDB) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	const query = `SELECT run_id, seed_url, started_at, finished_at, status, assets_discovered, assets_fetched,
		assets_failed, findings_count, findings_file FROM crawl_runs WHERE run_id = ?`

	var r RunRecord
	err := d.db.QueryRowContext(ctx, query, runID).Scan(
		&r.RunID, &r.SeedURL, &r.StartedAt, &r.FinishedAt, &r.Status,
		&r.AssetsDiscovered, &r.AssetsFetched, &r.AssetsFailed, &r.FindingsCount, &r.FindingsFile)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("crawl run %s: %w", runID, errorwrapper.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load crawl run %s: %w", runID, err)
	}
	return &r, nil
}

// ListAssets returns the assets of a run in discovery order.
func (d *DiscoveryDB) ListAssets(ctx context.Context, runID string) ([]AssetRecord, error) {
	const query = `SELECT url, url_key, url_hash, depth, asset_type, status, findings
		FROM discovered_assets WHERE run_id = ? ORDER BY id`

	rows, err := d.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets for run %s: %w", runID, err)
	}
	defer rows.Close()

	var assets []AssetRecord
	for rows.Next() {
		var a AssetRecord
		var assetType string
		if err := rows.Scan(&a.URL, &a.URLKey, &a.URLHash, &a.Depth, &assetType, &a.Status, &a.Findings); err != nil {
			return nil, fmt.Errorf("failed to scan asset row: %w", err)
		}
		a.AssetType = models.ParseAssetType(assetType)
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// Recorder returns a crawl observer that writes events for runID.
func (d *DiscoveryDB) Recorder(runID string) *RunRecorder {
	return &RunRecorder{db: d, runID: runID}
}

// RunRecorder records crawl events of one run. Write failures are logged and
// never interrupt the crawl.
//
// Events for one asset may arrive out of order: a worker can visit an item
// before the discovering worker has recorded it. Discovery never overwrites
// an existing row and status changes insert the row when it is missing, so
// the later status always wins.
type RunRecorder struct {
	db    *DiscoveryDB
	runID string
}

func (r *RunRecorder) OnDiscovered(item models.WorkItem) {
	const query = `INSERT INTO discovered_assets
		(run_id, url, url_key, url_hash, depth, asset_type, status, discovered_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, url_key) DO NOTHING`
	_, err := r.db.db.Exec(query, r.runID, item.URL, item.Key, r.db.hashGen.GenerateHash(item.Key),
		item.Depth, item.Type.String(), AssetStatusQueued, time.Now())
	r.logFailure(err, item.URL, "record discovered asset")
}

func (r *RunRecorder) OnVisit(item models.WorkItem) {
	r.setStatus(item, AssetStatusVisited)
}

func (r *RunRecorder) OnFetchFailed(item models.WorkItem, _ error) {
	r.setStatus(item, AssetStatusFailed)
}

func (r *RunRecorder) OnFinding(finding models.Finding) {
	const query = `UPDATE discovered_assets SET findings = findings + 1 WHERE run_id = ? AND url = ?`
	_, err := r.db.db.Exec(query, r.runID, finding.SourceURL)
	r.logFailure(err, finding.SourceURL, "record finding")
}

func (r *RunRecorder) setStatus(item models.WorkItem, status string) {
	const query = `INSERT INTO discovered_assets
		(run_id, url, url_key, url_hash, depth, asset_type, status, discovered_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, url_key) DO UPDATE SET status = excluded.status`
	_, err := r.db.db.Exec(query, r.runID, item.URL, item.Key, r.db.hashGen.GenerateHash(item.Key),
		item.Depth, item.Type.String(), status, time.Now())
	r.logFailure(err, item.URL, "update asset status")
}

func (r *RunRecorder) logFailure(err error, url, action string) {
	if err != nil {
		r.db.logger.Warn().Err(err).Str("run_id", r.runID).Str("url", url).Msg("Failed to " + action)
	}
}
