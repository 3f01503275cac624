package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aleister1102/jsenum/internal/common/errorwrapper"
	"github.com/aleister1102/jsenum/internal/config"
	"github.com/aleister1102/jsenum/internal/crawler"
	"github.com/aleister1102/jsenum/internal/datastore"
	"github.com/aleister1102/jsenum/internal/httpclient"
	"github.com/aleister1102/jsenum/internal/logger"
	"github.com/aleister1102/jsenum/internal/reporter"
	"github.com/aleister1102/jsenum/internal/rslimiter"
	"github.com/aleister1102/jsenum/internal/secrets"
	"github.com/aleister1102/jsenum/internal/urlhandler"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const runIDLayout = "20060102-150405"

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url]",
		Short: "Crawl a site and scan its scripts for secrets",
		Long: `Scan crawls same-origin pages and scripts reachable from the seed URL and
reports every credential-shaped string found in script assets.

Examples:
  # Crawl three levels deep with ten workers
  jsenum scan https://example.com

  # Only show script visits, write a markdown report
  jsenum scan -f JS -r report.md example.com

  # Keep findings and discovery history under ./database
  jsenum scan --store https://example.com

The target may also come from ARG_URL, and ARG_DEPTH, ARG_THREADS and
ARG_FILTER stand in for --depth, --workers and --filter.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScanCmd,
	}

	cmd.Flags().IntP("depth", "d", config.DefaultCrawlerMaxDepth, "Maximum link depth from the seed")
	cmd.Flags().IntP("workers", "w", config.DefaultCrawlerWorkers, "Number of concurrent workers")
	cmd.Flags().StringP("filter", "f", "", "Asset types to show, comma separated (JS, PAGE)")
	cmd.Flags().StringP("patterns", "p", config.DefaultSecretsPatternsFile, "Pattern file ({name: regex} JSON or YAML)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultCrawlerRequestTimeoutSecs*time.Second, "Per-request timeout")
	cmd.Flags().StringP("report", "r", "", "Write a markdown report to this path")
	cmd.Flags().Bool("store", false, "Persist findings (Parquet) and discovery history (SQLite)")
	cmd.Flags().Bool("follow-scripts", false, "Also crawl same-origin URLs referenced inside scripts")

	return cmd
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	rawSeed, err := seedFromArgs(args)
	if err != nil {
		return err
	}
	seed, err := urlhandler.NormalizeSeed(rawSeed)
	if err != nil {
		return err
	}

	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	runID := time.Now().Format(runIDLayout)
	log, err := logger.NewWithRunID(cfg.LogConfig, runID)
	if err != nil {
		return errorwrapper.WrapError(err, "failed to initialize logger")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Info().Msg("Received shutdown signal, draining workers...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runScan(ctx, cfg, seed.String(), runID, cmd.OutOrStdout(), log)
}

// runScan wires the crawl components, runs the crawl and writes outputs.
func runScan(ctx context.Context, cfg *config.GlobalConfig, seed, runID string, out io.Writer, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.ResourceLimiterConfig.Enabled {
		limiter := rslimiter.NewResourceLimiter(cfg.ResourceLimiterConfig, log)
		limiter.SetShutdownCallback(func(reason string) {
			log.Warn().Str("reason", reason).Msg("Stopping crawl on resource limit")
			cancel()
		})
		limiter.Start()
		defer limiter.Stop()
	}

	registry := secrets.LoadPatterns(cfg.SecretsConfig.PatternsFile, secrets.RegistryOptions{
		MinLength:        cfg.SecretsConfig.MinLength,
		KeywordPrefilter: cfg.SecretsConfig.EnableKeywordPrefilter,
	}, log)
	log.Info().Int("patterns", registry.Len()).Bool("defaults", registry.UsedDefaults()).Msg("Patterns loaded")

	fetcher, err := httpclient.NewFetcher(httpclient.FromCrawlerConfig(cfg.CrawlerConfig), log)
	if err != nil {
		return errorwrapper.WrapError(err, "failed to create fetcher")
	}

	console := reporter.NewConsoleReporter(out)
	observers := crawler.Observers{console}

	var (
		discovery    *datastore.DiscoveryDB
		secretsStore *datastore.SecretsStore
	)
	if cfg.StorageConfig.Enabled {
		secretsStore, err = datastore.NewSecretsStore(cfg.StorageConfig, log)
		if err != nil {
			return err
		}
		discovery, err = datastore.NewDiscoveryDB(cfg.StorageConfig.SQLiteDBPath, log)
		if err != nil {
			return errorwrapper.WrapError(err, "failed to open discovery database")
		}
		defer discovery.Close()

		if err := discovery.StartRun(ctx, runID, seed, time.Now()); err != nil {
			return err
		}
		observers = append(observers, discovery.Recorder(runID))
	}

	coordinator := crawler.NewCoordinator(
		crawler.CoordinatorConfigFrom(cfg.CrawlerConfig),
		fetcher,
		secrets.NewScanner(registry),
		observers,
		log,
	)

	console.Banner(seed, cfg.CrawlerConfig.MaxDepth, cfg.CrawlerConfig.Workers)
	result, err := coordinator.Run(ctx, seed)
	if err != nil {
		return err
	}
	result.Stats.RunID = runID

	// Outputs are written even after an interrupt, so they must not use ctx.
	persistCtx := context.Background()
	if cfg.StorageConfig.Enabled {
		persistResults(persistCtx, secretsStore, discovery, result, log)
	}

	if cfg.ReporterConfig.OutputPath != "" {
		mdReporter := reporter.NewMarkdownReporter(cfg.ReporterConfig, log)
		if _, err := mdReporter.GenerateReport(cfg.ReporterConfig.OutputPath, result.Stats, result.Findings); err != nil {
			log.Error().Err(err).Msg("Failed to write report")
		}
	}

	console.Summary(result.Stats)
	return nil
}

func persistResults(ctx context.Context, store *datastore.SecretsStore, discovery *datastore.DiscoveryDB, result *crawler.Result, log zerolog.Logger) {
	findingsFile, err := store.StoreFindings(ctx, result.Stats.RunID, result.Findings)
	if err != nil {
		log.Error().Err(err).Msg("Failed to store findings")
	}
	if err := discovery.FinishRun(ctx, result.Stats, findingsFile); err != nil {
		log.Error().Err(err).Msg("Failed to record run completion")
	}
	log.Info().Str("run_id", result.Stats.RunID).Str("findings_file", findingsFile).Msg("Run persisted")
}
