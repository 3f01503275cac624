package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aleister1102/jsenum/internal/common/errorwrapper"
	"github.com/aleister1102/jsenum/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Environment fallbacks for containerised runs.
const (
	envURL     = "ARG_URL"
	envDepth   = "ARG_DEPTH"
	envThreads = "ARG_THREADS"
	envFilter  = "ARG_FILTER"
)

// loadSettings reads the config file and applies env and flag overrides,
// flags winning over env and env over the file. The result is validated.
func loadSettings(cmd *cobra.Command) (*config.GlobalConfig, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadGlobalConfig(configPath, zerolog.Nop())
	if err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return nil, err
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *config.GlobalConfig) error {
	if v, ok := os.LookupEnv(envDepth); ok && strings.TrimSpace(v) != "" {
		depth, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errorwrapper.NewValidationError(envDepth, v, "must be an integer")
		}
		cfg.CrawlerConfig.MaxDepth = depth
	}
	if v, ok := os.LookupEnv(envThreads); ok && strings.TrimSpace(v) != "" {
		workers, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errorwrapper.NewValidationError(envThreads, v, "must be an integer")
		}
		cfg.CrawlerConfig.Workers = workers
	}
	if v, ok := os.LookupEnv(envFilter); ok && strings.TrimSpace(v) != "" {
		cfg.CrawlerConfig.AssetFilter = parseFilter(v)
	}
	return nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.GlobalConfig) error {
	flags := cmd.Flags()

	if flags.Changed("log-level") {
		cfg.LogConfig.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Lookup("depth") == nil {
		return nil
	}

	if flags.Changed("depth") {
		cfg.CrawlerConfig.MaxDepth, _ = flags.GetInt("depth")
	}
	if flags.Changed("workers") {
		cfg.CrawlerConfig.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("filter") {
		raw, _ := flags.GetString("filter")
		cfg.CrawlerConfig.AssetFilter = parseFilter(raw)
	}
	if flags.Changed("timeout") {
		timeout, _ := flags.GetDuration("timeout")
		secs := int(timeout.Seconds())
		if secs < 1 {
			return errorwrapper.NewValidationError("timeout", timeout, "must be at least 1s")
		}
		cfg.CrawlerConfig.RequestTimeoutSecs = secs
	}
	if flags.Changed("patterns") {
		cfg.SecretsConfig.PatternsFile, _ = flags.GetString("patterns")
	}
	if flags.Changed("report") {
		cfg.ReporterConfig.OutputPath, _ = flags.GetString("report")
	}
	if flags.Changed("store") {
		cfg.StorageConfig.Enabled, _ = flags.GetBool("store")
	}
	if flags.Changed("follow-scripts") {
		cfg.CrawlerConfig.FollowScriptURLs, _ = flags.GetBool("follow-scripts")
	}
	return nil
}

// seedFromArgs returns the positional URL or the ARG_URL fallback.
func seedFromArgs(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	if v := strings.TrimSpace(os.Getenv(envURL)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: a target URL is required (argument or %s)", errorwrapper.ErrInvalidInput, envURL)
}

// parseFilter turns "js, page" into ["JS", "PAGE"].
func parseFilter(raw string) []string {
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		tag := strings.ToUpper(strings.TrimSpace(part))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
