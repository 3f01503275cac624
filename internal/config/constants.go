package config

import "time"

const (
	// Crawler Defaults
	DefaultCrawlerMaxDepth           = 3
	DefaultCrawlerWorkers            = 10
	DefaultCrawlerRequestTimeoutSecs = 10
	DefaultCrawlerDequeueWait        = time.Second
	DefaultCrawlerMaxContentSizeMB   = 10
	DefaultCrawlerRespectRobotsTxt   = false
	DefaultCrawlerFollowScriptURLs   = false

	// Secrets Defaults
	DefaultSecretsPatternsFile = "api_patterns.json"
	DefaultSecretsMinLength    = 20

	// Storage Defaults
	DefaultStorageParquetBasePath  = "database"
	DefaultStorageCompressionCodec = "zstd"
	DefaultStorageSQLiteDBPath     = "database/discovery/discovery.db"

	// Reporter Defaults
	DefaultReporterTitle = "JS Secret Enumeration Report"

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// ConfigPathEnv overrides the config file lookup.
	ConfigPathEnv = "JSENUM_CONFIG_PATH"
)

// DefaultCrawlerUserAgents is the rotation pool used when none is configured.
var DefaultCrawlerUserAgents = []string{
	"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}
