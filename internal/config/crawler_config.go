package config

import "time"

// CrawlerConfig holds the crawl bounds and the fetcher transport settings.
type CrawlerConfig struct {
	MaxDepth           int      `json:"max_depth" yaml:"max_depth" validate:"min=0"`
	Workers            int      `json:"workers,omitempty" yaml:"workers,omitempty" validate:"min=1"`
	RequestTimeoutSecs int      `json:"request_timeout_secs,omitempty" yaml:"request_timeout_secs,omitempty" validate:"min=1"`
	MaxContentSizeMB   int      `json:"max_content_size_mb,omitempty" yaml:"max_content_size_mb,omitempty" validate:"omitempty,min=1"`
	UserAgents         []string `json:"user_agents,omitempty" yaml:"user_agents,omitempty" validate:"omitempty,dive,required"`
	AssetFilter        []string `json:"asset_filter,omitempty" yaml:"asset_filter,omitempty" validate:"omitempty,dive,assetfilter"`
	Proxy              string   `json:"proxy,omitempty" yaml:"proxy,omitempty" validate:"omitempty,url"`
	InsecureSkipVerify bool     `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	RespectRobotsTxt   bool     `json:"respect_robots_txt" yaml:"respect_robots_txt"`
	FollowScriptURLs   bool     `json:"follow_script_urls" yaml:"follow_script_urls"`
}

// NewDefaultCrawlerConfig creates a CrawlerConfig with default values.
func NewDefaultCrawlerConfig() CrawlerConfig {
	agents := make([]string, len(DefaultCrawlerUserAgents))
	copy(agents, DefaultCrawlerUserAgents)

	return CrawlerConfig{
		MaxDepth:           DefaultCrawlerMaxDepth,
		Workers:            DefaultCrawlerWorkers,
		RequestTimeoutSecs: DefaultCrawlerRequestTimeoutSecs,
		MaxContentSizeMB:   DefaultCrawlerMaxContentSizeMB,
		UserAgents:         agents,
		InsecureSkipVerify: true,
		RespectRobotsTxt:   DefaultCrawlerRespectRobotsTxt,
		FollowScriptURLs:   DefaultCrawlerFollowScriptURLs,
	}
}

// RequestTimeout returns the per-fetch timeout as a duration.
func (c CrawlerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}
