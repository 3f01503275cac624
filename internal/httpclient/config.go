package httpclient

import (
	"time"

	"github.com/aleister1102/jsenum/internal/config"
)

// HTTPClientConfig holds the fetcher's transport and request settings.
type HTTPClientConfig struct {
	Timeout               time.Duration
	InsecureSkipVerify    bool
	Proxy                 string
	EnableHTTP2           bool
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	MaxConnsPerHost       int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration
	DialTimeout           time.Duration
	KeepAlive             time.Duration
	// MaxContentSize caps the bytes read from a body (0 for no limit).
	MaxContentSize   int
	UserAgents       []string
	RespectRobotsTxt bool
}

// DefaultHTTPClientConfig returns the default fetcher configuration.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:               10 * time.Second,
		InsecureSkipVerify:    true,
		EnableHTTP2:           true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       0,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		DialTimeout:           10 * time.Second,
		KeepAlive:             30 * time.Second,
		MaxContentSize:        10 * 1024 * 1024,
		UserAgents:            config.DefaultCrawlerUserAgents,
	}
}

// FromCrawlerConfig maps the crawler section of the application config
// onto the fetcher configuration.
func FromCrawlerConfig(cfg config.CrawlerConfig) HTTPClientConfig {
	out := DefaultHTTPClientConfig()
	if cfg.RequestTimeoutSecs > 0 {
		out.Timeout = cfg.RequestTimeout()
	}
	if cfg.MaxContentSizeMB > 0 {
		out.MaxContentSize = cfg.MaxContentSizeMB * 1024 * 1024
	}
	if len(cfg.UserAgents) > 0 {
		out.UserAgents = cfg.UserAgents
	}
	// One idle connection per worker keeps the pool warm for a single origin.
	if cfg.Workers > out.MaxIdleConnsPerHost {
		out.MaxIdleConnsPerHost = cfg.Workers
	}
	out.InsecureSkipVerify = cfg.InsecureSkipVerify
	out.Proxy = cfg.Proxy
	out.RespectRobotsTxt = cfg.RespectRobotsTxt
	return out
}
