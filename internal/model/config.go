package model

import "time"

// Config holds the complete runtime configuration
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	PDF         PDFConfig         `yaml:"pdf"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Database    DatabaseConfig    `yaml:"database"`
	Output      OutputConfig      `yaml:"output"`
}

// HTTPConfig controls outbound page fetching
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	MaxRetries   int           `yaml:"max_retries"`   // total fetch attempts per URL
	RetryBackoff time.Duration `yaml:"retry_backoff"` // initial backoff, doubled per retry
	InsecureTLS  bool          `yaml:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy"`
	CheckRobots  bool          `yaml:"check_robots"`
}

// PDFConfig controls PDF download and text extraction
type PDFConfig struct {
	DownloadDir  string `yaml:"download_dir"`
	MaxSizeBytes int64  `yaml:"max_size_bytes"`
	MaxTextBytes int    `yaml:"max_text_bytes"`
	MaxPerPage   int    `yaml:"max_per_page"`
	MaxPerExtra  int    `yaml:"max_per_extra"`
}

// CacheConfig controls the fetched-page cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// ConcurrencyConfig controls the grant worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// RateLimitConfig controls per-domain request pacing
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// DatabaseConfig controls the hosted bandi table connection.
// The DSN is always read from the DATABASE_URL environment variable;
// only retry behaviour is configurable here.
type DatabaseConfig struct {
	Table           string        `yaml:"table"`
	MaxWriteRetries int           `yaml:"max_write_retries"`
	WriteRetryDelay time.Duration `yaml:"write_retry_delay"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose         bool `yaml:"verbose"`
	MaxSnippets     int  `yaml:"max_snippets"`      // per document type in the report
	MaxBucketItems  int  `yaml:"max_bucket_items"`  // per generic bucket
	HTMLTextBytes   int  `yaml:"html_text_bytes"`   // text prefix kept per web page
	IncludeSources  bool `yaml:"include_sources"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      60 * time.Second,
			UserAgent:    "grantdocs/0.3 (+https://github.com/openbandi/grantdocs)",
			MaxBodyBytes: 4_000_000,
			MaxRetries:   3,
			RetryBackoff: 2 * time.Second,
			CheckRobots:  true,
		},
		PDF: PDFConfig{
			DownloadDir:  "downloads/pdfs",
			MaxSizeBytes: 30 * 1024 * 1024,
			MaxTextBytes: 50_000,
			MaxPerPage:   5,
			MaxPerExtra:  3,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".grantdocs-cache",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2.0,
			BurstSize:         4,
		},
		Database: DatabaseConfig{
			Table:           "bandi",
			MaxWriteRetries: 3,
			WriteRetryDelay: time.Second,
		},
		Output: OutputConfig{
			MaxSnippets:    2,
			MaxBucketItems: 5,
			HTMLTextBytes:  80_000,
			IncludeSources: true,
		},
	}
}
