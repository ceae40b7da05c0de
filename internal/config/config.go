package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for the review crawler.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"  yaml:"server"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Crawl   CrawlConfig   `mapstructure:"crawl"   yaml:"crawl"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port         int           `mapstructure:"port"          yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"  yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// BrowserConfig controls the headless browser session.
type BrowserConfig struct {
	Headless   bool     `mapstructure:"headless"    yaml:"headless"`
	Stealth    bool     `mapstructure:"stealth"     yaml:"stealth"`
	NoSandbox  bool     `mapstructure:"no_sandbox"  yaml:"no_sandbox"`
	UserAgents []string `mapstructure:"user_agents" yaml:"user_agents"`
}

// CrawlConfig controls navigation, pacing and budgets. The delays are a
// self-imposed backpressure mechanism against the storefront's anti-bot
// defenses; shortening them trades crawl time for ban risk.
type CrawlConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	SettleDelay       time.Duration `mapstructure:"settle_delay"       yaml:"settle_delay"`
	SortDelay         time.Duration `mapstructure:"sort_delay"         yaml:"sort_delay"`
	ClickDelay        time.Duration `mapstructure:"click_delay"        yaml:"click_delay"`
	BlockDelay        time.Duration `mapstructure:"block_delay"        yaml:"block_delay"`
	MaxPages          int           `mapstructure:"max_pages"          yaml:"max_pages"`
}

// FetcherConfig controls the static-fetch fast path for metadata.
type FetcherConfig struct {
	Enabled         bool          `mapstructure:"enabled"           yaml:"enabled"`
	Timeout         time.Duration `mapstructure:"timeout"           yaml:"timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
}

// StorageConfig controls review persistence. Type "none" disables it:
// the API then only returns crawled records and the caller owns
// persistence, which matches the engine's contract.
type StorageConfig struct {
	Type       string `mapstructure:"type"       yaml:"type"` // none, mongodb
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        3001,
			ReadTimeout: 30 * time.Second,
			// Review crawls run for minutes; the write timeout has to
			// outlast the whole pagination loop.
			WriteTimeout: 30 * time.Minute,
		},
		Browser: BrowserConfig{
			Headless:  true,
			Stealth:   true,
			NoSandbox: true,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		Crawl: CrawlConfig{
			NavigationTimeout: 30 * time.Second,
			SettleDelay:       2 * time.Second,
			SortDelay:         1500 * time.Millisecond,
			ClickDelay:        1500 * time.Millisecond,
			BlockDelay:        3 * time.Second,
			MaxPages:          500,
		},
		Fetcher: FetcherConfig{
			Enabled:         true,
			Timeout:         15 * time.Second,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			FollowRedirects: true,
			MaxRedirects:    10,
		},
		Storage: StorageConfig{
			Type:       "none",
			Database:   "reviewscope",
			Collection: "reviews",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}
