package config

import (
	"fmt"
	"net/url"

	"github.com/reviewscope/crawler/internal/types"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}

	if cfg.Crawl.NavigationTimeout <= 0 {
		return fmt.Errorf("crawl.navigation_timeout must be > 0")
	}
	if cfg.Crawl.SettleDelay < 0 {
		return fmt.Errorf("crawl.settle_delay must be >= 0")
	}
	if cfg.Crawl.ClickDelay <= 0 {
		return fmt.Errorf("crawl.click_delay must be > 0")
	}
	if cfg.Crawl.BlockDelay < cfg.Crawl.ClickDelay {
		return fmt.Errorf("crawl.block_delay must be >= crawl.click_delay")
	}
	if cfg.Crawl.MaxPages < 1 {
		return fmt.Errorf("crawl.max_pages must be >= 1, got %d", cfg.Crawl.MaxPages)
	}

	if cfg.Fetcher.Enabled {
		if cfg.Fetcher.Timeout <= 0 {
			return fmt.Errorf("fetcher.timeout must be > 0")
		}
		if cfg.Fetcher.MaxBodySize <= 0 {
			return fmt.Errorf("fetcher.max_body_size must be > 0")
		}
		if cfg.Fetcher.MaxRedirects < 0 {
			return fmt.Errorf("fetcher.max_redirects must be >= 0")
		}
	}

	switch cfg.Storage.Type {
	case "none":
	case "mongodb":
		if cfg.Storage.URI == "" {
			return fmt.Errorf("storage.uri is required when storage.type is mongodb")
		}
	default:
		return fmt.Errorf("storage.type must be 'none' or 'mongodb', got %q", cfg.Storage.Type)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is a plausible crawl target.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", types.ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", types.ErrInvalidURL)
	}
	return nil
}
