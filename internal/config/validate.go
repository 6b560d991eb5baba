package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := validateBaseURL(cfg.Site.BaseURL); err != nil {
		return err
	}
	if cfg.Site.CountryCode == "" {
		return fmt.Errorf("site.country_code must not be empty")
	}
	if cfg.Site.Locale == "" {
		return fmt.Errorf("site.locale must not be empty")
	}

	if cfg.Browser.NavTimeout <= 0 {
		return fmt.Errorf("browser.nav_timeout must be > 0")
	}
	if cfg.Browser.SelectorTimeout <= 0 {
		return fmt.Errorf("browser.selector_timeout must be > 0")
	}
	if cfg.Browser.SettleDelay < 0 {
		return fmt.Errorf("browser.settle_delay must be >= 0")
	}
	if cfg.Browser.ViewportWidth < 1 || cfg.Browser.ViewportHeight < 1 {
		return fmt.Errorf("browser viewport must be at least 1x1, got %dx%d",
			cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight)
	}

	if cfg.Fetcher.MaxRetries < 0 {
		return fmt.Errorf("fetcher.max_retries must be >= 0, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.MinDelay < 0 {
		return fmt.Errorf("fetcher.min_delay must be >= 0")
	}
	if cfg.Fetcher.MaxDelay < cfg.Fetcher.MinDelay {
		return fmt.Errorf("fetcher.max_delay must be >= fetcher.min_delay")
	}

	if cfg.Scraper.PageSize < 1 || cfg.Scraper.PageSize > 500 {
		return fmt.Errorf("scraper.page_size must be 1-500, got %d", cfg.Scraper.PageSize)
	}
	for _, id := range cfg.Scraper.CategoryIDs {
		if id < 1 {
			return fmt.Errorf("scraper.category_ids must be positive, got %d", id)
		}
	}
	if len(cfg.Scraper.PriceHistoryIntervals) == 0 {
		return fmt.Errorf("scraper.price_history_intervals must not be empty")
	}
	if cfg.Scraper.PriceHistoryGranularity == "" {
		return fmt.Errorf("scraper.price_history_granularity must not be empty")
	}
	if cfg.Scraper.ReviewLimitUser < 0 || cfg.Scraper.ReviewLimitPro < 0 {
		return fmt.Errorf("scraper review limits must be >= 0")
	}
	if cfg.Scraper.SimilarPageSize < 1 {
		return fmt.Errorf("scraper.similar_page_size must be >= 1, got %d", cfg.Scraper.SimilarPageSize)
	}

	if cfg.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir must not be empty")
	}
	validFormats := map[string]bool{
		"json": true, "csv": true, "both": true,
	}
	if !validFormats[cfg.Storage.Format] {
		return fmt.Errorf("storage.format %q is not supported (valid: json, csv, both)", cfg.Storage.Format)
	}
	if cfg.Storage.MongoURI != "" {
		if cfg.Storage.MongoDatabase == "" || cfg.Storage.MongoCollection == "" {
			return fmt.Errorf("storage.mongo_database and storage.mongo_collection are required when storage.mongo_uri is set")
		}
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

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// validateBaseURL checks that the site base URL is a usable http(s) origin.
func validateBaseURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid site.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("site.base_url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("site.base_url must have a host")
	}
	return nil
}
