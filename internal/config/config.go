package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for pricehound.
type Config struct {
	Site    SiteConfig    `mapstructure:"site"    yaml:"site"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Scraper ScraperConfig `mapstructure:"scraper" yaml:"scraper"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// SiteConfig selects the upstream site and locale.
type SiteConfig struct {
	BaseURL     string `mapstructure:"base_url"     yaml:"base_url"`
	CountryCode string `mapstructure:"country_code" yaml:"country_code"`
	Locale      string `mapstructure:"locale"       yaml:"locale"`
}

// BrowserConfig controls the Chromium session used for all fetches.
type BrowserConfig struct {
	Headless        bool          `mapstructure:"headless"         yaml:"headless"`
	NavTimeout      time.Duration `mapstructure:"nav_timeout"      yaml:"nav_timeout"`
	SelectorTimeout time.Duration `mapstructure:"selector_timeout" yaml:"selector_timeout"`
	SettleDelay     time.Duration `mapstructure:"settle_delay"     yaml:"settle_delay"`
	UserAgent       string        `mapstructure:"user_agent"       yaml:"user_agent"`
	AcceptLanguage  string        `mapstructure:"accept_language"  yaml:"accept_language"`
	ViewportWidth   int           `mapstructure:"viewport_width"   yaml:"viewport_width"`
	ViewportHeight  int           `mapstructure:"viewport_height"  yaml:"viewport_height"`
}

// FetcherConfig controls retries and the politeness delay window.
type FetcherConfig struct {
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	MinDelay   time.Duration `mapstructure:"min_delay"   yaml:"min_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay"   yaml:"max_delay"`
}

// ScraperConfig controls pagination and per-product sub-fetches.
type ScraperConfig struct {
	PageSize                int      `mapstructure:"page_size"                 yaml:"page_size"`
	CategoryIDs             []int    `mapstructure:"category_ids"              yaml:"category_ids"`
	PriceHistoryIntervals   []string `mapstructure:"price_history_intervals"   yaml:"price_history_intervals"`
	PriceHistoryGranularity string   `mapstructure:"price_history_granularity" yaml:"price_history_granularity"`
	ReviewLimitUser         int      `mapstructure:"review_limit_user"         yaml:"review_limit_user"`
	ReviewLimitPro          int      `mapstructure:"review_limit_pro"          yaml:"review_limit_pro"`
	SimilarPageSize         int      `mapstructure:"similar_page_size"         yaml:"similar_page_size"`
}

// StorageConfig controls the data directory and consolidated exports.
type StorageConfig struct {
	OutputDir       string `mapstructure:"output_dir"       yaml:"output_dir"`
	SaveRaw         bool   `mapstructure:"save_raw"         yaml:"save_raw"`
	Format          string `mapstructure:"format"           yaml:"format"` // json, csv, both
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file"   yaml:"file"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:     "https://www.pricerunner.com",
			CountryCode: "uk",
			Locale:      "UK",
		},
		Browser: BrowserConfig{
			Headless:        true,
			NavTimeout:      30 * time.Second,
			SelectorTimeout: 5 * time.Second,
			SettleDelay:     1 * time.Second,
			UserAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			AcceptLanguage:  "en-US,en;q=0.9",
			ViewportWidth:   1920,
			ViewportHeight:  1080,
		},
		Fetcher: FetcherConfig{
			MaxRetries: 3,
			MinDelay:   2 * time.Second,
			MaxDelay:   5 * time.Second,
		},
		Scraper: ScraperConfig{
			PageSize:                100,
			PriceHistoryIntervals:   []string{"THREE_MONTHS", "SIX_MONTHS", "ONE_YEAR"},
			PriceHistoryGranularity: "DAY",
			ReviewLimitUser:         100,
			ReviewLimitPro:          10,
			SimilarPageSize:         20,
		},
		Storage: StorageConfig{
			OutputDir:       "data",
			SaveRaw:         true,
			Format:          "both",
			MongoDatabase:   "pricehound",
			MongoCollection: "products",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "pricehound.log",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
