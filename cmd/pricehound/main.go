// Command pricehound scrapes catalog and pricing data from a price-comparison
// site through its internal JSON endpoints, using a real browser session, and
// persists the results in staged, resumable form.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pricehound/pricehound/internal/config"
	"github.com/pricehound/pricehound/internal/endpoints"
	"github.com/pricehound/pricehound/internal/fetcher"
	"github.com/pricehound/pricehound/internal/observability"
	"github.com/pricehound/pricehound/internal/storage"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	headless  bool
	outputDir string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pricehound",
		Short: "pricehound is a staged price-comparison catalog scraper",
		Long: `pricehound walks a price-comparison site's category taxonomy, collects every
product listing, gathers per-product detail payloads (offers, reviews, price
history, similar products), and consolidates the results.

Each stage is resumable: progress is tracked purely by the presence of output
files, so an interrupted run picks up where it left off.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", true, "run the browser headless")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output data directory")

	rootCmd.AddCommand(fullCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(productsCmd())
	rootCmd.AddCommand(consolidateCmd())
	rootCmd.AddCommand(probeCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the collaborators a mode command needs. The gateway is only
// present when the mode was built with a browser.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	logFile *os.File
	store   *storage.Store
	urls    *endpoints.Builder
	metrics *observability.Metrics
	gateway *fetcher.Gateway
}

// newApp loads configuration, builds the logger and store, and optionally
// launches the browser session.
func newApp(cmd *cobra.Command, withBrowser bool) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cmd, cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, logFile := setupLogger(cfg.Logging)

	store, err := storage.New(cfg.Storage.OutputDir, logger)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, fmt.Errorf("create store: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		logFile: logFile,
		store:   store,
		urls:    endpoints.New(cfg),
	}

	if cfg.Metrics.Enabled {
		a.metrics = observability.NewMetrics(logger)
		if err := a.metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("metrics server failed to start", "error", err)
		}
	}

	if withBrowser {
		gateway, err := fetcher.New(cfg, a.urls.Homepage(), logger, a.metrics)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.gateway = gateway
	}

	return a, nil
}

// Close releases the browser session and the log file.
func (a *app) Close() {
	if a.gateway != nil {
		if err := a.gateway.Close(); err != nil {
			a.logger.Warn("browser close failed", "error", err)
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// finish maps a run's terminal error onto the exit contract: an operator
// interrupt is a clean shutdown, anything else fails the command.
func (a *app) finish(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		a.logger.Info("interrupted by operator, shutting down cleanly")
		return nil
	}
	a.logger.Error("run failed", "error", err)
	return err
}

// applyOverrides folds explicitly set CLI flags into the config.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if outputDir != "" {
		cfg.Storage.OutputDir = outputDir
	}
}

// setupLogger builds the root logger. When a log file is configured, output
// goes to both stderr and the file; an unopenable file degrades to stderr.
func setupLogger(cfg config.LoggingConfig) (*slog.Logger, *os.File) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	var logFile *os.File
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file %s unavailable, logging to stderr only: %v\n", cfg.File, err)
		} else {
			logFile = f
			w = io.MultiWriter(os.Stderr, f)
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), logFile
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pricehound %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			applyOverrides(cmd, cfg)

			fmt.Printf("Site:\n")
			fmt.Printf("  Base URL:          %s\n", cfg.Site.BaseURL)
			fmt.Printf("  Country / Locale:  %s / %s\n", cfg.Site.CountryCode, cfg.Site.Locale)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Headless:          %v\n", cfg.Browser.Headless)
			fmt.Printf("  Nav Timeout:       %s\n", cfg.Browser.NavTimeout)
			fmt.Printf("  Viewport:          %dx%d\n", cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Max Retries:       %d\n", cfg.Fetcher.MaxRetries)
			fmt.Printf("  Delay Window:      [%s, %s]\n", cfg.Fetcher.MinDelay, cfg.Fetcher.MaxDelay)
			fmt.Printf("\nScraper:\n")
			fmt.Printf("  Page Size:         %d\n", cfg.Scraper.PageSize)
			fmt.Printf("  Category IDs:      %v\n", cfg.Scraper.CategoryIDs)
			fmt.Printf("  History Intervals: %v\n", cfg.Scraper.PriceHistoryIntervals)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Output Dir:        %s\n", cfg.Storage.OutputDir)
			fmt.Printf("  Save Raw:          %v\n", cfg.Storage.SaveRaw)
			fmt.Printf("  Export Format:     %s\n", cfg.Storage.Format)
			fmt.Printf("  Mongo Mirror:      %v\n", cfg.Storage.MongoURI != "")
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			if cfg.Metrics.Enabled {
				fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			}
			return nil
		},
	}
}
