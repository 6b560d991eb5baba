package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pricehound/pricehound/internal/catalog"
	"github.com/pricehound/pricehound/internal/export"
	"github.com/pricehound/pricehound/internal/product"
)

var categoryIDs []int

// runCtx derives the command context with operator-interrupt handling.
func runCtx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

// fullCmd runs all three stages plus consolidation in sequence.
func fullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "full",
		Short: "Run the whole pipeline: categories, products, consolidation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := runCtx(cmd)
			defer stop()

			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.finish(a.runFull(ctx))
		},
	}
	cmd.Flags().IntSliceVar(&categoryIDs, "categories", nil, "explicit category ids (skips discovery)")
	return cmd
}

func (a *app) runFull(ctx context.Context) error {
	start := time.Now()

	walker := catalog.New(a.gateway, a.urls, a.store, a.cfg, a.logger, a.metrics)
	listings, err := walker.ScrapeAllCategories(ctx, a.categoryFilter())
	if err != nil {
		return err
	}

	aggregator := product.New(a.gateway, a.urls, a.store, a.cfg, a.logger, a.metrics)
	summary, err := aggregator.ScrapeAll(ctx)
	if err != nil {
		return err
	}

	stats, err := export.New(a.store, a.cfg, a.logger).Run(ctx)
	if err != nil {
		return err
	}

	a.logger.Info("full run complete",
		"elapsed", time.Since(start).Round(time.Second),
		"categories_walked", len(listings),
		"products_scraped", summary.TotalProductsScraped,
		"products_attempted", summary.TotalProductsAttempted,
		"products_on_disk", stats.TotalProductDetails,
	)
	return nil
}

// categoriesCmd runs only the category walk stage.
func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Discover categories and walk their product listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := runCtx(cmd)
			defer stop()

			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			walker := catalog.New(a.gateway, a.urls, a.store, a.cfg, a.logger, a.metrics)
			listings, err := walker.ScrapeAllCategories(ctx, a.categoryFilter())
			if err != nil {
				return a.finish(err)
			}

			var total int
			for _, l := range listings {
				total += l.TotalProducts
			}
			a.logger.Info("categories stage complete", "categories", len(listings), "products_listed", total)
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&categoryIDs, "categories", nil, "explicit category ids (skips discovery)")
	return cmd
}

// productsCmd runs only the product aggregation stage, over whatever category
// listings a previous run persisted.
func productsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "Scrape detail records for every listed product",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := runCtx(cmd)
			defer stop()

			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			aggregator := product.New(a.gateway, a.urls, a.store, a.cfg, a.logger, a.metrics)
			summary, err := aggregator.ScrapeAll(ctx)
			if err != nil {
				return a.finish(err)
			}

			a.logger.Info("products stage complete",
				"categories", summary.TotalCategories,
				"scraped", summary.TotalProductsScraped,
				"attempted", summary.TotalProductsAttempted)
			return nil
		},
	}
}

// consolidateCmd merges persisted records into the consolidated exports. No
// browser is involved.
func consolidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consolidate",
		Short: "Merge persisted records into consolidated JSON/CSV exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := runCtx(cmd)
			defer stop()

			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := export.New(a.store, a.cfg, a.logger).Run(ctx)
			if err != nil {
				return a.finish(err)
			}

			fmt.Printf("Consolidated %d product records across %d categories into %s\n",
				stats.TotalProductDetails, stats.TotalCategories, a.store.ConsolidatedPath(""))
			return nil
		},
	}
}

// categoryFilter merges the --categories flag with the configured ids; the
// flag wins when both are set.
func (a *app) categoryFilter() []int {
	if len(categoryIDs) > 0 {
		return categoryIDs
	}
	return a.cfg.Scraper.CategoryIDs
}
