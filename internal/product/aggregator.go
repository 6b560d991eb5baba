// Package product is the product aggregator: for each listed product it fans
// out to the five per-product sub-resources, assembles one composite record,
// and persists it. A record on disk means the product is done; re-runs skip
// it without a single fetch.
package product

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pricehound/pricehound/internal/config"
	"github.com/pricehound/pricehound/internal/endpoints"
	"github.com/pricehound/pricehound/internal/observability"
	"github.com/pricehound/pricehound/internal/storage"
	"github.com/pricehound/pricehound/internal/types"
)

// Fetcher is the slice of the fetch gateway the aggregator needs.
type Fetcher interface {
	FetchJSON(ctx context.Context, url string) (json.RawMessage, error)
}

// ListingResult counts per-product outcomes over one category listing.
type ListingResult struct {
	Scraped int `json:"scraped"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Attempted counts products actually worked on this run; skips are excluded.
func (r ListingResult) Attempted() int { return r.Scraped + r.Failed }

// Aggregator gathers composite product records through the fetch gateway.
type Aggregator struct {
	fetch   Fetcher
	urls    *endpoints.Builder
	store   *storage.Store
	cfg     config.ScraperConfig
	saveRaw bool
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Aggregator.
func New(fetch Fetcher, urls *endpoints.Builder, store *storage.Store, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{
		fetch:   fetch,
		urls:    urls,
		store:   store,
		cfg:     cfg.Scraper,
		saveRaw: cfg.Storage.SaveRaw,
		logger:  logger.With("component", "product"),
		metrics: metrics,
	}
}

// ScrapeProduct issues the sub-fetches for one product in fixed order
// (initial data, offers, reviews, one price history per interval, similar
// products) and persists the composite record. A failed sub-fetch embeds as
// null and never aborts the rest; only persistence failure (or cancellation)
// fails the product.
func (a *Aggregator) ScrapeProduct(ctx context.Context, productID types.ProductID, categoryID int, name string) (*types.ProductRecord, error) {
	a.logger.Info("scraping product", "product_id", productID, "category_id", categoryID, "name", name)

	rec := &types.ProductRecord{
		ProductID:    productID,
		CategoryID:   categoryID,
		ProductName:  name,
		PriceHistory: make(map[string]json.RawMessage, len(a.cfg.PriceHistoryIntervals)),
	}

	var err error
	if rec.InitialData, err = a.sub(ctx, "initial", a.urls.ProductInitial(categoryID, productID)); err != nil {
		return nil, err
	}
	if rec.Offers, err = a.sub(ctx, "offers", a.urls.ProductOffers(productID)); err != nil {
		return nil, err
	}
	if rec.Reviews, err = a.sub(ctx, "reviews", a.urls.ProductReviews(productID, a.cfg.ReviewLimitUser, a.cfg.ReviewLimitPro)); err != nil {
		return nil, err
	}
	for _, interval := range a.cfg.PriceHistoryIntervals {
		if rec.PriceHistory[interval], err = a.sub(ctx, "price history "+interval, a.urls.PriceHistory(productID, interval)); err != nil {
			return nil, err
		}
	}
	if rec.SimilarProducts, err = a.sub(ctx, "similar", a.urls.SimilarProducts(categoryID, productID, a.cfg.SimilarPageSize)); err != nil {
		return nil, err
	}

	if err := a.store.SaveProductRecord(rec); err != nil {
		return nil, fmt.Errorf("persist product %s: %w", productID, err)
	}
	if a.saveRaw {
		if err := a.store.SaveRaw("product", productID.String(), rec); err != nil {
			a.logger.Warn("raw product mirror failed", "product_id", productID, "error", err)
		}
	}

	return rec, nil
}

// sub performs one sub-resource fetch. An upstream failure logs and yields
// nil; only caller cancellation propagates as an error.
func (a *Aggregator) sub(ctx context.Context, what, url string) (json.RawMessage, error) {
	payload, err := a.fetch.FetchJSON(ctx, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		a.logger.Warn("sub-resource absent", "resource", what, "url", url, "error", err)
		return nil, nil
	}
	return payload, nil
}

// ScrapeFromListing walks a persisted category listing's rows, skipping
// products whose record already exists on disk and scraping the rest. Rows
// without a decodable id are warned about and passed over; a failing product
// never stops the iteration.
func (a *Aggregator) ScrapeFromListing(ctx context.Context, listing *types.CategoryListing) (ListingResult, error) {
	var result ListingResult

	a.logger.Info("aggregating category products",
		"category_id", listing.CategoryID,
		"category", listing.CategoryName,
		"products", len(listing.Products))

	for _, row := range listing.Products {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}

		summary, err := types.DecodeProductSummary(row)
		if err != nil || summary.ID == "" {
			a.logger.Warn("listing row without usable id skipped",
				"category_id", listing.CategoryID, "error", err)
			continue
		}

		if a.store.HasProduct(summary.ID) {
			result.Skipped++
			a.metrics.ProductOutcome(observability.ProductSkipped)
			a.logger.Debug("product already scraped", "product_id", summary.ID)
			continue
		}

		if _, err := a.ScrapeProduct(ctx, summary.ID, listing.CategoryID, summary.Name); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			result.Failed++
			a.metrics.ProductOutcome(observability.ProductFailed)
			a.logger.Error("product scrape failed", "product_id", summary.ID, "error", err)
			continue
		}
		result.Scraped++
		a.metrics.ProductOutcome(observability.ProductScraped)
	}

	a.logger.Info("category aggregation done",
		"category_id", listing.CategoryID,
		"scraped", result.Scraped,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return result, nil
}

// ScrapeAll runs the aggregation over every persisted category listing and
// returns the run summary.
func (a *Aggregator) ScrapeAll(ctx context.Context) (*types.ScrapeSummary, error) {
	listings, err := a.store.CategoryListings()
	if err != nil {
		return nil, fmt.Errorf("load category listings: %w", err)
	}
	if len(listings) == 0 {
		a.logger.Warn("no category listings on disk; run the categories stage first")
	}

	summary := &types.ScrapeSummary{TotalCategories: len(listings)}
	for _, listing := range listings {
		result, err := a.ScrapeFromListing(ctx, listing)
		summary.TotalProductsScraped += result.Scraped
		summary.TotalProductsAttempted += result.Attempted()
		if err != nil {
			return summary, err
		}
	}

	a.logger.Info("product aggregation complete",
		"categories", summary.TotalCategories,
		"scraped", summary.TotalProductsScraped,
		"attempted", summary.TotalProductsAttempted)
	return summary, nil
}
