// Package catalog is the category walker: it discovers the site's category
// taxonomy from the homepage and walks each category's paginated listing
// endpoint to exhaustion.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pricehound/pricehound/internal/config"
	"github.com/pricehound/pricehound/internal/endpoints"
	"github.com/pricehound/pricehound/internal/observability"
	"github.com/pricehound/pricehound/internal/parse"
	"github.com/pricehound/pricehound/internal/storage"
	"github.com/pricehound/pricehound/internal/types"
)

// Fetcher is the slice of the fetch gateway the walker needs.
type Fetcher interface {
	FetchJSON(ctx context.Context, url string) (json.RawMessage, error)
	Homepage(ctx context.Context) ([]byte, error)
}

// listingPage is the envelope of one listing response. Rows stay opaque; only
// the declared total and the row array are decoded.
type listingPage struct {
	TotalProductHits int               `json:"totalProductHits"`
	Products         []json.RawMessage `json:"products"`
}

// Walker paginates category listings through the fetch gateway.
type Walker struct {
	fetch   Fetcher
	urls    *endpoints.Builder
	store   *storage.Store
	cfg     config.ScraperConfig
	saveRaw bool
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Walker.
func New(fetch Fetcher, urls *endpoints.Builder, store *storage.Store, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Walker {
	return &Walker{
		fetch:   fetch,
		urls:    urls,
		store:   store,
		cfg:     cfg.Scraper,
		saveRaw: cfg.Storage.SaveRaw,
		logger:  logger.With("component", "catalog"),
		metrics: metrics,
	}
}

// DiscoverCategories loads the homepage, extracts the category taxonomy from
// its rendered link set, and persists it.
func (w *Walker) DiscoverCategories(ctx context.Context) ([]types.Category, error) {
	body, err := w.fetch.Homepage(ctx)
	if err != nil {
		return nil, fmt.Errorf("load homepage: %w", err)
	}

	cats, err := parse.CategoryLinks(body, w.urls.AbsoluteURL)
	if err != nil {
		return nil, fmt.Errorf("extract category links: %w", err)
	}
	if len(cats) == 0 {
		w.logger.Warn("no category links found on homepage")
		return nil, nil
	}

	if err := w.store.SaveCategories(cats); err != nil {
		return nil, err
	}
	w.logger.Info("categories discovered", "count", len(cats))
	return cats, nil
}

// ScrapeCategory walks one category's listing pages at offsets 1, 1+size,
// 1+2·size... until the accumulated count reaches the total the first page
// declared, a page comes back empty, or a page fetch fails. A failed or
// malformed page ends the walk with whatever was accumulated; partial
// listings are persisted like complete ones. The listing is saved before
// returning.
func (w *Walker) ScrapeCategory(ctx context.Context, categoryID int, name string) (*types.CategoryListing, error) {
	listing := &types.CategoryListing{
		CategoryID:   categoryID,
		CategoryName: name,
	}
	declaredTotal := -1
	var rawPages []json.RawMessage

	w.logger.Info("walking category", "category_id", categoryID, "name", name)

	for offset := 1; ; offset += w.cfg.PageSize {
		payload, err := w.fetch.FetchJSON(ctx, w.urls.CategoryListing(categoryID, w.cfg.PageSize, offset))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			w.logger.Warn("listing page failed, stopping walk",
				"category_id", categoryID, "offset", offset, "error", err)
			break
		}

		var page listingPage
		if err := json.Unmarshal(payload, &page); err != nil {
			w.logger.Warn("listing envelope did not decode, stopping walk",
				"category_id", categoryID, "offset", offset,
				"error", err, "preview", parse.Preview(string(payload), 200))
			break
		}

		// The declared total is read once, from the first decoded page.
		if declaredTotal < 0 {
			declaredTotal = page.TotalProductHits
		}

		if len(page.Products) == 0 {
			break
		}

		listing.Products = append(listing.Products, page.Products...)
		rawPages = append(rawPages, payload)
		w.metrics.PageCollected()
		w.logger.Debug("listing page collected",
			"category_id", categoryID, "offset", offset,
			"page_products", len(page.Products), "accumulated", len(listing.Products))

		if len(listing.Products) >= declaredTotal {
			break
		}
	}

	listing.TotalProducts = len(listing.Products)
	if declaredTotal > listing.TotalProducts {
		// Either the catalog ended early or the upstream total overcounts;
		// both surface as the same short-count condition.
		w.logger.Warn("category walk stopped short of declared total",
			"category_id", categoryID,
			"declared", declaredTotal,
			"collected", listing.TotalProducts)
	}

	if err := w.store.SaveCategoryListing(listing); err != nil {
		return nil, err
	}
	if w.saveRaw && len(rawPages) > 0 {
		if err := w.store.SaveRaw("category", fmt.Sprintf("%d", categoryID), rawPages); err != nil {
			w.logger.Warn("raw listing mirror failed", "category_id", categoryID, "error", err)
		}
	}

	return listing, nil
}

// ScrapeAllCategories walks every category. Explicit ids skip discovery and
// get placeholder names; otherwise discovery runs first. One category failing
// does not stop the rest.
func (w *Walker) ScrapeAllCategories(ctx context.Context, ids []int) ([]*types.CategoryListing, error) {
	var cats []types.Category
	if len(ids) > 0 {
		for _, id := range ids {
			cats = append(cats, types.Category{ID: id, Name: fmt.Sprintf("Category %d", id)})
		}
	} else {
		var err error
		cats, err = w.DiscoverCategories(ctx)
		if err != nil {
			return nil, err
		}
	}

	listings := make([]*types.CategoryListing, 0, len(cats))
	for _, cat := range cats {
		listing, err := w.ScrapeCategory(ctx, cat.ID, cat.Name)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return listings, ctxErr
			}
			w.logger.Error("category scrape failed", "category_id", cat.ID, "error", err)
			continue
		}
		listings = append(listings, listing)
	}

	w.logger.Info("category walk complete", "categories", len(listings))
	return listings, nil
}
