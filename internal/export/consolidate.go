package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"github.com/pricehound/pricehound/internal/config"
	"github.com/pricehound/pricehound/internal/storage"
	"github.com/pricehound/pricehound/internal/types"
)

// Consolidated output file names.
const (
	fileAllJSON = "all_products.json"
	fileAllCSV  = "all_products.csv"
	fileStats   = "summary_stats.json"
)

// CategoryStat is one category's row in the summary statistics.
type CategoryStat struct {
	CategoryID   int    `json:"category_id"`
	CategoryName string `json:"category_name"`
	Listed       int    `json:"products_listed"`
	Scraped      int    `json:"products_scraped"`
}

// Stats summarizes everything the run left on disk.
type Stats struct {
	TotalCategories     int            `json:"total_categories"`
	TotalProductsListed int            `json:"total_products_listed"`
	TotalProductDetails int            `json:"total_product_details_scraped"`
	Categories          []CategoryStat `json:"categories"`
}

// Consolidator merges per-product records into the consolidated exports.
type Consolidator struct {
	store  *storage.Store
	cfg    config.StorageConfig
	logger *slog.Logger
}

// New creates a Consolidator.
func New(store *storage.Store, cfg *config.Config, logger *slog.Logger) *Consolidator {
	return &Consolidator{
		store:  store,
		cfg:    cfg.Storage,
		logger: logger.With("component", "export"),
	}
}

// Run reads every persisted record, writes summary_stats.json and the
// configured consolidated formats, and mirrors the flattened rows to MongoDB
// when a URI is configured.
func (c *Consolidator) Run(ctx context.Context) (*Stats, error) {
	listings, err := c.store.CategoryListings()
	if err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}
	records, err := c.store.ProductRecords()
	if err != nil {
		return nil, fmt.Errorf("load product records: %w", err)
	}

	stats := c.buildStats(listings, records)
	if err := c.store.WriteConsolidated(fileStats, stats); err != nil {
		return nil, err
	}

	if c.cfg.Format == "json" || c.cfg.Format == "both" {
		if err := c.store.WriteConsolidated(fileAllJSON, records); err != nil {
			return nil, err
		}
		c.logger.Info("consolidated JSON written", "path", c.store.ConsolidatedPath(fileAllJSON), "records", len(records))
	}

	flats := make([]FlatProduct, len(records))
	for i, rec := range records {
		flats[i] = Flatten(rec)
	}

	if c.cfg.Format == "csv" || c.cfg.Format == "both" {
		if err := c.writeCSV(flats); err != nil {
			return nil, err
		}
		c.logger.Info("consolidated CSV written", "path", c.store.ConsolidatedPath(fileAllCSV), "rows", len(flats))
	}

	if c.cfg.MongoURI != "" {
		if err := c.mirrorToMongo(ctx, flats); err != nil {
			// The files are the deliverable; a sink failure is not fatal.
			c.logger.Error("mongo mirror failed", "error", err)
		}
	}

	c.logger.Info("consolidation complete",
		"categories", stats.TotalCategories,
		"listed", stats.TotalProductsListed,
		"scraped", stats.TotalProductDetails)
	return stats, nil
}

func (c *Consolidator) buildStats(listings []*types.CategoryListing, records []*types.ProductRecord) *Stats {
	scrapedByCategory := make(map[int]int)
	for _, rec := range records {
		scrapedByCategory[rec.CategoryID]++
	}

	stats := &Stats{
		TotalCategories:     len(listings),
		TotalProductDetails: len(records),
		Categories:          make([]CategoryStat, 0, len(listings)),
	}
	for _, listing := range listings {
		stats.TotalProductsListed += listing.TotalProducts
		stats.Categories = append(stats.Categories, CategoryStat{
			CategoryID:   listing.CategoryID,
			CategoryName: listing.CategoryName,
			Listed:       listing.TotalProducts,
			Scraped:      scrapedByCategory[listing.CategoryID],
		})
	}
	return stats
}

func (c *Consolidator) writeCSV(flats []FlatProduct) error {
	path := c.store.ConsolidatedPath(fileAllCSV)
	f, err := os.Create(path)
	if err != nil {
		return &types.StorageError{Path: path, Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return &types.StorageError{Path: path, Err: err}
	}
	for _, flat := range flats {
		if err := w.Write(flat.csvRow()); err != nil {
			return &types.StorageError{Path: path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &types.StorageError{Path: path, Err: err}
	}
	return f.Close()
}

func (c *Consolidator) mirrorToMongo(ctx context.Context, flats []FlatProduct) error {
	if len(flats) == 0 {
		return nil
	}
	sink, err := NewMongoSink(ctx, c.cfg.MongoURI, c.cfg.MongoDatabase, c.cfg.MongoCollection, c.logger)
	if err != nil {
		return err
	}
	defer sink.Close(ctx)
	return sink.InsertRows(ctx, flats)
}
