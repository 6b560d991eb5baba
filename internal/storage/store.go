// Package storage is the staged file store. Every entity is one JSON file
// named by its id; the existence of a product file is the resume marker for
// that product, so writes must be atomic: a crash mid-write may never leave
// a half-file that would later read as "already scraped".
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/pricehound/pricehound/internal/types"
)

// Stage directory names under the store root.
const (
	dirCategories   = "categories"
	dirProducts     = "products"
	dirConsolidated = "consolidated"
	dirRaw          = "raw"
)

// Store persists scrape output under one root directory.
type Store struct {
	root   string
	logger *slog.Logger
}

// New creates the store and its four stage directories.
func New(root string, logger *slog.Logger) (*Store, error) {
	for _, dir := range []string{dirCategories, dirProducts, dirConsolidated, dirRaw} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, &types.StorageError{Path: filepath.Join(root, dir), Err: err}
		}
	}
	return &Store{
		root:   root,
		logger: logger.With("component", "storage"),
	}, nil
}

// Root returns the store's base directory.
func (s *Store) Root() string { return s.root }

// SaveCategories writes the discovered taxonomy to categories/categories.json.
func (s *Store) SaveCategories(cats []types.Category) error {
	return s.writeJSON(filepath.Join(s.root, dirCategories, "categories.json"), cats)
}

// SaveCategoryListing writes one category's accumulated product list.
func (s *Store) SaveCategoryListing(listing *types.CategoryListing) error {
	path := filepath.Join(s.root, dirCategories, fmt.Sprintf("category_%d.json", listing.CategoryID))
	if err := s.writeJSON(path, listing); err != nil {
		return err
	}
	s.logger.Info("category listing saved",
		"category_id", listing.CategoryID,
		"products", listing.TotalProducts,
		"path", path,
	)
	return nil
}

// CategoryListings loads every persisted category_{id}.json, ordered by id.
func (s *Store) CategoryListings() ([]*types.CategoryListing, error) {
	pattern := filepath.Join(s.root, dirCategories, "category_*.json")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, &types.StorageError{Path: pattern, Err: err}
	}
	sort.Strings(paths)

	listings := make([]*types.CategoryListing, 0, len(paths))
	for _, path := range paths {
		var listing types.CategoryListing
		if err := s.readJSON(path, &listing); err != nil {
			s.logger.Warn("skipping unreadable listing", "path", path, "error", err)
			continue
		}
		listings = append(listings, &listing)
	}
	return listings, nil
}

// SaveProductRecord writes one composite product record. Its presence on disk
// is what marks the product as scraped.
func (s *Store) SaveProductRecord(rec *types.ProductRecord) error {
	return s.writeJSON(s.productPath(rec.ProductID), rec)
}

// HasProduct reports whether a record for id is already on disk.
func (s *Store) HasProduct(id types.ProductID) bool {
	_, err := os.Stat(s.productPath(id))
	return err == nil
}

// ProductRecords loads every persisted product record, ordered by file name.
func (s *Store) ProductRecords() ([]*types.ProductRecord, error) {
	pattern := filepath.Join(s.root, dirProducts, "product_*.json")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, &types.StorageError{Path: pattern, Err: err}
	}
	sort.Strings(paths)

	records := make([]*types.ProductRecord, 0, len(paths))
	for _, path := range paths {
		var rec types.ProductRecord
		if err := s.readJSON(path, &rec); err != nil {
			s.logger.Warn("skipping unreadable record", "path", path, "error", err)
			continue
		}
		records = append(records, &rec)
	}
	return records, nil
}

// SaveRaw mirrors an upstream payload to raw/{kind}_{id}_raw.json.
func (s *Store) SaveRaw(kind, id string, payload any) error {
	name := fmt.Sprintf("%s_%s_raw.json", kind, id)
	return s.writeJSON(filepath.Join(s.root, dirRaw, name), payload)
}

// ConsolidatedPath names a file in the consolidated stage.
func (s *Store) ConsolidatedPath(name string) string {
	return filepath.Join(s.root, dirConsolidated, name)
}

// WriteConsolidated writes a consolidation artifact as indented JSON.
func (s *Store) WriteConsolidated(name string, v any) error {
	return s.writeJSON(s.ConsolidatedPath(name), v)
}

func (s *Store) productPath(id types.ProductID) string {
	return filepath.Join(s.root, dirProducts, fmt.Sprintf("product_%s.json", id))
}

// writeJSON encodes v into path atomically: temp file in the same directory,
// then rename. Indented UTF-8, HTML escaping off so URLs and non-ASCII text
// stay literal.
func (s *Store) writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return &types.StorageError{Path: path, Err: err}
	}
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return &types.StorageError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		tmp = nil
		return &types.StorageError{Path: path, Err: err}
	}

	name := tmp.Name()
	tmp = nil
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return &types.StorageError{Path: path, Err: err}
	}
	return nil
}

func (s *Store) readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &types.StorageError{Path: path, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &types.StorageError{Path: path, Err: err}
	}
	return nil
}
