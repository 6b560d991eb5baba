package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/pricehound/pricehound/internal/config"
	"github.com/pricehound/pricehound/internal/endpoints"
	"github.com/pricehound/pricehound/internal/storage"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeFetcher serves canned payloads by URL and counts calls.
type fakeFetcher struct {
	payloads map[string]string
	errs     map[string]error
	homepage string
	calls    []string
}

func (f *fakeFetcher) FetchJSON(ctx context.Context, url string) (json.RawMessage, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	payload, ok := f.payloads[url]
	if !ok {
		return nil, fmt.Errorf("unexpected url %s", url)
	}
	return json.RawMessage(payload), nil
}

func (f *fakeFetcher) Homepage(ctx context.Context) ([]byte, error) {
	if f.homepage == "" {
		return nil, errors.New("no homepage scripted")
	}
	return []byte(f.homepage), nil
}

func testWalker(t *testing.T, fetch *fakeFetcher) (*Walker, *storage.Store) {
	t.Helper()
	cfg := config.DefaultConfig()
	store, err := storage.New(t.TempDir(), testLogger)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return New(fetch, endpoints.New(cfg), store, cfg, testLogger, nil), store
}

// listingPayload builds a listing page with n generated products.
func listingPayload(total, firstID, n int) string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf(`{"id": %d, "name": "Product %d"}`, firstID+i, firstID+i)
	}
	return fmt.Sprintf(`{"totalProductHits": %d, "products": [%s]}`, total, strings.Join(rows, ","))
}

func TestScrapeCategoryFullWalk(t *testing.T) {
	urls := endpoints.New(config.DefaultConfig())
	fetch := &fakeFetcher{payloads: map[string]string{
		urls.CategoryListing(82, 100, 1):   listingPayload(250, 1, 100),
		urls.CategoryListing(82, 100, 101): listingPayload(250, 101, 100),
		urls.CategoryListing(82, 100, 201): listingPayload(250, 201, 50),
	}}
	w, _ := testWalker(t, fetch)

	listing, err := w.ScrapeCategory(context.Background(), 82, "Laptops")
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if len(fetch.calls) != 3 {
		t.Errorf("page fetches = %d, want 3", len(fetch.calls))
	}
	if listing.TotalProducts != 250 || len(listing.Products) != 250 {
		t.Errorf("total = %d, products = %d, want 250", listing.TotalProducts, len(listing.Products))
	}
}

func TestScrapeCategoryEmptyFirstPage(t *testing.T) {
	urls := endpoints.New(config.DefaultConfig())
	fetch := &fakeFetcher{payloads: map[string]string{
		urls.CategoryListing(19, 100, 1): `{"totalProductHits": 0, "products": []}`,
	}}
	w, _ := testWalker(t, fetch)

	listing, err := w.ScrapeCategory(context.Background(), 19, "Phones")
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if len(fetch.calls) != 1 {
		t.Errorf("page fetches = %d, want 1", len(fetch.calls))
	}
	if listing.TotalProducts != 0 || len(listing.Products) != 0 {
		t.Errorf("expected empty listing, got %d products", len(listing.Products))
	}
}

func TestScrapeCategoryPartialOnFetchFailure(t *testing.T) {
	urls := endpoints.New(config.DefaultConfig())
	fetch := &fakeFetcher{
		payloads: map[string]string{
			urls.CategoryListing(82, 100, 1): listingPayload(250, 1, 100),
		},
		errs: map[string]error{
			urls.CategoryListing(82, 100, 101): errors.New("retries exhausted"),
		},
	}
	w, store := testWalker(t, fetch)

	listing, err := w.ScrapeCategory(context.Background(), 82, "Laptops")
	if err != nil {
		t.Fatalf("partial walk must not error: %v", err)
	}
	if listing.TotalProducts != 100 {
		t.Errorf("total = %d, want 100 accumulated before the failure", listing.TotalProducts)
	}

	// The degraded listing is persisted like a complete one.
	saved, err := store.CategoryListings()
	if err != nil {
		t.Fatalf("load persisted: %v", err)
	}
	if len(saved) != 1 || saved[0].TotalProducts != 100 {
		t.Errorf("partial listing not persisted: %+v", saved)
	}
}

func TestScrapeCategoryTotalCapturedFromFirstPageOnly(t *testing.T) {
	urls := endpoints.New(config.DefaultConfig())
	// The second page re-declares a absurd total; the walker must keep the
	// first page's 150 and stop at 150 products.
	fetch := &fakeFetcher{payloads: map[string]string{
		urls.CategoryListing(82, 100, 1):   listingPayload(150, 1, 100),
		urls.CategoryListing(82, 100, 101): listingPayload(99999, 101, 50),
	}}
	w, _ := testWalker(t, fetch)

	listing, err := w.ScrapeCategory(context.Background(), 82, "Laptops")
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if len(fetch.calls) != 2 {
		t.Errorf("page fetches = %d, want 2", len(fetch.calls))
	}
	if listing.TotalProducts != 150 {
		t.Errorf("total = %d, want 150", listing.TotalProducts)
	}
}

func TestScrapeCategoryMalformedEnvelopeStopsWalk(t *testing.T) {
	urls := endpoints.New(config.DefaultConfig())
	fetch := &fakeFetcher{payloads: map[string]string{
		urls.CategoryListing(82, 100, 1):   listingPayload(250, 1, 100),
		urls.CategoryListing(82, 100, 101): `["not", "an", "envelope"]`,
	}}
	w, _ := testWalker(t, fetch)

	listing, err := w.ScrapeCategory(context.Background(), 82, "Laptops")
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if listing.TotalProducts != 100 {
		t.Errorf("total = %d, want the 100 collected before the bad page", listing.TotalProducts)
	}
}

func TestDiscoverCategories(t *testing.T) {
	fetch := &fakeFetcher{homepage: `<html><body>
		<a href="/cl/19/phones">Phones</a>
		<a href="/cl/19-phones-alt">Phones alt</a>
		<a href="/cl/82/laptops">Laptops</a>
	</body></html>`}
	w, _ := testWalker(t, fetch)

	cats, err := w.DiscoverCategories(context.Background())
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("got %d categories, want 2", len(cats))
	}
	if cats[0].ID != 19 || cats[1].ID != 82 {
		t.Errorf("ids = [%d, %d], want [19, 82]", cats[0].ID, cats[1].ID)
	}
}

func TestScrapeAllCategoriesExplicitIDs(t *testing.T) {
	urls := endpoints.New(config.DefaultConfig())
	fetch := &fakeFetcher{payloads: map[string]string{
		urls.CategoryListing(19, 100, 1): listingPayload(1, 1, 1),
		urls.CategoryListing(82, 100, 1): listingPayload(1, 2, 1),
	}}
	w, _ := testWalker(t, fetch)

	listings, err := w.ScrapeAllCategories(context.Background(), []int{19, 82})
	if err != nil {
		t.Fatalf("scrape all: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}
	// Explicit ids skip discovery and take placeholder names.
	if listings[0].CategoryName != "Category 19" {
		t.Errorf("name = %q, want placeholder", listings[0].CategoryName)
	}
	if fetch.homepage != "" {
		t.Error("test invariant: no homepage should be scripted")
	}
}

func TestScrapeAllCategoriesIsolatesFailures(t *testing.T) {
	urls := endpoints.New(config.DefaultConfig())
	fetch := &fakeFetcher{
		payloads: map[string]string{
			urls.CategoryListing(82, 100, 1): listingPayload(1, 2, 1),
		},
		errs: map[string]error{
			urls.CategoryListing(19, 100, 1): errors.New("blocked by remote host"),
		},
	}
	w, _ := testWalker(t, fetch)

	listings, err := w.ScrapeAllCategories(context.Background(), []int{19, 82})
	if err != nil {
		t.Fatalf("scrape all: %v", err)
	}
	// Category 19 degrades to an empty listing; 82 still walks fully.
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}
	if listings[0].TotalProducts != 0 || listings[1].TotalProducts != 1 {
		t.Errorf("totals = [%d, %d], want [0, 1]",
			listings[0].TotalProducts, listings[1].TotalProducts)
	}
}
