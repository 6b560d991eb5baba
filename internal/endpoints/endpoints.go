// Package endpoints builds the URLs of the upstream JSON APIs. The site
// exposes one edge service per concern (search, product detail, reviews,
// price history, similar products), all rooted under a country-scoped path.
package endpoints

import (
	"fmt"
	"strings"

	"github.com/pricehound/pricehound/internal/config"
	"github.com/pricehound/pricehound/internal/types"
)

// Builder renders endpoint URLs for one site/locale selection.
type Builder struct {
	base        string
	apiBase     string
	locale      string
	granularity string
}

// New creates a Builder from the site and scraper configuration.
func New(cfg *config.Config) *Builder {
	base := strings.TrimRight(cfg.Site.BaseURL, "/")
	return &Builder{
		base:        base,
		apiBase:     fmt.Sprintf("%s/%s/api", base, cfg.Site.CountryCode),
		locale:      cfg.Site.Locale,
		granularity: cfg.Scraper.PriceHistoryGranularity,
	}
}

// Homepage is the navigation entry point for category discovery.
func (b *Builder) Homepage() string {
	return b.base
}

// AbsoluteURL resolves an href scraped from the page against the site root.
func (b *Builder) AbsoluteURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return b.base + href
}

// CategoryListing is the paginated product listing for one category.
// Offsets are 1-based.
func (b *Builder) CategoryListing(categoryID, size, offset int) string {
	return fmt.Sprintf("%s/search-edge-rest/public/search/category/v4/%s/%d?size=%d&offset=%d",
		b.apiBase, b.locale, categoryID, size, offset)
}

// ProductInitial is the first product-detail payload.
func (b *Builder) ProductInitial(categoryID int, productID types.ProductID) string {
	return fmt.Sprintf("%s/product-detail-edge-rest/public/product-detail/v0/initial/%s/%d/%s",
		b.apiBase, b.locale, categoryID, productID)
}

// ProductOffers lists merchant offers for one product.
func (b *Builder) ProductOffers(productID types.ProductID) string {
	return fmt.Sprintf("%s/product-detail-edge-rest/public/product-detail/v0/offers/%s/%s"+
		"?af_ORIGIN=NATIONAL&af_ITEM_CONDITION=NEW,UNKNOWN&sortByPreset=RECOMMENDED",
		b.apiBase, b.locale, productID)
}

// ProductReviews is the review overview, limited to the configured number of
// user and professional reviews.
func (b *Builder) ProductReviews(productID types.ProductID, limitUser, limitPro int) string {
	return fmt.Sprintf("%s/review-edge-rest/public/v2/products/reviews/overview/%s/%s/?limitUser=%d&limitPro=%d&lang=en",
		b.apiBase, b.locale, productID, limitUser, limitPro)
}

// PriceHistory is the price-point series for one interval name
// (THREE_MONTHS, SIX_MONTHS, ONE_YEAR).
func (b *Builder) PriceHistory(productID types.ProductID, interval string) string {
	return fmt.Sprintf("%s/product-information-edge-rest/public/pricehistory/product/%s/%s/%s"+
		"?merchantId=&selectedInterval=%s&filter=NATIONAL",
		b.apiBase, productID, b.locale, b.granularity, interval)
}

// SimilarProducts lists products related to the given one.
func (b *Builder) SimilarProducts(categoryID int, productID types.ProductID, size int) string {
	return fmt.Sprintf("%s/similar-edge-rest/public/search/products/similar/%s/%d/%s?size=%d",
		b.apiBase, b.locale, categoryID, productID, size)
}
