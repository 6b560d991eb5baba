package endpoints

import (
	"testing"

	"github.com/pricehound/pricehound/internal/config"
)

func testBuilder() *Builder {
	return New(config.DefaultConfig())
}

func TestBuilderURLs(t *testing.T) {
	b := testBuilder()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			"category listing",
			b.CategoryListing(82, 100, 1),
			"https://www.pricerunner.com/uk/api/search-edge-rest/public/search/category/v4/UK/82?size=100&offset=1",
		},
		{
			"product initial",
			b.ProductInitial(82, "3324094"),
			"https://www.pricerunner.com/uk/api/product-detail-edge-rest/public/product-detail/v0/initial/UK/82/3324094",
		},
		{
			"product offers",
			b.ProductOffers("3324094"),
			"https://www.pricerunner.com/uk/api/product-detail-edge-rest/public/product-detail/v0/offers/UK/3324094?af_ORIGIN=NATIONAL&af_ITEM_CONDITION=NEW,UNKNOWN&sortByPreset=RECOMMENDED",
		},
		{
			"product reviews",
			b.ProductReviews("3324094", 100, 10),
			"https://www.pricerunner.com/uk/api/review-edge-rest/public/v2/products/reviews/overview/UK/3324094/?limitUser=100&limitPro=10&lang=en",
		},
		{
			"price history",
			b.PriceHistory("3324094", "THREE_MONTHS"),
			"https://www.pricerunner.com/uk/api/product-information-edge-rest/public/pricehistory/product/3324094/UK/DAY?merchantId=&selectedInterval=THREE_MONTHS&filter=NATIONAL",
		},
		{
			"similar products",
			b.SimilarProducts(82, "3324094", 20),
			"https://www.pricerunner.com/uk/api/similar-edge-rest/public/search/products/similar/UK/82/3324094?size=20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("url mismatch\n got: %s\nwant: %s", tt.got, tt.want)
			}
		})
	}
}

func TestAbsoluteURL(t *testing.T) {
	b := testBuilder()

	if got := b.AbsoluteURL("/cl/82/laptops"); got != "https://www.pricerunner.com/cl/82/laptops" {
		t.Errorf("relative href not absolutized: %s", got)
	}
	if got := b.AbsoluteURL("https://other.example/cl/9/x"); got != "https://other.example/cl/9/x" {
		t.Errorf("absolute href rewritten: %s", got)
	}
}

func TestHomepageTrimsTrailingSlash(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Site.BaseURL = "https://www.pricerunner.com/"
	b := New(cfg)

	if got := b.Homepage(); got != "https://www.pricerunner.com" {
		t.Errorf("homepage = %s", got)
	}
	if got := b.CategoryListing(1, 100, 1); got != "https://www.pricerunner.com/uk/api/search-edge-rest/public/search/category/v4/UK/1?size=100&offset=1" {
		t.Errorf("listing = %s", got)
	}
}
