// Package export consolidates persisted product records into run-level
// artifacts: summary statistics, a single JSON array, a flattened CSV, and an
// optional MongoDB mirror. It is the only place that interprets fields inside
// the opaque sub-resource payloads, and it does so best-effort: a missing or
// oddly shaped key yields an empty cell, never an error.
package export

import (
	"encoding/json"
	"strconv"

	"github.com/pricehound/pricehound/internal/types"
)

// FlatProduct is one row of the consolidated tabular export.
type FlatProduct struct {
	ProductID           string   `json:"product_id"            bson:"product_id"`
	CategoryID          int      `json:"category_id"           bson:"category_id"`
	ProductName         string   `json:"product_name"          bson:"product_name"`
	Description         string   `json:"description"           bson:"description"`
	LowestPrice         *float64 `json:"lowest_price"          bson:"lowest_price"`
	LowestPriceCurrency string   `json:"lowest_price_currency" bson:"lowest_price_currency"`
	MerchantName        string   `json:"merchant_name"         bson:"merchant_name"`
	TotalOffers         *int     `json:"total_offers"          bson:"total_offers"`
	AverageRating       *float64 `json:"average_rating"        bson:"average_rating"`
	TotalReviews        *int     `json:"total_reviews"         bson:"total_reviews"`
	UserReviewsCount    *int     `json:"user_reviews_count"    bson:"user_reviews_count"`
	ProReviewsCount     *int     `json:"pro_reviews_count"     bson:"pro_reviews_count"`
	PriceHistoryMin3M   *float64 `json:"price_history_min_3m"  bson:"price_history_min_3m"`
	PriceHistoryMax3M   *float64 `json:"price_history_max_3m"  bson:"price_history_max_3m"`
	PriceHistoryAvg3M   *float64 `json:"price_history_avg_3m"  bson:"price_history_avg_3m"`
	SimilarCount        *int     `json:"similar_products_count" bson:"similar_products_count"`
}

// csvHeader is the fixed column set of the CSV export.
var csvHeader = []string{
	"product_id", "category_id", "product_name", "description",
	"lowest_price", "lowest_price_currency", "merchant_name", "total_offers",
	"average_rating", "total_reviews", "user_reviews_count", "pro_reviews_count",
	"price_history_min_3m", "price_history_max_3m", "price_history_avg_3m",
	"similar_products_count",
}

// Flatten projects one composite record onto the tabular shape. Absent
// sub-resources leave their columns nil.
func Flatten(rec *types.ProductRecord) FlatProduct {
	flat := FlatProduct{
		ProductID:   rec.ProductID.String(),
		CategoryID:  rec.CategoryID,
		ProductName: rec.ProductName,
	}
	flattenInitial(rec.InitialData, &flat)
	flattenOffers(rec.Offers, &flat)
	flattenReviews(rec.Reviews, &flat)
	flattenPriceHistory(rec.PriceHistory["THREE_MONTHS"], &flat)
	flattenSimilar(rec.SimilarProducts, &flat)
	return flat
}

func flattenInitial(payload json.RawMessage, flat *FlatProduct) {
	if payload == nil {
		return
	}
	var init struct {
		Description string `json:"description"`
		Product     struct {
			Description string `json:"description"`
		} `json:"product"`
	}
	if err := json.Unmarshal(payload, &init); err != nil {
		return
	}
	flat.Description = init.Product.Description
	if flat.Description == "" {
		flat.Description = init.Description
	}
}

func flattenOffers(payload json.RawMessage, flat *FlatProduct) {
	if payload == nil {
		return
	}
	var body struct {
		Offers []struct {
			Price struct {
				Amount   string `json:"amount"`
				Currency string `json:"currency"`
			} `json:"price"`
			Merchant struct {
				Name string `json:"name"`
			} `json:"merchant"`
		} `json:"offers"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return
	}

	n := len(body.Offers)
	flat.TotalOffers = &n

	var lowest *float64
	for _, offer := range body.Offers {
		amount, err := strconv.ParseFloat(offer.Price.Amount, 64)
		if err != nil {
			continue
		}
		if lowest == nil || amount < *lowest {
			v := amount
			lowest = &v
			flat.LowestPriceCurrency = offer.Price.Currency
			flat.MerchantName = offer.Merchant.Name
		}
	}
	flat.LowestPrice = lowest
}

func flattenReviews(payload json.RawMessage, flat *FlatProduct) {
	if payload == nil {
		return
	}
	var body struct {
		AverageRating *float64          `json:"averageRating"`
		TotalReviews  *int              `json:"totalReviews"`
		UserReviews   []json.RawMessage `json:"userReviews"`
		ProReviews    []json.RawMessage `json:"proReviews"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return
	}
	flat.AverageRating = body.AverageRating
	flat.TotalReviews = body.TotalReviews
	user, pro := len(body.UserReviews), len(body.ProReviews)
	flat.UserReviewsCount = &user
	flat.ProReviewsCount = &pro
}

func flattenPriceHistory(payload json.RawMessage, flat *FlatProduct) {
	if payload == nil {
		return
	}
	var body struct {
		PricePoints []struct {
			Price float64 `json:"price"`
		} `json:"pricePoints"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || len(body.PricePoints) == 0 {
		return
	}

	min, max, sum := body.PricePoints[0].Price, body.PricePoints[0].Price, 0.0
	for _, pt := range body.PricePoints {
		if pt.Price < min {
			min = pt.Price
		}
		if pt.Price > max {
			max = pt.Price
		}
		sum += pt.Price
	}
	avg := sum / float64(len(body.PricePoints))
	flat.PriceHistoryMin3M = &min
	flat.PriceHistoryMax3M = &max
	flat.PriceHistoryAvg3M = &avg
}

func flattenSimilar(payload json.RawMessage, flat *FlatProduct) {
	if payload == nil {
		return
	}
	var body struct {
		Products []json.RawMessage `json:"products"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Products != nil {
		n := len(body.Products)
		flat.SimilarCount = &n
		return
	}
	// Some endpoint versions return a bare array.
	var arr []json.RawMessage
	if err := json.Unmarshal(payload, &arr); err == nil {
		n := len(arr)
		flat.SimilarCount = &n
	}
}

// csvRow renders the flat product as CSV cells; nil values become empty.
func (f FlatProduct) csvRow() []string {
	return []string{
		f.ProductID,
		strconv.Itoa(f.CategoryID),
		f.ProductName,
		f.Description,
		floatCell(f.LowestPrice),
		f.LowestPriceCurrency,
		f.MerchantName,
		intCell(f.TotalOffers),
		floatCell(f.AverageRating),
		intCell(f.TotalReviews),
		intCell(f.UserReviewsCount),
		intCell(f.ProReviewsCount),
		floatCell(f.PriceHistoryMin3M),
		floatCell(f.PriceHistoryMax3M),
		floatCell(f.PriceHistoryAvg3M),
		intCell(f.SimilarCount),
	}
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
