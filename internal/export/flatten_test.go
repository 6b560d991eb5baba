package export

import (
	"encoding/json"
	"testing"

	"github.com/pricehound/pricehound/internal/types"
)

func fullRecord() *types.ProductRecord {
	return &types.ProductRecord{
		ProductID:   "3324094",
		CategoryID:  82,
		ProductName: "Sony WH-1000XM5",
		InitialData: json.RawMessage(`{"product": {"description": "Wireless headphones"}}`),
		Offers: json.RawMessage(`{"offers": [
			{"price": {"amount": "299.00", "currency": "GBP"}, "merchant": {"name": "SoundCo"}},
			{"price": {"amount": "279.50", "currency": "GBP"}, "merchant": {"name": "AudioHut"}},
			{"price": {"amount": "bogus", "currency": "GBP"}, "merchant": {"name": "Broken"}}
		]}`),
		Reviews: json.RawMessage(`{
			"averageRating": 4.6, "totalReviews": 128,
			"userReviews": [{}, {}, {}], "proReviews": [{}]
		}`),
		PriceHistory: map[string]json.RawMessage{
			"THREE_MONTHS": json.RawMessage(`{"pricePoints": [{"price": 290}, {"price": 270}, {"price": 310}]}`),
			"SIX_MONTHS":   json.RawMessage(`{"pricePoints": [{"price": 250}]}`),
		},
		SimilarProducts: json.RawMessage(`{"products": [{}, {}]}`),
	}
}

func TestFlattenFullRecord(t *testing.T) {
	flat := Flatten(fullRecord())

	if flat.ProductID != "3324094" || flat.CategoryID != 82 {
		t.Errorf("identity = %s/%d", flat.ProductID, flat.CategoryID)
	}
	if flat.Description != "Wireless headphones" {
		t.Errorf("description = %q", flat.Description)
	}
	if flat.LowestPrice == nil || *flat.LowestPrice != 279.50 {
		t.Errorf("lowest price = %v, want 279.50", flat.LowestPrice)
	}
	if flat.MerchantName != "AudioHut" {
		t.Errorf("merchant = %q, want the cheapest offer's", flat.MerchantName)
	}
	if flat.TotalOffers == nil || *flat.TotalOffers != 3 {
		t.Errorf("total offers = %v, want 3", flat.TotalOffers)
	}
	if flat.AverageRating == nil || *flat.AverageRating != 4.6 {
		t.Errorf("rating = %v", flat.AverageRating)
	}
	if flat.UserReviewsCount == nil || *flat.UserReviewsCount != 3 {
		t.Errorf("user reviews = %v", flat.UserReviewsCount)
	}
	if flat.ProReviewsCount == nil || *flat.ProReviewsCount != 1 {
		t.Errorf("pro reviews = %v", flat.ProReviewsCount)
	}
	if flat.PriceHistoryMin3M == nil || *flat.PriceHistoryMin3M != 270 {
		t.Errorf("3m min = %v", flat.PriceHistoryMin3M)
	}
	if flat.PriceHistoryMax3M == nil || *flat.PriceHistoryMax3M != 310 {
		t.Errorf("3m max = %v", flat.PriceHistoryMax3M)
	}
	if flat.PriceHistoryAvg3M == nil || *flat.PriceHistoryAvg3M != 290 {
		t.Errorf("3m avg = %v", flat.PriceHistoryAvg3M)
	}
	if flat.SimilarCount == nil || *flat.SimilarCount != 2 {
		t.Errorf("similar = %v", flat.SimilarCount)
	}
}

func TestFlattenAbsentPayloads(t *testing.T) {
	rec := &types.ProductRecord{
		ProductID:   "555",
		CategoryID:  19,
		ProductName: "Partial Phone",
	}
	flat := Flatten(rec)

	if flat.ProductName != "Partial Phone" {
		t.Errorf("name = %q", flat.ProductName)
	}
	if flat.LowestPrice != nil || flat.TotalOffers != nil || flat.AverageRating != nil ||
		flat.PriceHistoryMin3M != nil || flat.SimilarCount != nil {
		t.Error("absent payloads must leave their columns nil")
	}

	row := flat.csvRow()
	if len(row) != len(csvHeader) {
		t.Fatalf("row has %d cells, header has %d", len(row), len(csvHeader))
	}
	// Every optional column renders empty.
	for _, i := range []int{4, 7, 8, 9, 10, 11, 12, 13, 14, 15} {
		if row[i] != "" {
			t.Errorf("cell %s = %q, want empty", csvHeader[i], row[i])
		}
	}
}

func TestFlattenToleratesOddShapes(t *testing.T) {
	rec := &types.ProductRecord{
		ProductID:       "9",
		CategoryID:      19,
		ProductName:     "Odd",
		InitialData:     json.RawMessage(`["unexpected", "array"]`),
		Offers:          json.RawMessage(`{"offers": "not-an-array"}`),
		Reviews:         json.RawMessage(`{"averageRating": "high"}`),
		SimilarProducts: json.RawMessage(`[{}, {}, {}]`),
		PriceHistory: map[string]json.RawMessage{
			"THREE_MONTHS": json.RawMessage(`{"pricePoints": []}`),
		},
	}
	flat := Flatten(rec)

	if flat.Description != "" || flat.TotalOffers != nil || flat.AverageRating != nil {
		t.Errorf("odd shapes should yield empty values: %+v", flat)
	}
	if flat.PriceHistoryMin3M != nil {
		t.Error("empty price point series should yield nil stats")
	}
	// Bare-array similar payloads still count.
	if flat.SimilarCount == nil || *flat.SimilarCount != 3 {
		t.Errorf("similar = %v, want 3", flat.SimilarCount)
	}
}

func TestCSVRowFullRecord(t *testing.T) {
	row := Flatten(fullRecord()).csvRow()

	want := map[int]string{
		0:  "3324094",
		1:  "82",
		4:  "279.5",
		6:  "AudioHut",
		7:  "3",
		9:  "128",
		12: "270",
		15: "2",
	}
	for i, cell := range want {
		if row[i] != cell {
			t.Errorf("cell %s = %q, want %q", csvHeader[i], row[i], cell)
		}
	}
}
