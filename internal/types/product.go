package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ProductID identifies one product. Listing rows carry ids as JSON numbers or
// strings depending on the endpoint version; both normalize to the same id so
// file names and resume markers stay stable.
type ProductID string

func (id ProductID) String() string { return string(id) }

func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("product id: %w", err)
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers so records round-trip the way the
// listing endpoint produced them.
func (id ProductID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// ProductSummary is the minimal view of one listing row. The full row stays
// opaque; only the id (required) and name are decoded.
type ProductSummary struct {
	ID   ProductID `json:"id"`
	Name string    `json:"name"`
}

// DecodeProductSummary extracts id and name from a raw listing row.
func DecodeProductSummary(row json.RawMessage) (ProductSummary, error) {
	var s ProductSummary
	if err := json.Unmarshal(row, &s); err != nil {
		return ProductSummary{}, fmt.Errorf("decode listing row: %w", err)
	}
	return s, nil
}

// ProductRecord is the composite detail record for one product. Each payload
// field holds the raw JSON of its endpoint, or nil when that sub-fetch failed;
// nil payloads marshal as JSON null. A record is written once and never
// mutated; its file's existence is the resume marker for the product.
type ProductRecord struct {
	ProductID       ProductID                  `json:"product_id"`
	CategoryID      int                        `json:"category_id"`
	ProductName     string                     `json:"product_name"`
	InitialData     json.RawMessage            `json:"initial_data"`
	Offers          json.RawMessage            `json:"offers"`
	Reviews         json.RawMessage            `json:"reviews"`
	PriceHistory    map[string]json.RawMessage `json:"price_history"`
	SimilarProducts json.RawMessage            `json:"similar_products"`
}
