package types

import "encoding/json"

// Category is one entry of the site's category taxonomy, discovered from the
// homepage navigation. Identity is the numeric id embedded in the category URL.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CategoryListing is the accumulated product list of one category walk.
// Products holds the untouched listing rows exactly as the endpoint returned
// them; TotalProducts counts what was actually collected, which may fall short
// of the server-declared total when the walk stopped early.
type CategoryListing struct {
	CategoryID    int               `json:"category_id"`
	CategoryName  string            `json:"category_name"`
	TotalProducts int               `json:"total_products"`
	Products      []json.RawMessage `json:"products"`
}

// ScrapeSummary reports the outcome of a full product aggregation run.
// Attempted counts products actually scraped this run (skips excluded).
type ScrapeSummary struct {
	TotalCategories        int `json:"total_categories"`
	TotalProductsScraped   int `json:"total_products_scraped"`
	TotalProductsAttempted int `json:"total_products_attempted"`
}
