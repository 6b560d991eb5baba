package parse

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/pricehound/pricehound/internal/types"
)

const categoryPathMarker = "/cl/"

// CategoryLinks scans rendered homepage HTML for category anchors and returns
// the categories in discovery order, deduplicated by id (first anchor wins).
// Category hrefs look like /cl/{id}/{slug} or /cl/{id}-{slug}; anchors whose
// id token is not an integer, and anchors without visible text, are skipped.
// The absolute func resolves relative hrefs against the site root.
func CategoryLinks(body []byte, absolute func(string) string) ([]types.Category, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse homepage: %w", err)
	}

	nodes, err := htmlquery.QueryAll(doc, `//a[contains(@href, "/cl/")]`)
	if err != nil {
		return nil, fmt.Errorf("query category links: %w", err)
	}

	var categories []types.Category
	seen := make(map[int]bool)

	for _, node := range nodes {
		href := htmlquery.SelectAttr(node, "href")
		name := strings.Join(strings.Fields(htmlquery.InnerText(node)), " ")
		if href == "" || name == "" {
			continue
		}

		id, ok := categoryID(href)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true

		categories = append(categories, types.Category{
			ID:   id,
			Name: name,
			URL:  absolute(href),
		})
	}

	return categories, nil
}

// categoryID extracts the numeric id embedded in a category href. The token
// after "/cl/" runs to the first "/", "-" or "?", whichever comes first.
func categoryID(href string) (int, bool) {
	_, remainder, found := strings.Cut(href, categoryPathMarker)
	if !found {
		return 0, false
	}
	token := remainder
	if i := strings.IndexAny(remainder, "/-?"); i >= 0 {
		token = remainder[:i]
	}
	id, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return id, true
}
