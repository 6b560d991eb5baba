// Package parse holds the pure extraction steps between a rendered page and
// structured data: pulling the JSON payload out of a navigated document and
// pulling category links out of the homepage.
package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pricehound/pricehound/internal/types"
)

// JSONDocument extracts the JSON payload from a rendered page. The endpoints
// serve bare JSON, which the browser wraps in a minimal HTML document with the
// payload inside a <pre> node; some responses carry it directly in the body.
func JSONDocument(body []byte) (json.RawMessage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse rendered page: %w", err)
	}

	text := strings.TrimSpace(doc.Find("pre").First().Text())
	if text == "" {
		text = strings.TrimSpace(doc.Find("body").Text())
	}
	if text == "" {
		return nil, types.ErrEmptyBody
	}
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("%w: %s", types.ErrMalformedBody, Preview(text, 200))
	}
	return json.RawMessage(text), nil
}

// Preview returns at most n characters of s, whitespace-collapsed, for logs.
func Preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
