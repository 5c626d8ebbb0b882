// Package api provides the HTTP client and types for the Grand Exchange data sources.
package api

import (
	"context"
	"encoding/json"
)

// Transport is the interface for fetching one JSON document by URL.
type Transport interface {
	FetchJSON(ctx context.Context, url string) (json.RawMessage, error)
}

// Feed is one bulk data module: a value per item name.
type Feed map[string]int64

// BulkData holds the five bulk feeds fetched together.
type BulkData struct {
	Price    Feed
	ID       Feed
	Limit    Feed
	Volume   Feed
	HighAlch Feed
}

// CatalogueEntry is one item on a category listing page.
type CatalogueEntry struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Members string `json:"members"` // "true" or "false"
}

// IsMembers reports whether the listing flags the item as members only.
func (e CatalogueEntry) IsMembers() bool {
	return e.Members == "true"
}

// CategoryPage is one page of the alphabetical category listing.
type CategoryPage struct {
	Total int              `json:"total"`
	Items []CatalogueEntry `json:"items"`
}

// ItemDetail is the detail document of a single item.
type ItemDetail struct {
	Item CatalogueEntry `json:"item"`
}

// PriceGraph is the raw price graph document, keyed by millisecond timestamps.
type PriceGraph struct {
	Daily   map[string]int64 `json:"daily"`
	Average map[string]int64 `json:"average"`
}
