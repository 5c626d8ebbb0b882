package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/colthorp/ge-inspector-go/internal/core"
)

// InMemoryTransport serves canned JSON documents keyed by URL.
// Unknown URLs fail with ErrEmptyResponse, like a server that never answers.
type InMemoryTransport struct {
	mu         sync.Mutex
	documents  map[string]json.RawMessage
	failures   map[string]error
	requestLog []string
}

// NewInMemoryTransport creates an empty transport for testing.
func NewInMemoryTransport() *InMemoryTransport {
	return &InMemoryTransport{
		documents: make(map[string]json.RawMessage),
		failures:  make(map[string]error),
	}
}

// Seed registers the document returned for url. Strings and json.RawMessage
// are stored as-is, anything else is marshalled.
func (t *InMemoryTransport) Seed(url string, v any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch doc := v.(type) {
	case json.RawMessage:
		t.documents[url] = doc
	case string:
		t.documents[url] = json.RawMessage(doc)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			panic(fmt.Sprintf("seed %s: %v", url, err))
		}
		t.documents[url] = data
	}
	delete(t.failures, url)
}

// Fail makes every request for url return err.
func (t *InMemoryTransport) Fail(url string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[url] = err
}

// SeedBulkData registers the five bulk feeds, adding the metadata keys the
// real feeds carry.
func (t *InMemoryTransport) SeedBulkData(e Endpoints, data BulkData) {
	feeds := map[string]Feed{
		core.PriceFeedModule:    data.Price,
		core.IDFeedModule:       data.ID,
		core.LimitFeedModule:    data.Limit,
		core.VolumeFeedModule:   data.Volume,
		core.HighAlchFeedModule: data.HighAlch,
	}
	for module, feed := range feeds {
		doc := map[string]any{
			"%LAST_UPDATE%":   1700000000,
			"%LAST_UPDATE_F%": "14 November 2023 22:13:20 (UTC)",
		}
		for name, v := range feed {
			doc[name] = v
		}
		t.Seed(e.FeedURL(module), doc)
	}
}

// trailingPages is how many empty pages past the end of a listing are served,
// like the live listing does for any page number.
const trailingPages = 8

// SeedCategoryListing splits entries into pages of pageSize and registers
// them, followed by empty pages past the end.
func (t *InMemoryTransport) SeedCategoryListing(e Endpoints, category int, alpha string, pageSize int, entries []CatalogueEntry) {
	page := 1
	for start := 0; ; start += pageSize {
		end := min(start+pageSize, len(entries))
		chunk := []CatalogueEntry{}
		if start < len(entries) {
			chunk = entries[start:end]
		}
		t.Seed(e.CategoryPageURL(category, alpha, page), CategoryPage{Total: len(entries), Items: chunk})
		if len(chunk) < pageSize {
			break
		}
		page++
	}
	for extra := 1; extra <= trailingPages; extra++ {
		t.Seed(e.CategoryPageURL(category, alpha, page+extra), CategoryPage{Total: len(entries), Items: []CatalogueEntry{}})
	}
}

// SeedPriceGraph registers a daily graph with one point per day.
func (t *InMemoryTransport) SeedPriceGraph(e Endpoints, id int, prices []int64) {
	daily := make(map[string]int64, len(prices))
	const day = int64(24 * 60 * 60 * 1000)
	for i, p := range prices {
		daily[strconv.FormatInt(1700000000000+int64(i)*day, 10)] = p
	}
	t.Seed(e.GraphURL(id), PriceGraph{Daily: daily, Average: daily})
}

// FetchJSON returns the registered document for url.
func (t *InMemoryTransport) FetchJSON(ctx context.Context, url string) (json.RawMessage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.requestLog = append(t.requestLog, url)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := t.failures[url]; ok {
		return nil, err
	}
	doc, ok := t.documents[url]
	if !ok {
		return nil, fmt.Errorf("%w from %s", ErrEmptyResponse, url)
	}
	return doc, nil
}

// Requests returns a copy of the URLs requested so far.
func (t *InMemoryTransport) Requests() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.requestLog...)
}

// RequestsMade returns the number of requests made to this transport.
func (t *InMemoryTransport) RequestsMade() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requestLog)
}

// Reset clears recorded requests.
func (t *InMemoryTransport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requestLog = nil
}
