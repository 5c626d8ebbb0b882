package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/colthorp/ge-inspector-go/internal/core"
)

// Metadata keys mixed into every bulk feed.
var feedMetaKeys = []string{"%LAST_UPDATE%", "%LAST_UPDATE_F%"}

// Endpoints holds the base URLs of the wiki and the item database.
type Endpoints struct {
	WikiBase   string
	ItemDBBase string
}

// DefaultEndpoints returns the production endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{WikiBase: core.WikiBaseURL, ItemDBBase: core.ItemDBBaseURL}
}

// EndpointsFromConfig returns the endpoints configured in cfg.
func EndpointsFromConfig(cfg core.Config) Endpoints {
	return Endpoints{WikiBase: cfg.WikiBase, ItemDBBase: cfg.ItemDBBase}
}

// FeedURL returns the raw JSON URL of a wiki data module.
func (e Endpoints) FeedURL(module string) string {
	return fmt.Sprintf("%s/?title=%s&action=raw&ctype=application%%2Fjson", e.WikiBase, module)
}

// ItemDetailURL returns the detail document URL of an item.
func (e Endpoints) ItemDetailURL(id int) string {
	return fmt.Sprintf("%s/api/catalogue/detail.json?item=%d", e.ItemDBBase, id)
}

// CategoryPageURL returns the URL of one page of a category listing for items
// whose name starts with alpha.
func (e Endpoints) CategoryPageURL(category int, alpha string, page int) string {
	return fmt.Sprintf("%s/api/catalogue/items.json?category=%d&alpha=%s&page=%d",
		e.ItemDBBase, category, url.QueryEscape(alpha), page)
}

// GraphURL returns the price graph URL of an item.
func (e Endpoints) GraphURL(id int) string {
	return fmt.Sprintf("%s/api/graph/%d.json", e.ItemDBBase, id)
}

// GEAPI provides a typed convenience layer over the Grand Exchange data sources.
type GEAPI struct {
	transport Transport
	endpoints Endpoints
	logger    *log.Logger
}

// NewGEAPI creates a new high-level API client.
func NewGEAPI(transport Transport, endpoints Endpoints, logger *log.Logger) *GEAPI {
	return &GEAPI{
		transport: transport,
		endpoints: endpoints,
		logger:    core.OrDiscard(logger),
	}
}

// Endpoints returns the endpoints used by the client.
func (g *GEAPI) Endpoints() Endpoints {
	return g.endpoints
}

// FetchBulkData downloads the five bulk feeds concurrently. The call fails as
// a whole if any single feed fails.
func (g *GEAPI) FetchBulkData(ctx context.Context) (*BulkData, error) {
	var data BulkData

	feeds := []struct {
		module string
		dst    *Feed
	}{
		{core.PriceFeedModule, &data.Price},
		{core.IDFeedModule, &data.ID},
		{core.LimitFeedModule, &data.Limit},
		{core.VolumeFeedModule, &data.Volume},
		{core.HighAlchFeedModule, &data.HighAlch},
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, f := range feeds {
		eg.Go(func() error {
			feed, err := g.fetchFeed(ctx, f.module)
			if err != nil {
				return fmt.Errorf("bulk feed %s: %w", f.module, err)
			}
			*f.dst = feed
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g.logger.Debug("bulk feeds downloaded",
		"prices", len(data.Price), "ids", len(data.ID), "limits", len(data.Limit),
		"volumes", len(data.Volume), "alchs", len(data.HighAlch))
	return &data, nil
}

func (g *GEAPI) fetchFeed(ctx context.Context, module string) (Feed, error) {
	raw, err := g.transport.FetchJSON(ctx, g.endpoints.FeedURL(module))
	if err != nil {
		return nil, err
	}
	return decodeFeed(raw)
}

// decodeFeed parses a flat name -> number object, dropping the metadata keys.
func decodeFeed(raw json.RawMessage) (Feed, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	for _, key := range feedMetaKeys {
		delete(values, key)
	}

	feed := make(Feed, len(values))
	for name, v := range values {
		num, ok := v.(json.Number)
		if !ok {
			continue
		}
		if n, err := num.Int64(); err == nil {
			feed[name] = n
			continue
		}
		if f, err := num.Float64(); err == nil {
			feed[name] = int64(math.Round(f))
		}
	}
	return feed, nil
}

// FetchItemDetail downloads the detail document of one item.
func (g *GEAPI) FetchItemDetail(ctx context.Context, id int) (*ItemDetail, error) {
	raw, err := g.transport.FetchJSON(ctx, g.endpoints.ItemDetailURL(id))
	if err != nil {
		return nil, err
	}
	var detail ItemDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil, fmt.Errorf("decode item detail %d: %w", id, err)
	}
	return &detail, nil
}

// FetchCategoryPage downloads one page of the alphabetical category listing.
// Pages are numbered from 1.
func (g *GEAPI) FetchCategoryPage(ctx context.Context, category int, alpha string, page int) (*CategoryPage, error) {
	raw, err := g.transport.FetchJSON(ctx, g.endpoints.CategoryPageURL(category, alpha, page))
	if err != nil {
		return nil, err
	}
	var cp CategoryPage
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("decode category %d page %d: %w", category, page, err)
	}
	return &cp, nil
}

// FetchPriceGraph downloads the daily price points of an item, oldest first.
func (g *GEAPI) FetchPriceGraph(ctx context.Context, id int) ([]int64, error) {
	raw, err := g.transport.FetchJSON(ctx, g.endpoints.GraphURL(id))
	if err != nil {
		return nil, err
	}
	var graph PriceGraph
	if err := json.Unmarshal(raw, &graph); err != nil {
		return nil, fmt.Errorf("decode price graph %d: %w", id, err)
	}
	return sortedSeries(graph.Daily), nil
}

// sortedSeries orders timestamp-keyed points chronologically.
func sortedSeries(points map[string]int64) []int64 {
	type point struct {
		ts    int64
		price int64
	}
	ordered := make([]point, 0, len(points))
	for key, price := range points {
		ts, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		ordered = append(ordered, point{ts, price})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ts < ordered[j].ts })

	prices := make([]int64, len(ordered))
	for i, p := range ordered {
		prices[i] = p.price
	}
	return prices
}
