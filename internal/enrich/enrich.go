// Package enrich resolves unknown membership status by crawling the
// category listing of the item database.
//
// The listing is indexed by category and by the first letter of the item
// name, in pages of twelve. Resolving one item therefore also resolves every
// other stored item on the same pages, and those are backfilled for free.
package enrich

import (
	"context"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/colthorp/ge-inspector-go/internal/api"
	"github.com/colthorp/ge-inspector-go/internal/core"
	"github.com/colthorp/ge-inspector-go/internal/item"
)

// Catalogue is the item database as seen by the crawler.
// *api.GEAPI implements it.
type Catalogue interface {
	FetchItemDetail(ctx context.Context, id int) (*api.ItemDetail, error)
	FetchCategoryPage(ctx context.Context, category int, alpha string, page int) (*api.CategoryPage, error)
}

// Records is the store the crawler writes into.
// *cache.Store implements it.
type Records interface {
	ApplyMembership(id int, members item.Members, category item.Category) bool
	Persist() error
}

// SchemaDriftError is returned when the item database reports a category
// name missing from the category table. It needs a code change, not a retry.
type SchemaDriftError struct {
	Type string
	Name string
	ID   int
}

func (e *SchemaDriftError) Error() string {
	return fmt.Sprintf("unknown item type %q (item %q, id %d)", e.Type, e.Name, e.ID)
}

// Enricher resolves membership one item at a time.
type Enricher struct {
	catalogue Catalogue
	records   Records
	pageSize  int
	batch     int
	logger    *log.Logger
}

// NewEnricher creates an enricher fetching batch listing pages at a time.
func NewEnricher(catalogue Catalogue, records Records, batch int, logger *log.Logger) *Enricher {
	if batch < 1 {
		batch = 1
	}
	return &Enricher{
		catalogue: catalogue,
		records:   records,
		pageSize:  core.CataloguePageSize,
		batch:     batch,
		logger:    core.OrDiscard(logger).WithPrefix("enrich"),
	}
}

// Resolve fills in the membership status and category of it. Items whose
// status is already known are left alone and false is returned. Otherwise
// the listing is crawled, every stored item found on it is updated, and the
// store is persisted; it ends up yes, no or no_data and true is returned.
func (e *Enricher) Resolve(ctx context.Context, it *item.Item) (bool, error) {
	if it.Members != item.Unknown {
		return false, nil
	}

	e.logger.Info("Updating data with item", "item", it.Name)

	detail, err := e.catalogue.FetchItemDetail(ctx, it.ID)
	if err != nil {
		return false, fmt.Errorf("item details of %s: %w", it.Name, err)
	}

	category, ok := item.CategoryByName(detail.Item.Type)
	if !ok {
		return false, &SchemaDriftError{Type: detail.Item.Type, Name: it.Name, ID: it.ID}
	}

	alpha := alphaOf(it.Name)
	e.logger.Debug("crawling listing", "type", detail.Item.Type, "category", int(category), "alpha", alpha)

	backfilled, err := e.crawl(ctx, it, category, alpha)
	if err != nil {
		return false, err
	}

	if it.Members == item.Unknown {
		it.Members = item.NoData
		it.Category = category
		e.records.ApplyMembership(it.ID, item.NoData, category)
		e.logger.Debug("no listing entry found", "item", it.Name)
	}

	// Persist now so an interrupted query keeps what was learned
	if err := e.records.Persist(); err != nil {
		return true, err
	}

	e.logger.Debug("resolved", "item", it.Name, "members", it.Members, "backfilled", backfilled)
	return true, nil
}

// crawl walks the listing in batches until a page shorter than a full page
// shows up, and returns how many stored records were updated.
func (e *Enricher) crawl(ctx context.Context, target *item.Item, category item.Category, alpha string) (int, error) {
	updated := 0

	for first := 1; ; first += e.batch {
		pages := make([]*api.CategoryPage, e.batch)

		eg, egCtx := errgroup.WithContext(ctx)
		for i := range pages {
			page := first + i
			eg.Go(func() error {
				p, err := e.catalogue.FetchCategoryPage(egCtx, int(category), alpha, page)
				if err != nil {
					return fmt.Errorf("category %d listing %q page %d: %w", category, alpha, page, err)
				}
				pages[i] = p
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return updated, err
		}

		for i, p := range pages {
			for _, entry := range p.Items {
				members := item.No
				if entry.IsMembers() {
					members = item.Yes
				}
				if e.records.ApplyMembership(entry.ID, members, category) {
					updated++
				}
				if entry.ID == target.ID && target.Members == item.Unknown {
					target.Members = members
					target.Category = category
				}
			}
			e.logger.Debug("page", "page", first+i, "entries", len(p.Items))

			if len(p.Items) < e.pageSize {
				return updated, nil
			}
		}
	}
}

// alphaOf returns the listing letter for a name: its lowercased first
// character, or "#" for names starting with a digit.
func alphaOf(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	switch {
	case r == utf8.RuneError:
		return ""
	case unicode.IsDigit(r):
		return "#"
	}
	return string(unicode.ToLower(r))
}
