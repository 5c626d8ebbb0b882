// Package query runs filter queries against the item store and picks random
// results, resolving membership on demand.
package query

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/colthorp/ge-inspector-go/internal/core"
	"github.com/colthorp/ge-inspector-go/internal/filter"
	"github.com/colthorp/ge-inspector-go/internal/item"
)

var (
	// ErrNoResults is returned when there is nothing to pick from.
	ErrNoResults = errors.New("no results were found, please try another query")

	// ErrPickExhausted is returned when no sampled item had the requested
	// membership status within the sampling cap.
	ErrPickExhausted = errors.New("reached the maximum amount of items to check, try again with different search options")
)

// Store is the part of the item store a query needs.
// *cache.Store implements it.
type Store interface {
	filter.PriceLookup
	Load(ctx context.Context) ([]item.Item, error)
	Reconcile(items []item.Item) int
}

// Resolver fills in unknown membership status.
// *enrich.Enricher implements it.
type Resolver interface {
	Resolve(ctx context.Context, it *item.Item) (bool, error)
}

// Request is one query.
type Request struct {
	Filter    filter.Filter
	PreFilter string // semicolon separated reference item names
	Sort      SortMode
	Invert    bool
}

// Service runs queries.
type Service struct {
	store    Store
	resolver Resolver
	logger   *log.Logger
}

// NewService creates a query service.
func NewService(store Store, resolver Resolver, logger *log.Logger) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		logger:   core.OrDiscard(logger).WithPrefix("query"),
	}
}

// Run loads the store and returns the filtered, sorted items.
func (s *Service) Run(ctx context.Context, req Request) ([]item.Item, error) {
	items, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	f := req.Filter
	if req.PreFilter != "" {
		f = filter.PreFilter(f, items, req.PreFilter)
		if !f.HasPreFilter() {
			s.logger.Warn("none of the pre-filter items were found", "items", req.PreFilter)
		}
	}

	result, err := filter.Apply(items, f, s.store)
	if err != nil {
		return nil, err
	}

	Sort(result, req.Sort)
	if req.Invert {
		slices.Reverse(result)
	}

	s.logger.Debug("query", "items", len(items), "results", len(result), "sort", req.Sort)
	return result, nil
}

// Resolve fills in the membership of it. The resolver records the result in
// the store.
func (s *Service) Resolve(ctx context.Context, it *item.Item) (bool, error) {
	if s.resolver == nil {
		return false, nil
	}
	return s.resolver.Resolve(ctx, it)
}

// ResolveMembers resolves every unknown item in items, in order. Items
// backfilled by an earlier crawl are picked up from the store instead of
// being crawled again.
func (s *Service) ResolveMembers(ctx context.Context, items []item.Item) error {
	for i := range items {
		if items[i].Members != item.Unknown {
			continue
		}
		changed, err := s.Resolve(ctx, &items[i])
		if err != nil {
			return err
		}
		if changed {
			s.store.Reconcile(items)
		}
	}
	return nil
}

// FilterMembers keeps the items whose status is members. item.Unknown keeps
// everything.
func FilterMembers(items []item.Item, members item.Members) []item.Item {
	if members == item.Unknown {
		return items
	}
	out := make([]item.Item, 0, len(items))
	for _, it := range items {
		if it.Members == members {
			out = append(out, it)
		}
	}
	return out
}

// Pick returns a random item. When members is not item.Unknown, items are
// resampled and resolved until one has that status, checking at most
// min(len(items), 64) items; after that the last candidate is returned with
// ErrPickExhausted. Resolutions are reconciled into items as they happen.
func (s *Service) Pick(ctx context.Context, items []item.Item, members item.Members, rng *rand.Rand) (item.Item, error) {
	if len(items) == 0 {
		return item.Item{}, ErrNoResults
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	it := items[rng.IntN(len(items))].Clone()
	if members == item.Unknown {
		return it, nil
	}

	limit := min(len(items), core.RandomPickCap)
	checked := 0
	for it.Members != members && checked < limit {
		it = items[rng.IntN(len(items))].Clone()

		changed, err := s.Resolve(ctx, &it)
		if err != nil {
			return it, err
		}
		if changed {
			s.store.Reconcile(items)
		}

		checked++
		s.logger.Info("Items checked", "checked", fmt.Sprintf("%d/%d", checked, limit))
	}

	if it.Members != members {
		return it, ErrPickExhausted
	}
	return it, nil
}
