package cache

import (
	"context"
	"fmt"

	"github.com/colthorp/ge-inspector-go/internal/core"
	"github.com/colthorp/ge-inspector-go/internal/item"
)

// PriceHistory returns the last days daily prices of it, oldest first.
// A history younger than a day is reused; otherwise the graph is downloaded,
// stored on it and in the store, and persisted. days <= 0 returns everything.
func (s *Store) PriceHistory(ctx context.Context, it *item.Item, days int) ([]int64, error) {
	now := s.now()
	if it.PriceHistoryFresh(now, core.PriceHistoryMaxAge) {
		s.logger.Debug("price history cache hit", "item", it.Name)
		return lastN(it.PriceHistory, days), nil
	}

	s.logger.Info("Downloading graph data", "item", it.Name)
	prices, err := s.source.FetchPriceGraph(ctx, it.ID)
	if err != nil {
		return nil, fmt.Errorf("price history of %s: %w", it.Name, err)
	}

	it.SetPriceHistory(prices, now)
	if !s.SetPriceHistory(it.ID, prices, now) {
		s.logger.Debug("price history of unknown item not stored", "id", it.ID, "item", it.Name)
	}
	if err := s.Persist(); err != nil {
		return nil, err
	}

	return lastN(prices, days), nil
}

func lastN(prices []int64, n int) []int64 {
	if n <= 0 || n > len(prices) {
		n = len(prices)
	}
	return append([]int64(nil), prices[len(prices)-n:]...)
}
