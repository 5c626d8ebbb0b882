package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/colthorp/ge-inspector-go/internal/item"
)

// SortMode selects the ordering of query results.
type SortMode int

const (
	SortNone SortMode = iota
	SortVolume
	SortPrice
	SortAlch
	SortAlchProfit
	SortCost
	SortLimit
	SortVolumeLimitRatio
)

// SortModeInfo describes a sort mode for help output.
type SortModeInfo struct {
	Mode        SortMode
	Name        string
	Description string
	less        func(a, b *item.Item) bool
}

var sortModes = []SortModeInfo{
	{SortVolume, "volume", "sort by volume", func(a, b *item.Item) bool { return a.Volume < b.Volume }},
	{SortPrice, "price", "sort by price", func(a, b *item.Item) bool { return a.Price < b.Price }},
	{SortAlch, "alch", "sort by the high alchemy price", func(a, b *item.Item) bool { return a.HighAlch < b.HighAlch }},
	{SortAlchProfit, "alch_profit", "sort by the profit margin of high alchemy", func(a, b *item.Item) bool { return a.AlchProfit() < b.AlchProfit() }},
	{SortCost, "cost", "sort by total cost", func(a, b *item.Item) bool { return a.Cost() < b.Cost() }},
	{SortLimit, "limit", "sort by buy limit", func(a, b *item.Item) bool { return a.Limit < b.Limit }},
	{SortVolumeLimitRatio, "volume_limit_ratio", "sort by the ratio of volume and buy limit", func(a, b *item.Item) bool {
		return volumeLimitRatio(a) < volumeLimitRatio(b)
	}},
	{SortNone, "none", "keep the store order", nil},
}

func volumeLimitRatio(it *item.Item) float64 {
	return float64(it.Volume) / float64(it.Limit)
}

// SortModes lists every sort mode.
func SortModes() []SortModeInfo {
	return append([]SortModeInfo(nil), sortModes...)
}

func (m SortMode) String() string {
	for _, info := range sortModes {
		if info.Mode == m {
			return info.Name
		}
	}
	return fmt.Sprintf("SortMode(%d)", int(m))
}

// ParseSortMode converts a sort mode name. The empty string is SortNone.
func ParseSortMode(name string) (SortMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return SortNone, nil
	}
	for _, info := range sortModes {
		if info.Name == name {
			return info.Mode, nil
		}
	}

	valid := make([]string, len(sortModes))
	for i, info := range sortModes {
		valid[i] = info.Name
	}
	return SortNone, fmt.Errorf("unknown sort mode %q (available: %s)", name, strings.Join(valid, ", "))
}

// Sort orders items ascending by mode. Ties keep their order.
func Sort(items []item.Item, mode SortMode) {
	for _, info := range sortModes {
		if info.Mode == mode && info.less != nil {
			sort.SliceStable(items, func(i, j int) bool { return info.less(&items[i], &items[j]) })
			return
		}
	}
}
