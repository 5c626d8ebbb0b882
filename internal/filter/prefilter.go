package filter

import (
	"maps"
	"math"

	"github.com/colthorp/ge-inspector-go/internal/core"
	"github.com/colthorp/ge-inspector-go/internal/item"
)

// bucketCeilings groups buy limits so items with near-identical limits are
// compared with each other.
var bucketCeilings = []int64{10, 50, 100, 500, 1000, 2500, 5000, 12000, 25000, 50000}

// Bucket maps a buy limit to the first ceiling not below it, or to the limit
// itself above the last ceiling.
func Bucket(limit int64) int64 {
	for _, ceiling := range bucketCeilings {
		if limit <= ceiling {
			return ceiling
		}
	}
	return limit
}

// PreFilter derives per-bucket price and volume ranges from reference items
// named in refs (semicolon separated). For each bucket touched by a reference
// item the range spans the references in it; a bound the user set explicitly
// in user.Price or user.Volume replaces the derived one.
func PreFilter(user Filter, items []item.Item, refs string) Filter {
	f := user
	f.PreFilterPrice = maps.Clone(user.PreFilterPrice)
	f.PreFilterVolume = maps.Clone(user.PreFilterVolume)
	if f.PreFilterPrice == nil {
		f.PreFilterPrice = make(map[int64]Range)
	}
	if f.PreFilterVolume == nil {
		f.PreFilterVolume = make(map[int64]Range)
	}

	seed := Range{Min: math.MaxInt64, Max: 0}

	for _, name := range core.SplitList(refs, ';') {
		for i := range items {
			it := &items[i]
			if it.Name != name {
				continue
			}
			b := Bucket(it.Limit)

			price, ok := f.PreFilterPrice[b]
			if !ok {
				price = seed
			}
			f.PreFilterPrice[b] = widen(price, it.Price)

			volume, ok := f.PreFilterVolume[b]
			if !ok {
				volume = seed
			}
			f.PreFilterVolume[b] = widen(volume, it.Volume)
		}
	}

	for b, r := range f.PreFilterPrice {
		f.PreFilterPrice[b] = override(user.Price, r)
	}
	for b, r := range f.PreFilterVolume {
		f.PreFilterVolume[b] = override(user.Volume, r)
	}
	return f
}

func widen(r Range, v int64) Range {
	r.Min = min(r.Min, v)
	r.Max = max(r.Max, v)
	return r
}

// override replaces the bounds of derived that the user set explicitly.
func override(user, derived Range) Range {
	if user.IsMinSet() {
		derived.Min = user.Min
	}
	if user.IsMaxSet() {
		derived.Max = user.Max
	}
	return derived
}
