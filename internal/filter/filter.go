// Package filter selects items by numeric ranges, names, category and a few
// trading heuristics.
//
// Apply runs a fixed chain of predicates over each item; an item is kept only
// if every active predicate accepts it. Inactive predicates (unset ranges,
// empty term lists, disabled flags) accept everything. The input is never
// modified and the output keeps the input order.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/colthorp/ge-inspector-go/internal/core"
	"github.com/colthorp/ge-inspector-go/internal/item"
)

// ErrNoReagentPrice is returned when alch profitability is requested but the
// store has no price for the reagent.
var ErrNoReagentPrice = errors.New("no price for " + core.NatureRune)

// PriceLookup resolves an item price by name.
// *cache.Store implements it.
type PriceLookup interface {
	ItemCost(name string) (int64, bool)
}

// Filter describes which items to keep.
type Filter struct {
	Price  Range
	Volume Range
	Limit  Range
	Alch   Range
	Cost   Range // price * limit

	ProfitableAlch  bool // price + reagent < high alch
	VolumeOverLimit bool // volume >= limit

	// RatioA >= RatioB * Ratio, when both stats are set
	RatioA Stat
	RatioB Stat
	Ratio  float64

	// Keep items where a MinMarginPercent price rise on the full limit earns
	// at least MinMarginGoal. Disabled when both are zero.
	MinMarginPercent float64
	MinMarginGoal    int64

	Category item.Category

	NameTerms []string // case-insensitive substrings, all must match
	Patterns  []string // regexes, each must match the whole name

	// Per-bucket ranges derived by PreFilter. When PreFilterVolume is
	// non-empty they replace Price and Volume.
	PreFilterPrice  map[int64]Range
	PreFilterVolume map[int64]Range
	Fuzz            float64
}

// Default returns a filter that keeps every item.
func Default() Filter {
	return Filter{
		Price:    Unset(),
		Volume:   Unset(),
		Limit:    Unset(),
		Alch:     Unset(),
		Cost:     Unset(),
		RatioA:   None,
		RatioB:   None,
		Ratio:    1,
		Category: item.CategoryAll,
		Fuzz:     core.DefaultFuzzFactor,
	}
}

// HasPreFilter reports whether bucketed ranges are in effect.
func (f Filter) HasPreFilter() bool {
	return len(f.PreFilterVolume) > 0
}

// query is a Filter prepared for one Apply call.
type query struct {
	Filter

	reagentPrice int64
	terms        []string
	patterns     []*regexp.Regexp

	marginEnabled bool
	marginFactor  decimal.Decimal // percent / 100
	marginGoal    decimal.Decimal
}

type predicate func(q *query, it *item.Item) bool

// Cheap comparisons first, text matching last.
var predicates = []predicate{
	matchVolume,
	matchPrice,
	matchLimit,
	matchAlch,
	matchCost,
	matchCategory,
	matchVolumeOverLimit,
	matchProfitableAlch,
	matchMinMargin,
	matchStatRatio,
	matchName,
	matchPatterns,
}

// Apply returns copies of the items accepted by f, in input order.
// prices is only consulted when f.ProfitableAlch is set.
func Apply(items []item.Item, f Filter, prices PriceLookup) ([]item.Item, error) {
	q, err := compile(f, prices)
	if err != nil {
		return nil, err
	}

	result := make([]item.Item, 0, len(items))
	for i := range items {
		if q.match(&items[i]) {
			result = append(result, items[i].Clone())
		}
	}
	return result, nil
}

func compile(f Filter, prices PriceLookup) (*query, error) {
	q := &query{Filter: f}

	if f.ProfitableAlch {
		var ok bool
		if prices != nil {
			q.reagentPrice, ok = prices.ItemCost(core.NatureRune)
		}
		if !ok {
			return nil, ErrNoReagentPrice
		}
	}

	for _, term := range f.NameTerms {
		if term = strings.ToLower(term); term != "" {
			q.terms = append(q.terms, term)
		}
	}

	for _, p := range f.Patterns {
		re, err := regexp.Compile(`^(?:` + p + `)$`)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", p, err)
		}
		q.patterns = append(q.patterns, re)
	}

	if f.MinMarginPercent != 0 || f.MinMarginGoal != 0 {
		q.marginEnabled = true
		q.marginFactor = decimal.NewFromFloat(f.MinMarginPercent).Div(decimal.NewFromInt(100))
		q.marginGoal = decimal.NewFromInt(f.MinMarginGoal)
	}

	return q, nil
}

func (q *query) match(it *item.Item) bool {
	for _, p := range predicates {
		if !p(q, it) {
			return false
		}
	}
	return true
}

func matchVolume(q *query, it *item.Item) bool {
	if q.HasPreFilter() {
		r, ok := q.PreFilterVolume[Bucket(it.Limit)]
		return ok && r.ContainsFuzzy(it.Volume, q.Fuzz)
	}
	return q.Volume.Contains(it.Volume)
}

func matchPrice(q *query, it *item.Item) bool {
	if q.HasPreFilter() {
		r, ok := q.PreFilterPrice[Bucket(it.Limit)]
		return ok && r.ContainsFuzzy(it.Price, q.Fuzz)
	}
	return q.Price.Contains(it.Price)
}

func matchLimit(q *query, it *item.Item) bool {
	return q.Limit.Contains(it.Limit)
}

func matchAlch(q *query, it *item.Item) bool {
	return q.Alch.Contains(it.HighAlch)
}

func matchCost(q *query, it *item.Item) bool {
	return q.Cost.Contains(it.Cost())
}

func matchCategory(q *query, it *item.Item) bool {
	return q.Category == item.CategoryAll || q.Category == it.Category
}

func matchVolumeOverLimit(q *query, it *item.Item) bool {
	return !q.VolumeOverLimit || it.Volume >= it.Limit
}

func matchProfitableAlch(q *query, it *item.Item) bool {
	return !q.ProfitableAlch || it.Price+q.reagentPrice < it.HighAlch
}

// matchMinMargin checks (price * (1 + pct/100) - price) * limit >= goal.
func matchMinMargin(q *query, it *item.Item) bool {
	if !q.marginEnabled {
		return true
	}
	rise := decimal.NewFromInt(it.Price).Mul(q.marginFactor)
	return rise.Mul(decimal.NewFromInt(it.Limit)).GreaterThanOrEqual(q.marginGoal)
}

func matchStatRatio(q *query, it *item.Item) bool {
	if q.RatioA == None || q.RatioB == None {
		return true
	}
	return q.RatioA.Value(it) >= q.RatioB.Value(it)*q.Ratio
}

func matchName(q *query, it *item.Item) bool {
	if len(q.terms) == 0 {
		return true
	}
	name := strings.ToLower(it.Name)
	for _, term := range q.terms {
		if !strings.Contains(name, term) {
			return false
		}
	}
	return true
}

func matchPatterns(q *query, it *item.Item) bool {
	for _, re := range q.patterns {
		if !re.MatchString(it.Name) {
			return false
		}
	}
	return true
}
