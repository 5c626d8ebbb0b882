package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/colthorp/ge-inspector-go/internal/core"
	"github.com/colthorp/ge-inspector-go/internal/filter"
	"github.com/colthorp/ge-inspector-go/internal/item"
	"github.com/colthorp/ge-inspector-go/internal/query"
)

// queryFlags holds the filter, sort and display options shared by the root
// query and the random command.
type queryFlags struct {
	member bool
	f2p    bool
	p2p    bool

	profitableAlch  bool
	volumeOverLimit bool
	statRatio       string
	minProfit       string

	names     []string
	regexes   []string
	preFilter string
	fuzz      float64
	category  string

	minPrice, maxPrice   int64
	minVolume, maxVolume int64
	minLimit, maxLimit   int64
	minAlch, maxAlch     int64
	minCost, maxCost     int64

	sort   string
	invert bool

	short    bool
	noHeader bool
	index    bool
	count    bool
	json     bool
}

func defaultQueryFlags() *queryFlags {
	return &queryFlags{
		fuzz:      core.DefaultFuzzFactor,
		minVolume: 1,
		category:  item.CategoryAllName,
	}
}

func (f *queryFlags) register(fs *pflag.FlagSet) {
	fs.BoolVarP(&f.member, "member", "m", false, "Look up missing members data of the results")
	fs.BoolVar(&f.f2p, "f2p", false, "Only show free-to-play items")
	fs.BoolVar(&f.p2p, "p2p", false, "Only show members items")
	fs.BoolVar(&f.profitableAlch, "profitable-alch", false, "Find items that are profitable to alch with high alchemy")
	fs.BoolVar(&f.volumeOverLimit, "volume-over-limit", false, "Find items with trade volume higher than their buy limit")
	fs.StringVar(&f.statRatio, "stat-ratio", "", fmt.Sprintf("Keep items where stat_a >= stat_b * ratio, given as stat_a,stat_b,ratio (stats: %s)", joinNames(filter.StatNames())))
	fs.StringVar(&f.minProfit, "min-profit", "", "Keep items where a price change of percent would reach the profit goal over the full buy limit, given as percent,goal")

	fs.StringArrayVarP(&f.names, "name", "n", nil, "Filter items by name (repeatable, all must match)")
	fs.StringArrayVar(&f.regexes, "regex", nil, "Filter items by a regex over the whole name (repeatable)")
	fs.StringVar(&f.preFilter, "pre-filter", "", "Derive price and volume ranges from reference items, e.g. 'Iron ore;Adamant bar;Feathers'")
	fs.Float64Var(&f.fuzz, "fuzz", f.fuzz, "Allowed variance of the pre-filter ranges")
	fs.StringVarP(&f.category, "category", "c", f.category, "Filter items by category code or name (see 'categories')")

	fs.Int64Var(&f.minPrice, "min-price", 0, "Minimum price")
	fs.Int64Var(&f.maxPrice, "max-price", 0, "Maximum price (0 = no limit)")
	fs.Int64Var(&f.minVolume, "min-volume", f.minVolume, "Minimum volume")
	fs.Int64Var(&f.maxVolume, "max-volume", 0, "Maximum volume (0 = no limit)")
	fs.Int64Var(&f.minLimit, "min-limit", 0, "Minimum buy limit")
	fs.Int64Var(&f.maxLimit, "max-limit", 0, "Maximum buy limit (0 = no limit)")
	fs.Int64Var(&f.minAlch, "min-alch", 0, "Minimum high alchemy value")
	fs.Int64Var(&f.maxAlch, "max-alch", 0, "Maximum high alchemy value (0 = no limit)")
	fs.Int64Var(&f.minCost, "min-cost", 0, "Minimum total cost of buying the full limit")
	fs.Int64Var(&f.maxCost, "max-cost", 0, "Maximum total cost (0 = no limit)")
	fs.Int64VarP(&f.maxCost, "budget", "b", 0, "Same as --max-cost")

	fs.StringVarP(&f.sort, "sort", "s", "", fmt.Sprintf("Sort the results (%s)", joinNames(sortModeNames())))
	fs.BoolVarP(&f.invert, "invert", "i", false, "Invert the result order")

	fs.BoolVar(&f.short, "short", false, "Print numbers in a shorter form, e.g. 1.2m, 538k")
	fs.BoolVar(&f.noHeader, "no-header", false, "Don't print the header row")
	fs.BoolVar(&f.index, "index", false, "Print the indices of items")
	fs.BoolVar(&f.count, "count", false, "Show the result count at the end of the output")
	fs.BoolVar(&f.json, "json", false, "Print the results as JSON")
}

func sortModeNames() []string {
	var names []string
	for _, m := range query.SortModes() {
		names = append(names, m.Name)
	}
	return names
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}

// bound turns a flag pair into a range; a maximum of 0 means no limit.
func bound(lo, hi int64) filter.Range {
	r := filter.Range{Min: lo, Max: hi}
	if hi == 0 {
		r.Max = math.MaxInt64
	}
	return r
}

// request converts the flags into a query request.
func (f *queryFlags) request(defaultFuzz float64, fuzzChanged bool) (query.Request, error) {
	flt := filter.Default()
	flt.Price = bound(f.minPrice, f.maxPrice)
	flt.Volume = bound(f.minVolume, f.maxVolume)
	flt.Limit = bound(f.minLimit, f.maxLimit)
	flt.Alch = bound(f.minAlch, f.maxAlch)
	flt.Cost = bound(f.minCost, f.maxCost)
	flt.ProfitableAlch = f.profitableAlch
	flt.VolumeOverLimit = f.volumeOverLimit
	flt.NameTerms = f.names
	flt.Patterns = f.regexes

	flt.Fuzz = defaultFuzz
	if fuzzChanged {
		flt.Fuzz = f.fuzz
	}
	if flt.Fuzz < 0 {
		return query.Request{}, fmt.Errorf("fuzz factor must be >= 0, got %v", flt.Fuzz)
	}

	category, err := parseCategory(f.category)
	if err != nil {
		return query.Request{}, err
	}
	flt.Category = category

	if f.statRatio != "" {
		if flt.RatioA, flt.RatioB, flt.Ratio, err = parseStatRatio(f.statRatio); err != nil {
			return query.Request{}, err
		}
	}
	if f.minProfit != "" {
		if flt.MinMarginPercent, flt.MinMarginGoal, err = parseMinProfit(f.minProfit); err != nil {
			return query.Request{}, err
		}
	}

	mode, err := query.ParseSortMode(f.sort)
	if err != nil {
		return query.Request{}, err
	}

	return query.Request{
		Filter:    flt,
		PreFilter: f.preFilter,
		Sort:      mode,
		Invert:    f.invert,
	}, nil
}

// members returns the membership filter. item.Unknown means no filter.
func (f *queryFlags) members() (item.Members, error) {
	switch {
	case f.f2p && f.p2p:
		return item.Unknown, fmt.Errorf("--f2p and --p2p can't be used together")
	case f.f2p:
		return item.No, nil
	case f.p2p:
		return item.Yes, nil
	}
	return item.Unknown, nil
}

// parseCategory accepts a category code, a category name (case-insensitive)
// or "all".
func parseCategory(s string) (item.Category, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, item.CategoryAllName) {
		return item.CategoryAll, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		c := item.Category(n)
		if c < 0 || !c.Valid() {
			return 0, fmt.Errorf("unknown category code %d", n)
		}
		return c, nil
	}
	if c, ok := item.CategoryByName(s); ok {
		return c, nil
	}
	for _, e := range item.Categories() {
		if strings.EqualFold(e.Name, s) {
			return e.Code, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

func parseStatRatio(s string) (a, b filter.Stat, ratio float64, err error) {
	parts := core.SplitList(s, ',')
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("--stat-ratio expects stat_a,stat_b,ratio, got %q", s)
	}
	if a, err = filter.ParseStat(parts[0]); err != nil {
		return 0, 0, 0, fmt.Errorf("stat_a is invalid: %w", err)
	}
	if b, err = filter.ParseStat(parts[1]); err != nil {
		return 0, 0, 0, fmt.Errorf("stat_b is invalid: %w", err)
	}
	if ratio, err = strconv.ParseFloat(parts[2], 64); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid ratio %q: %w", parts[2], err)
	}
	return a, b, ratio, nil
}

func parseMinProfit(s string) (percent float64, goal int64, err error) {
	parts := core.SplitList(s, ',')
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("--min-profit expects percent,goal, got %q", s)
	}
	if percent, err = strconv.ParseFloat(parts[0], 64); err != nil {
		return 0, 0, fmt.Errorf("invalid price change percent %q: %w", parts[0], err)
	}
	if goal, err = strconv.ParseInt(parts[1], 10, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid profit goal %q: %w", parts[1], err)
	}
	return percent, goal, nil
}
