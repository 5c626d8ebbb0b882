package filter

import (
	"math"

	"github.com/shopspring/decimal"
)

// Range is an inclusive numeric bound. The unset sentinels are Min = 0 and
// Max = MaxInt64; a lower bound only counts as set above 1.
type Range struct {
	Min int64
	Max int64
}

// Unset returns a range that accepts every non-negative value.
func Unset() Range {
	return Range{Min: 0, Max: math.MaxInt64}
}

// IsMinSet reports whether the lower bound was chosen by the user.
func (r Range) IsMinSet() bool {
	return r.Min > 1
}

// IsMaxSet reports whether the upper bound was chosen by the user.
func (r Range) IsMaxSet() bool {
	return r.Max < math.MaxInt64
}

// Contains reports whether Min <= v <= Max.
func (r Range) Contains(v int64) bool {
	return v >= r.Min && v <= r.Max
}

// ContainsFuzzy widens both bounds by fuzz (a fraction of the bound) before
// testing v. A fuzz of 0 is the same as Contains.
func (r Range) ContainsFuzzy(v int64, fuzz float64) bool {
	if fuzz == 0 {
		return r.Contains(v)
	}
	f := decimal.NewFromFloat(fuzz)
	value := decimal.NewFromInt(v)

	lo := decimal.NewFromInt(r.Min)
	if value.LessThan(lo.Sub(lo.Mul(f))) {
		return false
	}
	if !r.IsMaxSet() {
		return true
	}
	hi := decimal.NewFromInt(r.Max)
	return value.LessThanOrEqual(hi.Add(hi.Mul(f)))
}
