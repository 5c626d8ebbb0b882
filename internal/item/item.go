// Package item defines the cached record of one tradeable Grand Exchange item.
package item

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"
)

// Members is the membership status of an item.
// The zero value is Unknown, meaning the status has not been looked up yet.
type Members int

const (
	Unknown Members = iota
	Yes
	No
	// NoData means a lookup was done and found nothing. It is terminal.
	NoData
)

var membersTags = map[Members]string{
	Unknown: "unknown",
	Yes:     "yes",
	No:      "no",
	NoData:  "no_data",
}

// Legacy snapshots stored the enum as an integer in this order.
var legacyMembers = map[int]Members{
	0: Yes,
	1: No,
	2: Unknown,
	3: NoData,
}

// String returns the serialized tag.
func (m Members) String() string {
	if s, ok := membersTags[m]; ok {
		return s
	}
	return fmt.Sprintf("members(%d)", int(m))
}

// Display returns the label shown to users. NoData reads as unknown.
func (m Members) Display() string {
	if m == NoData {
		return membersTags[Unknown]
	}
	return m.String()
}

// MarshalJSON encodes the status as its string tag.
func (m Members) MarshalJSON() ([]byte, error) {
	s, ok := membersTags[m]
	if !ok {
		return nil, fmt.Errorf("invalid members value %d", int(m))
	}
	return json.Marshal(s)
}

// UnmarshalJSON accepts the string tag or the legacy integer encoding.
func (m *Members) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		for k, v := range membersTags {
			if v == s {
				*m = k
				return nil
			}
		}
		return fmt.Errorf("unknown members tag %q", s)
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("members must be a string or integer: %w", err)
	}
	v, ok := legacyMembers[n]
	if !ok {
		return fmt.Errorf("unknown legacy members value %d", n)
	}
	*m = v
	return nil
}

// CanTransition reports whether a record may move from one status to another.
// Only Unknown may change, and never back to Unknown.
func CanTransition(from, to Members) bool {
	return from == Unknown && to != Unknown
}

// Item is one tradeable item plus its cached derived data.
type Item struct {
	Name     string   `json:"name"`
	ID       int      `json:"id"`
	Price    int64    `json:"price"`
	Limit    int64    `json:"limit"`
	Volume   int64    `json:"volume"`
	HighAlch int64    `json:"high_alch"`
	Members  Members  `json:"members"`
	Category Category `json:"category"`

	// PriceHistory and LastPriceHistoryUpdate are always written together.
	PriceHistory           []int64 `json:"price_history"`
	LastPriceHistoryUpdate int64   `json:"last_price_history_update"` // unix nanoseconds
}

// New returns a record with membership and category not yet resolved.
func New(name string, id int, price, limit int64) Item {
	return Item{
		Name:         name,
		ID:           id,
		Price:        price,
		Limit:        limit,
		Members:      Unknown,
		Category:     CategoryUnknown,
		PriceHistory: []int64{},
	}
}

// Cost is the capital needed to buy the full limit.
func (i Item) Cost() int64 {
	return i.Price * i.Limit
}

// AlchProfit is the high alchemy payout minus the price, ignoring reagents.
func (i Item) AlchProfit() int64 {
	return i.HighAlch - i.Price
}

// SetPriceHistory replaces the cached history and stamps it with at.
func (i *Item) SetPriceHistory(prices []int64, at time.Time) {
	i.PriceHistory = append(make([]int64, 0, len(prices)), prices...)
	i.LastPriceHistoryUpdate = at.UnixNano()
}

// PriceHistoryFresh reports whether the cached history is younger than maxAge.
func (i Item) PriceHistoryFresh(now time.Time, maxAge time.Duration) bool {
	if i.LastPriceHistoryUpdate == 0 {
		return false
	}
	return now.Sub(time.Unix(0, i.LastPriceHistoryUpdate)) <= maxAge
}

// Clone returns a deep copy.
func (i Item) Clone() Item {
	c := i
	if i.PriceHistory != nil {
		c.PriceHistory = append(make([]int64, 0, len(i.PriceHistory)), i.PriceHistory...)
	}
	return c
}

// CloneAll deep copies a slice of items.
func CloneAll(items []Item) []Item {
	out := make([]Item, len(items))
	for idx, it := range items {
		out[idx] = it.Clone()
	}
	return out
}

// HashName derives a stable id for items the id feed does not know about.
func HashName(name string) int {
	h := fnv.New32a()
	h.Write([]byte(name))
	return int(int32(h.Sum32()))
}
