package filter

import (
	"fmt"
	"strings"

	"github.com/colthorp/ge-inspector-go/internal/item"
)

// Stat names an item attribute usable in a ratio comparison.
type Stat int

const (
	None Stat = iota
	Price
	Volume
	Limit
	Alch
)

var statNames = map[Stat]string{
	None:   "none",
	Price:  "price",
	Volume: "volume",
	Limit:  "limit",
	Alch:   "alch",
}

// StatNames lists the names accepted by ParseStat.
func StatNames() []string {
	return []string{"price", "volume", "limit", "alch"}
}

func (s Stat) String() string {
	if name, ok := statNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stat(%d)", int(s))
}

// ParseStat converts a stat name to a Stat.
func ParseStat(name string) (Stat, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range statNames {
		if s != None && n == name {
			return s, nil
		}
	}
	return None, fmt.Errorf("unknown stat %q (available: %s)", name, strings.Join(StatNames(), ", "))
}

// Value returns the attribute s of it.
func (s Stat) Value(it *item.Item) float64 {
	switch s {
	case Price:
		return float64(it.Price)
	case Volume:
		return float64(it.Volume)
	case Limit:
		return float64(it.Limit)
	case Alch:
		return float64(it.HighAlch)
	}
	return 0
}
