package item

import (
	"encoding/json"
	"sort"
)

// Category is the Grand Exchange catalogue category code.
type Category int

// Reserved codes.
const (
	CategoryUnknown Category = -1
	CategoryAll     Category = -2
)

// Names used on the command line for the reserved codes.
const (
	CategoryAllName     = "all"
	CategoryUnknownName = "unknown"
)

// categoryCodes maps catalogue type names to codes. Several names are aliases
// for the same category because the remote data uses both spellings.
var categoryCodes = map[string]Category{
	"Miscellaneous":               0,
	"Ammo":                        1,
	"Arrows":                      2,
	"Bolts":                       3,
	"Construction materials":      4,
	"Construction products":       5,
	"Cooking ingredients":         6,
	"Costumes":                    7,
	"Crafting materials":          8,
	"Familiars":                   9,
	"Farming produce":             10,
	"Fletching materials":         11,
	"Food and Drink":              12,
	"Herblore materials":          13,
	"Hunting equipment":           14,
	"Hunting Produce":             15,
	"Jewellery":                   16,
	"Mage armour":                 17,
	"Mage weapons":                18,
	"Magic armour":                17,
	"Magic weapons":               18,
	"Melee armour - low level":    19,
	"Melee armour - mid level":    20,
	"Melee armour - high level":   21,
	"Melee weapons - low level":   22,
	"Melee weapons - mid level":   23,
	"Melee weapons - high level":  24,
	"Mining and Smithing":         25,
	"Potions":                     26,
	"Prayer armour":               27,
	"Prayer materials":            28,
	"Range armour":                29,
	"Range weapons":               30,
	"Ranged armour":               29,
	"Ranged weapons":              30,
	"Runecrafting":                31,
	"Runes, Spells and Teleports": 32,
	"Seeds":                       33,
	"Summoning scrolls":           34,
	"Tools and containers":        35,
	"Woodcutting product":         36,
	"Pocket items":                37,
	"Stone spirits":               38,
	"Salvage":                     39,
	"Firemaking products":         40,
	"Archaeology materials":       41,
	"Wood spirits":                42,
	"Necromancy armour":           43,
	CategoryAllName:               CategoryAll,
	CategoryUnknownName:           CategoryUnknown,
}

// Secondary spellings; the reverse table keeps the first name.
var categoryAliases = map[string]bool{
	"Magic armour":   true,
	"Magic weapons":  true,
	"Ranged armour":  true,
	"Ranged weapons": true,
}

var categoryNames = func() map[Category]string {
	names := make(map[Category]string, len(categoryCodes))
	for name, code := range categoryCodes {
		if categoryAliases[name] {
			continue
		}
		names[code] = name
	}
	return names
}()

// CategoryByName looks up the code for a catalogue type name.
func CategoryByName(name string) (Category, bool) {
	c, ok := categoryCodes[name]
	return c, ok
}

// String returns the canonical name of the category.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return CategoryUnknownName
}

// Valid reports whether c is a known code, reserved codes included.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// UnmarshalJSON maps the legacy unsigned encodings of the reserved codes.
func (c *Category) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	switch n {
	case 255:
		n = int(CategoryUnknown)
	case 254:
		n = int(CategoryAll)
	}
	*c = Category(n)
	return nil
}

// CategoryEntry is a code with its canonical name.
type CategoryEntry struct {
	Code Category
	Name string
}

// Categories lists the real categories ordered by code, without aliases or
// reserved codes.
func Categories() []CategoryEntry {
	out := make([]CategoryEntry, 0, len(categoryNames))
	for code, name := range categoryNames {
		if code < 0 {
			continue
		}
		out = append(out, CategoryEntry{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
