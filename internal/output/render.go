package output

import (
	"fmt"
	"math"
	"strings"

	"github.com/colthorp/ge-inspector-go/internal/item"
)

// Table column widths.
const (
	indexWidth   = 6
	nameWidth    = 42
	priceWidth   = 12
	volumeWidth  = 10
	limitWidth   = 10
	costWidth    = 13
	alchWidth    = 12
	membersWidth = 10
)

const infoWidth = 14

// GraphHeight is the number of rows above the baseline of a price graph.
const GraphHeight = 8

const (
	graphMark = "▀"
	graphFill = "▒"
)

// TableOptions controls the result table.
type TableOptions struct {
	Index    bool
	NoHeader bool
}

func (p *Printer) number(v int64) string {
	if p.Short {
		return RoundBigNumbers(v)
	}
	return fmt.Sprint(v)
}

func tableRow(index string, withIndex bool, cells ...string) string {
	widths := []int{nameWidth, priceWidth, volumeWidth, limitWidth, costWidth, alchWidth, membersWidth}

	var b strings.Builder
	if withIndex {
		fmt.Fprintf(&b, "%-*s", indexWidth, index)
	}
	for i, cell := range cells {
		w := widths[i]
		if i == 0 && len(cell) >= w {
			w = len(cell) + 1
		}
		fmt.Fprintf(&b, "%-*s", w, cell)
	}
	return strings.TrimRight(b.String(), " ")
}

// Table writes one row per item, numbered from zero when opts.Index is set.
func (p *Printer) Table(items []item.Item, opts TableOptions) {
	if !opts.NoHeader {
		p.plain(tableRow("Index", opts.Index, "Name", "Price", "Volume", "Limit", "Total cost", "High alch", "Members"))
	}
	for i, it := range items {
		p.line(tableRow(fmt.Sprint(i), opts.Index,
			it.Name,
			p.number(it.Price),
			p.number(it.Volume),
			fmt.Sprint(it.Limit),
			p.number(it.Cost()),
			fmt.Sprint(it.HighAlch),
			it.Members.Display(),
		))
	}
}

// Count writes the number of results.
func (p *Printer) Count(n int) {
	p.plain("")
	p.line(fmt.Sprintf("Results: %d", n))
}

type field struct {
	label string
	value string
}

func formatFields(fields []field, terse bool) []string {
	sep, width := ":", infoWidth
	if terse {
		sep, width = ";", 0
	}
	lines := make([]string, len(fields))
	for i, f := range fields {
		lines[i] = fmt.Sprintf("%-*s%s", width, f.label+sep, f.value)
	}
	return lines
}

// Info writes the details of one item. Terse output is "Label;value" per
// line, for scripts.
func (p *Printer) Info(it item.Item, terse bool) {
	p.block(formatFields([]field{
		{"Item", it.Name},
		{"Category", it.Category.String()},
		{"Price", p.number(it.Price)},
		{"Limit", fmt.Sprint(it.Limit)},
		{"Volume", p.number(it.Volume)},
		{"Total cost", p.number(it.Cost())},
		{"High alch", fmt.Sprint(it.HighAlch)},
		{"Members", it.Members.Display()},
	}, terse))
}

// HistoryStats summarizes a price history.
type HistoryStats struct {
	Min     int64 `json:"min"`
	Max     int64 `json:"max"`
	Average int64 `json:"average"`
}

// Summarize returns the minimum, maximum and rounded average of prices.
func Summarize(prices []int64) (HistoryStats, bool) {
	if len(prices) == 0 {
		return HistoryStats{}, false
	}
	s := HistoryStats{Min: prices[0], Max: prices[0]}
	var total float64
	for _, v := range prices {
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
		total += float64(v)
	}
	s.Average = int64(math.Round(total / float64(len(prices))))
	return s, true
}

// History writes the price history summary followed by a graph.
func (p *Printer) History(prices []int64, terse bool) {
	p.plain("")
	p.plain(" - Price history -")

	stats, ok := Summarize(prices)
	if !ok {
		p.plain("No price history available")
		return
	}
	for _, l := range formatFields([]field{
		{"Min", p.number(stats.Min)},
		{"Max", p.number(stats.Max)},
		{"Average", p.number(stats.Average)},
	}, terse) {
		p.plain(l)
	}

	p.plain("")
	for _, row := range DrawGraph(GraphHeight, prices) {
		p.plain(row)
	}
}

// DrawGraph renders values as height+1 rows, top row first. Each column
// marks the row of its value scaled between the minimum and the maximum;
// when every value is equal they sit in the middle row.
func DrawGraph(height int, values []int64) []string {
	if height <= 0 || len(values) == 0 {
		return nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	levels := make([]int, len(values))
	for i, v := range values {
		if lo == hi {
			levels[i] = height / 2
			continue
		}
		levels[i] = int(math.Round(float64(v-lo) / float64(hi-lo) * float64(height)))
	}

	rows := make([]string, 0, height+1)
	for level := height; level >= 0; level-- {
		var b strings.Builder
		for _, l := range levels {
			if l == level {
				b.WriteString(graphMark)
			} else {
				b.WriteString(graphFill)
			}
		}
		rows = append(rows, b.String())
	}
	return rows
}

// Categories writes the category list as "[code] name".
func (p *Printer) Categories() {
	for _, c := range item.Categories() {
		p.line(fmt.Sprintf("[%2d] %s", int(c.Code), c.Name))
	}
}
