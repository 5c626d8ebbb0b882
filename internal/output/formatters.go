// Package output renders items for the terminal: result tables, info blocks,
// price history graphs and JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/colthorp/ge-inspector-go/internal/item"
)

var bigNumberUnits = []struct {
	threshold int64
	places    int32 // rounding, as a negative number of decimal places
	suffix    string
}{
	{1_000_000_000, -6, "b"},
	{1_000_000, -4, "m"},
	{1_000, -1, "k"},
}

// RoundBigNumbers shortens a number for display, e.g. 1234567 becomes "1.23m".
// Values up to a thousand are printed as is.
func RoundBigNumbers(v int64) string {
	for _, u := range bigNumberUnits {
		if v > u.threshold || v < -u.threshold {
			d := decimal.NewFromInt(v).Round(u.places).Div(decimal.NewFromInt(u.threshold))
			return d.String() + u.suffix
		}
	}
	return fmt.Sprint(v)
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteItemsJSON writes items as a compact JSON array, one element at a time.
func WriteItemsJSON(w io.Writer, items []item.Item) error {
	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}
	for i, it := range items {
		if i > 0 {
			io.WriteString(w, ",")
		}
		data, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("encode %q: %w", it.Name, err)
		}
		w.Write(data)
	}
	_, err := io.WriteString(w, "]\n")
	return err
}
