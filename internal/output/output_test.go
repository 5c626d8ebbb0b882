package output

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/colthorp/ge-inspector-go/internal/item"
)

func newTestPrinter(t *testing.T) (*Printer, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, "")
	if err != nil {
		t.Fatalf("NewPrinter failed: %v", err)
	}
	return p, &buf
}

func sword() item.Item {
	it := item.New("Rune sword", 1289, 20000, 70)
	it.Volume = 5000
	it.HighAlch = 19200
	it.Members = item.No
	it.Category = 24
	return it
}

func TestRoundBigNumbers(t *testing.T) {
	tests := []struct {
		v    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1000"},
		{1001, "1k"},
		{538400, "538.4k"},
		{1234, "1.23k"},
		{1000000, "1000k"},
		{1234567, "1.23m"},
		{25000000, "25m"},
		{2147483647, "2.147b"},
		{-1500000, "-1.5m"},
	}
	for _, tt := range tests {
		if got := RoundBigNumbers(tt.v); got != tt.want {
			t.Errorf("RoundBigNumbers(%d) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestNewPrinterSchemes(t *testing.T) {
	for _, name := range Schemes() {
		if _, err := NewPrinter(&bytes.Buffer{}, name); err != nil {
			t.Errorf("NewPrinter(%q) failed: %v", name, err)
		}
	}
	if _, err := NewPrinter(&bytes.Buffer{}, "mauve"); err == nil {
		t.Error("Expected an error for an unknown scheme")
	}
}

func TestColoredPrinterKeepsText(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, "rainbow")
	if err != nil {
		t.Fatal(err)
	}
	p.Table([]item.Item{sword(), sword()}, TableOptions{})
	if strings.Count(buf.String(), "Rune sword") != 2 {
		t.Errorf("Expected both rows, got %q", buf.String())
	}
}

func TestTable(t *testing.T) {
	p, buf := newTestPrinter(t)
	p.Table([]item.Item{sword()}, TableOptions{Index: true})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header and one row, got %q", lines)
	}
	wantHeader := "Index Name                                      Price       Volume    Limit     Total cost   High alch   Members"
	if lines[0] != wantHeader {
		t.Errorf("header =\n%q\nwant\n%q", lines[0], wantHeader)
	}
	wantRow := "0     Rune sword                                20000       5000      70        1400000      19200       no"
	if lines[1] != wantRow {
		t.Errorf("row =\n%q\nwant\n%q", lines[1], wantRow)
	}
}

func TestTableOptions(t *testing.T) {
	long := sword()
	long.Name = strings.Repeat("x", 50)

	p, buf := newTestPrinter(t)
	p.Short = true
	p.Table([]item.Item{long}, TableOptions{NoHeader: true})
	p.Count(1)

	out := buf.String()
	if strings.Contains(out, "Name") {
		t.Error("Expected no header")
	}
	if !strings.HasPrefix(out, long.Name+" 20k") {
		t.Errorf("Expected a long name to be followed by one space, got %q", out)
	}
	if !strings.Contains(out, "1.4m") {
		t.Errorf("Expected short total cost, got %q", out)
	}
	if !strings.HasSuffix(out, "\nResults: 1\n") {
		t.Errorf("Expected a result count, got %q", out)
	}
}

func TestInfo(t *testing.T) {
	tests := []struct {
		name  string
		terse bool
		want  string
	}{
		{"normal", false, `Item:         Rune sword
Category:     Melee weapons - high level
Price:        20000
Limit:        70
Volume:       5000
Total cost:   1400000
High alch:    19200
Members:      no
`},
		{"terse", true, `Item;Rune sword
Category;Melee weapons - high level
Price;20000
Limit;70
Volume;5000
Total cost;1400000
High alch;19200
Members;no
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, buf := newTestPrinter(t)
			p.Info(sword(), tt.terse)
			if buf.String() != tt.want {
				t.Errorf("Info =\n%s\nwant\n%s", buf.String(), tt.want)
			}
		})
	}
}

func TestInfoNoDataReadsUnknown(t *testing.T) {
	it := sword()
	it.Members = item.NoData
	p, buf := newTestPrinter(t)
	p.Info(it, true)
	if !strings.Contains(buf.String(), "Members;unknown") {
		t.Errorf("Expected no_data to display as unknown, got %q", buf.String())
	}
}

func TestSummarize(t *testing.T) {
	s, ok := Summarize([]int64{100, 200, 301})
	if !ok {
		t.Fatal("Expected a summary")
	}
	if want := (HistoryStats{Min: 100, Max: 301, Average: 200}); s != want {
		t.Errorf("Summarize = %+v, want %+v", s, want)
	}
	if _, ok := Summarize(nil); ok {
		t.Error("Expected no summary for an empty history")
	}
}

func TestDrawGraph(t *testing.T) {
	got := DrawGraph(2, []int64{10, 20, 30})
	want := []string{
		"▒▒▀",
		"▒▀▒",
		"▀▒▒",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DrawGraph =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	flat := DrawGraph(4, []int64{5, 5})
	if len(flat) != 5 || flat[2] != "▀▀" || flat[0] != "▒▒" {
		t.Errorf("Expected equal values in the middle row, got %q", flat)
	}

	if DrawGraph(8, nil) != nil {
		t.Error("Expected no rows without values")
	}
}

func TestHistory(t *testing.T) {
	p, buf := newTestPrinter(t)
	p.History([]int64{1, 2, 3}, false)

	out := buf.String()
	for _, want := range []string{" - Price history -", "Min:          1", "Max:          3", "Average:      2", "▀"} {
		if !strings.Contains(out, want) {
			t.Errorf("History output is missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "\n"); n != 1+1+3+1+GraphHeight+1 {
		t.Errorf("History wrote %d lines", n)
	}
}

func TestCategories(t *testing.T) {
	p, buf := newTestPrinter(t)
	p.Categories()

	out := buf.String()
	if !strings.HasPrefix(out, "[ 0] Miscellaneous\n") {
		t.Errorf("Categories should start with Miscellaneous, got %q", out[:min(len(out), 40)])
	}
	if !strings.Contains(out, "[24] Melee weapons - high level\n") {
		t.Error("Expected the high level melee weapons category")
	}
	if strings.Contains(out, "Ranged weapons") || strings.Contains(out, "Magic armour") {
		t.Error("Aliases must not be listed")
	}
}

func TestWriteItemsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteItemsJSON(&buf, []item.Item{sword(), sword()}); err != nil {
		t.Fatalf("WriteItemsJSON failed: %v", err)
	}

	var got []item.Item
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Output is not a JSON array: %v\n%s", err, buf.String())
	}
	if len(got) != 2 || got[0].Name != "Rune sword" {
		t.Errorf("Decoded %+v", got)
	}

	buf.Reset()
	WriteItemsJSON(&buf, nil)
	if buf.String() != "[]\n" {
		t.Errorf("Empty output = %q", buf.String())
	}
}
