package cli

import (
	"math"
	"testing"

	"github.com/colthorp/ge-inspector-go/internal/filter"
	"github.com/colthorp/ge-inspector-go/internal/item"
	"github.com/colthorp/ge-inspector-go/internal/query"
)

func TestRequestDefaults(t *testing.T) {
	req, err := defaultQueryFlags().request(0.1, false)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if req.Filter.Volume != (filter.Range{Min: 1, Max: math.MaxInt64}) {
		t.Errorf("volume = %+v, want min 1 and no max", req.Filter.Volume)
	}
	if req.Filter.Price != filter.Unset() {
		t.Errorf("price = %+v, want unset", req.Filter.Price)
	}
	if req.Filter.Category != item.CategoryAll {
		t.Errorf("category = %v, want all", req.Filter.Category)
	}
	if req.Filter.Fuzz != 0.1 {
		t.Errorf("fuzz = %v, want the configured default", req.Filter.Fuzz)
	}
	if req.Sort != query.SortNone {
		t.Errorf("sort = %v, want none", req.Sort)
	}
}

func TestRequestOptions(t *testing.T) {
	f := defaultQueryFlags()
	f.minPrice, f.maxPrice = 100, 200
	f.maxCost = 5000
	f.fuzz = 0.2
	f.category = "24"
	f.statRatio = "volume, limit, 2.5"
	f.minProfit = "0.5,100000"
	f.sort = "alch_profit"

	req, err := f.request(0.05, true)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	flt := req.Filter
	if flt.Price != (filter.Range{Min: 100, Max: 200}) {
		t.Errorf("price = %+v", flt.Price)
	}
	if flt.Cost.Max != 5000 {
		t.Errorf("cost = %+v", flt.Cost)
	}
	if flt.Fuzz != 0.2 {
		t.Errorf("fuzz = %v, want the flag value", flt.Fuzz)
	}
	if flt.Category != 24 {
		t.Errorf("category = %v", flt.Category)
	}
	if flt.RatioA != filter.Volume || flt.RatioB != filter.Limit || flt.Ratio != 2.5 {
		t.Errorf("ratio = %v %v %v", flt.RatioA, flt.RatioB, flt.Ratio)
	}
	if flt.MinMarginPercent != 0.5 || flt.MinMarginGoal != 100000 {
		t.Errorf("min profit = %v %v", flt.MinMarginPercent, flt.MinMarginGoal)
	}
	if req.Sort != query.SortAlchProfit {
		t.Errorf("sort = %v", req.Sort)
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    item.Category
		wantErr bool
	}{
		{"", item.CategoryAll, false},
		{"all", item.CategoryAll, false},
		{"0", 0, false},
		{"24", 24, false},
		{"melee weapons - high level", 24, false},
		{"Magic armour", 17, false},
		{"-1", 0, true},
		{"999", 0, true},
		{"Spaceships", 0, true},
	}
	for _, tt := range tests {
		got, err := parseCategory(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseCategory(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseCategory(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseStatRatio(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"price,alch,1", false},
		{"volume,limit", true},
		{"none,limit,1", true},
		{"volume,weight,1", true},
		{"volume,limit,x", true},
	}
	for _, tt := range tests {
		if _, _, _, err := parseStatRatio(tt.in); (err != nil) != tt.wantErr {
			t.Errorf("parseStatRatio(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestParseMinProfit(t *testing.T) {
	percent, goal, err := parseMinProfit("2,1000")
	if err != nil || percent != 2 || goal != 1000 {
		t.Errorf("parseMinProfit = %v, %v, %v", percent, goal, err)
	}
	for _, in := range []string{"2", "x,1", "2,1.5"} {
		if _, _, err := parseMinProfit(in); err == nil {
			t.Errorf("parseMinProfit(%q) should fail", in)
		}
	}
}

func TestMembersFilter(t *testing.T) {
	tests := []struct {
		f2p, p2p bool
		want     item.Members
		wantErr  bool
	}{
		{false, false, item.Unknown, false},
		{true, false, item.No, false},
		{false, true, item.Yes, false},
		{true, true, item.Unknown, true},
	}
	for _, tt := range tests {
		f := defaultQueryFlags()
		f.f2p, f.p2p = tt.f2p, tt.p2p
		got, err := f.members()
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("members(f2p=%v, p2p=%v) = %v, %v", tt.f2p, tt.p2p, got, err)
		}
	}
}
