package filter

import (
	"math"
	"testing"

	"github.com/colthorp/ge-inspector-go/internal/item"
)

func TestBucket(t *testing.T) {
	tests := []struct {
		limit int64
		want  int64
	}{
		{0, 10},
		{5, 10},
		{10, 10},
		{11, 50},
		{100, 100},
		{101, 500},
		{2500, 2500},
		{10000, 12000},
		{25000, 25000},
		{50000, 50000},
		{50001, 50001},
		{120000, 120000},
	}
	for _, tt := range tests {
		if got := Bucket(tt.limit); got != tt.want {
			t.Errorf("Bucket(%d) = %d, want %d", tt.limit, got, tt.want)
		}
	}
}

func TestBucketMonotonicAndIdempotent(t *testing.T) {
	prev := Bucket(0)
	for limit := int64(0); limit <= 60000; limit++ {
		b := Bucket(limit)
		if b < prev {
			t.Fatalf("Bucket(%d) = %d < Bucket(%d) = %d", limit, b, limit-1, prev)
		}
		if Bucket(b) != b {
			t.Fatalf("Bucket(Bucket(%d)) = %d, want %d", limit, Bucket(b), b)
		}
		prev = b
	}
}

func TestPreFilterDerivesBucketRanges(t *testing.T) {
	items := []item.Item{
		mk("A", 100, 5, 10, 0),
		mk("B", 300, 8, 40, 0),
		mk("C", 999, 10000, 999, 0),
	}

	f := PreFilter(Default(), items, "A;B")

	if got := f.PreFilterPrice[10]; got != (Range{100, 300}) {
		t.Errorf("price range for bucket 10 = %+v, want {100 300}", got)
	}
	if got := f.PreFilterVolume[10]; got != (Range{10, 40}) {
		t.Errorf("volume range for bucket 10 = %+v, want {10 40}", got)
	}
	if len(f.PreFilterPrice) != 1 || len(f.PreFilterVolume) != 1 {
		t.Errorf("Expected only bucket 10, got %v / %v", f.PreFilterPrice, f.PreFilterVolume)
	}
	if !f.HasPreFilter() {
		t.Error("Expected HasPreFilter")
	}
}

func TestPreFilterSingleReference(t *testing.T) {
	items := []item.Item{mk("Iron ore", 90, 25000, 700000, 0)}
	f := PreFilter(Default(), items, "Iron ore")

	if got := f.PreFilterPrice[25000]; got != (Range{90, 90}) {
		t.Errorf("price range = %+v, want {90 90}", got)
	}
}

func TestPreFilterExplicitBoundsOverride(t *testing.T) {
	items := []item.Item{
		mk("A", 100, 5, 10, 0),
		mk("B", 300, 8, 40, 0),
		mk("Feathers", 3, 30000, 9000000, 0),
	}

	user := Default()
	user.Price.Max = 250
	user.Volume.Min = 1 // the default minimum volume does not count as set

	f := PreFilter(user, items, "A; B ;Feathers")

	tests := []struct {
		name string
		got  Range
		want Range
	}{
		{"price bucket 10", f.PreFilterPrice[10], Range{100, 250}},
		{"volume bucket 10", f.PreFilterVolume[10], Range{10, 40}},
		{"price bucket 50000", f.PreFilterPrice[50000], Range{3, 250}},
		{"volume bucket 50000", f.PreFilterVolume[50000], Range{9000000, 9000000}},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %+v, want %+v", tt.name, tt.got, tt.want)
		}
	}
}

func TestPreFilterUnknownReferences(t *testing.T) {
	f := PreFilter(Default(), []item.Item{mk("A", 1, 1, 1, 0)}, "Nope;;")
	if f.HasPreFilter() {
		t.Errorf("Expected no buckets, got %v", f.PreFilterVolume)
	}
}

func TestPreFilterDoesNotMutateUser(t *testing.T) {
	user := Default()
	user.PreFilterPrice = map[int64]Range{10: {1, 2}}
	user.PreFilterVolume = map[int64]Range{10: {1, 2}}

	PreFilter(user, []item.Item{mk("A", 100, 5, 10, 0)}, "A")

	if user.PreFilterPrice[10] != (Range{1, 2}) {
		t.Errorf("user filter changed: %+v", user.PreFilterPrice[10])
	}
}

func TestItemOutsideReferenceBucketsIsRejected(t *testing.T) {
	items := []item.Item{
		mk("A", 100, 5, 10, 0),
		mk("Big", 100, 1000000, 10, 0),
	}
	f := PreFilter(Default(), items, "A")
	f.Price = Range{Min: 0, Max: math.MaxInt64}

	got, err := Apply(items, f, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "A" {
		t.Errorf("Apply = %v, want [A]", itemNames(got))
	}
}
