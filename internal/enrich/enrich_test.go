package enrich

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/colthorp/ge-inspector-go/internal/api"
	"github.com/colthorp/ge-inspector-go/internal/cache"
	"github.com/colthorp/ge-inspector-go/internal/item"
)

var testEndpoints = api.Endpoints{WikiBase: "http://wiki.test", ItemDBBase: "http://itemdb.test"}

const swordsCategory = 24 // "Melee weapons - high level"

type fixture struct {
	transport *api.InMemoryTransport
	backend   *cache.MemoryBackend
	store     *cache.Store
	enricher  *Enricher
}

func newFixture(t *testing.T, batch int, items ...item.Item) *fixture {
	t.Helper()
	transport := api.NewInMemoryTransport()
	backend := cache.NewMemoryBackend()
	backend.Seed(items...)

	geapi := api.NewGEAPI(transport, testEndpoints, nil)
	store := cache.NewStore(backend, geapi, nil, nil)
	if _, err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	return &fixture{
		transport: transport,
		backend:   backend,
		store:     store,
		enricher:  NewEnricher(geapi, store, batch, nil),
	}
}

func (f *fixture) seedDetail(id int, typ string) {
	f.transport.Seed(testEndpoints.ItemDetailURL(id), api.ItemDetail{Item: api.CatalogueEntry{ID: id, Type: typ}})
}

func TestResolveBackfillsListing(t *testing.T) {
	for _, batch := range []int{1, 2, 3} {
		t.Run(fmt.Sprintf("batch %d", batch), func(t *testing.T) {
			sword := item.New("Rune sword", 1289, 20000, 100)
			scim := item.New("Rune scimitar", 1333, 15000, 100)
			royal := item.New("Royal sword", 9000, 5, 5)
			f := newFixture(t, batch, scim, sword, royal)
			f.seedDetail(1289, "Melee weapons - high level")

			// 14 entries: one full page plus a short one
			entries := make([]api.CatalogueEntry, 0, 14)
			for i := range 12 {
				entries = append(entries, api.CatalogueEntry{ID: 50000 + i, Name: fmt.Sprintf("R filler %d", i), Members: "true"})
			}
			entries = append(entries,
				api.CatalogueEntry{ID: 1289, Name: "Rune sword", Members: "false"},
				api.CatalogueEntry{ID: 1333, Name: "Rune scimitar", Members: "true"},
			)
			f.transport.SeedCategoryListing(testEndpoints, swordsCategory, "r", 12, entries)

			changed, err := f.enricher.Resolve(context.Background(), &sword)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if !changed {
				t.Error("Expected Resolve to report a write")
			}
			if sword.Members != item.No || sword.Category != swordsCategory {
				t.Errorf("Rune sword = %v/%v, want no/%d", sword.Members, sword.Category, swordsCategory)
			}

			held, _ := f.store.FindByID(1333)
			if held.Members != item.Yes || held.Category != swordsCategory {
				t.Errorf("Expected Rune scimitar to be backfilled, got %v/%v", held.Members, held.Category)
			}
			if held, _ := f.store.FindByID(9000); held.Members != item.Unknown {
				t.Errorf("Royal sword is not on the listing, got %v", held.Members)
			}
			if f.backend.Persists() != 1 {
				t.Errorf("Expected one persist, got %d", f.backend.Persists())
			}
		})
	}
}

func TestResolveStopsAtShortPage(t *testing.T) {
	sword := item.New("Rune sword", 1289, 20000, 100)
	f := newFixture(t, 1, sword)
	f.seedDetail(1289, "Melee weapons - high level")
	f.transport.SeedCategoryListing(testEndpoints, swordsCategory, "r", 12, []api.CatalogueEntry{
		{ID: 1289, Name: "Rune sword", Members: "false"},
	})

	if _, err := f.enricher.Resolve(context.Background(), &sword); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// detail + page 1
	if f.transport.RequestsMade() != 2 {
		t.Errorf("Expected 2 requests, got %d: %v", f.transport.RequestsMade(), f.transport.Requests())
	}
}

func TestResolveMarksNoData(t *testing.T) {
	ghost := item.New("Rusty thing", 777, 10, 10)
	f := newFixture(t, 2, ghost)
	f.seedDetail(777, "Miscellaneous")
	f.transport.SeedCategoryListing(testEndpoints, 0, "r", 12, nil)

	changed, err := f.enricher.Resolve(context.Background(), &ghost)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !changed || ghost.Members != item.NoData {
		t.Errorf("Resolve = %v, members %v; want true, no_data", changed, ghost.Members)
	}
	if held, _ := f.store.FindByID(777); held.Members != item.NoData {
		t.Errorf("Stored members = %v, want no_data", held.Members)
	}
	if f.backend.Persists() != 1 {
		t.Errorf("Expected the no_data result to be persisted, got %d persists", f.backend.Persists())
	}

	// A second call is a no-op
	f.transport.Reset()
	changed, err = f.enricher.Resolve(context.Background(), &ghost)
	if err != nil || changed {
		t.Errorf("Second Resolve = %v, %v; want false, nil", changed, err)
	}
	if f.transport.RequestsMade() != 0 {
		t.Error("Expected no requests for a known status")
	}
}

func TestResolveKnownStatusIsNoop(t *testing.T) {
	for _, m := range []item.Members{item.Yes, item.No, item.NoData} {
		it := item.New("Coal", 453, 150, 25000)
		it.Members = m
		f := newFixture(t, 2, it)

		changed, err := f.enricher.Resolve(context.Background(), &it)
		if err != nil || changed {
			t.Errorf("Resolve(%v) = %v, %v; want false, nil", m, changed, err)
		}
		if f.transport.RequestsMade() != 0 || f.backend.Persists() != 0 {
			t.Errorf("Resolve(%v) touched the network or the store", m)
		}
	}
}

func TestResolveSchemaDrift(t *testing.T) {
	it := item.New("Strange thing", 31337, 1, 1)
	f := newFixture(t, 2, it)
	f.seedDetail(31337, "Brand new category")

	_, err := f.enricher.Resolve(context.Background(), &it)
	var drift *SchemaDriftError
	if !errors.As(err, &drift) {
		t.Fatalf("Expected SchemaDriftError, got %v", err)
	}
	if drift.Type != "Brand new category" || drift.ID != 31337 || drift.Name != "Strange thing" {
		t.Errorf("SchemaDriftError = %+v", drift)
	}
	if f.backend.Persists() != 0 {
		t.Error("Expected nothing persisted on schema drift")
	}
}

func TestResolveDoesNotOverwriteKnownRecords(t *testing.T) {
	sword := item.New("Rune sword", 1289, 20000, 100)
	scim := item.New("Rune scimitar", 1333, 15000, 100)
	scim.Members = item.NoData
	f := newFixture(t, 2, sword, scim)
	f.seedDetail(1289, "Melee weapons - high level")
	f.transport.SeedCategoryListing(testEndpoints, swordsCategory, "r", 12, []api.CatalogueEntry{
		{ID: 1289, Name: "Rune sword", Members: "false"},
		{ID: 1333, Name: "Rune scimitar", Members: "true"},
	})

	if _, err := f.enricher.Resolve(context.Background(), &sword); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if held, _ := f.store.FindByID(1333); held.Members != item.NoData {
		t.Errorf("Known status changed to %v", held.Members)
	}
}

func TestResolveFetchFailure(t *testing.T) {
	sword := item.New("Rune sword", 1289, 20000, 100)
	f := newFixture(t, 2, sword)
	f.seedDetail(1289, "Melee weapons - high level")
	f.transport.Fail(testEndpoints.CategoryPageURL(swordsCategory, "r", 2), api.ErrEmptyResponse)
	f.transport.Seed(testEndpoints.CategoryPageURL(swordsCategory, "r", 1), api.CategoryPage{Items: []api.CatalogueEntry{}})

	if _, err := f.enricher.Resolve(context.Background(), &sword); !errors.Is(err, api.ErrEmptyResponse) {
		t.Fatalf("Expected ErrEmptyResponse, got %v", err)
	}
	if sword.Members != item.Unknown {
		t.Errorf("Expected status to stay unknown after a failed crawl, got %v", sword.Members)
	}
}

func TestAlphaOf(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Rune sword", "r"},
		{"abyssal whip", "a"},
		{"3rd age longsword", "#"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := alphaOf(tt.name); got != tt.want {
			t.Errorf("alphaOf(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
