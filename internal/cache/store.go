package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/colthorp/ge-inspector-go/internal/api"
	"github.com/colthorp/ge-inspector-go/internal/core"
	"github.com/colthorp/ge-inspector-go/internal/item"
)

// Source is the remote data the store is built from.
// *api.GEAPI implements it.
type Source interface {
	FetchBulkData(ctx context.Context) (*api.BulkData, error)
	FetchPriceGraph(ctx context.Context, id int) ([]int64, error)
}

// Store is the single owner of the item collection during one invocation.
// The snapshot is read once and held in memory; lookups and updates apply
// to that copy and are flushed with Persist.
type Store struct {
	backend  Backend
	source   Source
	cooldown *Cooldown
	logger   *log.Logger
	now      func() time.Time

	mu     sync.RWMutex
	items  []item.Item
	byID   map[int]int
	loaded bool
}

// NewStore creates a store. If backend is nil, uses the default
// FilesystemBackend. If cooldown is nil, refreshes are never throttled.
func NewStore(backend Backend, source Source, cooldown *Cooldown, logger *log.Logger) *Store {
	if backend == nil {
		backend = NewFilesystemBackend("", "", "")
	}
	return &Store{
		backend:  backend,
		source:   source,
		cooldown: cooldown,
		logger:   core.OrDiscard(logger).WithPrefix("cache"),
		now:      time.Now,
	}
}

// SetClock replaces the time source (for testing).
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Backend returns the storage backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// ClearCooldown removes the refresh lock so the next Refresh fetches the
// feeds regardless of the store's age.
func (s *Store) ClearCooldown() error {
	if s.cooldown == nil {
		return nil
	}
	return s.cooldown.Clear()
}

// Bootstrap builds a fresh snapshot from the bulk feeds and writes it.
// Nothing is written if any feed fails.
func (s *Store) Bootstrap(ctx context.Context) error {
	s.logger.Info("No item database found, downloading the required data and creating a new one", "path", s.backend.Path())

	data, err := s.source.FetchBulkData(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap item store: %w", err)
	}

	items, duplicates := newRecords(sortedNames(data.Price), data, make(map[int]struct{}, len(data.Price)))
	sortByName(items)
	for _, name := range duplicates {
		s.logger.Debug("duplicate item id, skipped", "item", name)
	}

	if err := s.backend.Create(&Snapshot{Items: items}); err != nil {
		return fmt.Errorf("write item store: %w", err)
	}

	s.mu.Lock()
	s.setItems(items)
	s.mu.Unlock()

	s.logger.Debug("bootstrapped", "items", len(items), "dropped", len(data.Price)-len(items))
	return nil
}

// Refresh merges the latest bulk feeds into the store. It bootstraps when no
// store exists and does nothing while the cooldown is active.
func (s *Store) Refresh(ctx context.Context) (RefreshResult, error) {
	if !s.backend.Exists() {
		if err := s.Bootstrap(ctx); err != nil {
			return RefreshResult{}, err
		}
		n := s.Len()
		return RefreshResult{Bootstrapped: true, Added: n, Total: n}, nil
	}

	modTime, err := s.backend.ModTime()
	if err != nil {
		return RefreshResult{}, fmt.Errorf("stat item store: %w", err)
	}
	if s.cooldown != nil && s.cooldown.Active(modTime, s.now()) {
		s.logger.Debug("refresh skipped, cooldown active", "store_modified", modTime, "lock", s.cooldown.Path())
		return RefreshResult{Skipped: true}, nil
	}

	current, err := s.snapshotItems()
	if err != nil {
		return RefreshResult{}, err
	}

	data, err := s.source.FetchBulkData(ctx)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("refresh item store: %w", err)
	}

	merged, result := Merge(current, data)

	if err := s.backend.Persist(&Snapshot{Items: merged}); err != nil {
		return RefreshResult{}, fmt.Errorf("persist refreshed item store: %w", err)
	}

	s.mu.Lock()
	s.setItems(merged)
	s.mu.Unlock()

	if s.cooldown != nil {
		if err := s.cooldown.Touch(); err != nil {
			s.logger.Warn("couldn't write update lock", "path", s.cooldown.Path(), "err", err)
		}
	}

	for _, name := range result.Duplicates {
		s.logger.Debug("duplicate item id, skipped", "item", name)
	}
	s.logger.Debug("refreshed", "updated", result.Updated, "removed", result.Removed, "added", result.Added)
	return result, nil
}

// Merge applies fresh bulk feeds to an existing item list and returns the new
// list. Existing items get their price, volume and high alch overwritten;
// items missing from the price feed are dropped; unseen names with a limit
// are appended, after which the list is re-sorted by name.
func Merge(existing []item.Item, data *api.BulkData) ([]item.Item, RefreshResult) {
	var result RefreshResult

	remaining := make(map[string]struct{}, len(data.Price))
	for name := range data.Price {
		remaining[name] = struct{}{}
	}

	taken := make(map[int]struct{}, len(existing))
	merged := make([]item.Item, 0, len(existing))
	for _, it := range existing {
		price, ok := data.Price[it.Name]
		if !ok {
			result.Removed++
			continue
		}
		delete(remaining, it.Name)
		if _, dup := taken[it.ID]; dup {
			result.Duplicates = append(result.Duplicates, it.Name)
			result.Removed++
			continue
		}
		taken[it.ID] = struct{}{}

		it = it.Clone()
		it.Price = price
		it.Volume = data.Volume[it.Name]
		if alch, ok := data.HighAlch[it.Name]; ok {
			it.HighAlch = alch
		}
		merged = append(merged, it)
		result.Updated++
	}

	added, duplicates := newRecords(sortedNames(remaining), data, taken)
	merged = append(merged, added...)
	result.Added = len(added)
	result.Duplicates = append(result.Duplicates, duplicates...)

	if result.Added > 0 {
		sortByName(merged)
	}

	result.Total = len(merged)
	return merged, result
}

// newRecords builds items for names from the feeds, skipping any whose id is
// already in taken. Ids from the id feed are claimed before hashed ones so a
// hash collision never displaces a real id. Taken ids are added to taken.
func newRecords(names []string, data *api.BulkData, taken map[int]struct{}) (items []item.Item, duplicates []string) {
	items = make([]item.Item, 0, len(names))
	for _, fromFeed := range []bool{true, false} {
		for _, name := range names {
			if _, ok := data.ID[name]; ok != fromFeed {
				continue
			}
			it, ok := newRecord(name, data)
			if !ok {
				continue
			}
			if _, dup := taken[it.ID]; dup {
				duplicates = append(duplicates, name)
				continue
			}
			taken[it.ID] = struct{}{}
			items = append(items, it)
		}
	}
	return items, duplicates
}

func sortByName(items []item.Item) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })
}

// newRecord builds an item from the feeds. Names without a limit are rejected.
func newRecord(name string, data *api.BulkData) (item.Item, bool) {
	limit, ok := data.Limit[name]
	if !ok || name == "" {
		return item.Item{}, false
	}

	id := item.HashName(name)
	if feedID, ok := data.ID[name]; ok {
		id = int(feedID)
	}

	it := item.New(name, id, data.Price[name], limit)
	it.Volume = data.Volume[name]
	it.HighAlch = data.HighAlch[name]
	return it, true
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load returns a copy of every item, bootstrapping first if no store exists.
func (s *Store) Load(ctx context.Context) ([]item.Item, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return item.CloneAll(s.items), nil
	}
	s.mu.RUnlock()

	snap, err := s.backend.Read()
	if errors.Is(err, ErrNotExist) {
		if err := s.Bootstrap(ctx); err != nil {
			return nil, err
		}
		snap, err = s.backend.Read()
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setItems(snap.Items)
	return item.CloneAll(s.items), nil
}

// snapshotItems returns the held items, reading the backend if nothing is held yet.
func (s *Store) snapshotItems() ([]item.Item, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return item.CloneAll(s.items), nil
	}
	s.mu.RUnlock()

	snap, err := s.backend.Read()
	if err != nil {
		return nil, err
	}
	return snap.Items, nil
}

// setItems replaces the held collection. Caller holds the write lock.
func (s *Store) setItems(items []item.Item) {
	s.items = items
	s.byID = make(map[int]int, len(items))
	for i, it := range items {
		s.byID[it.ID] = i
	}
	s.loaded = true
}

// FindByID returns a copy of the held item with the given id.
func (s *Store) FindByID(id int) (item.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return item.Item{}, false
	}
	return s.items[idx].Clone(), true
}

// UpdateRecord replaces the held item with the same id. Unknown ids are
// ignored: they only come from a stale filtered copy.
func (s *Store) UpdateRecord(it item.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byID[it.ID]
	if !ok {
		s.logger.Debug("update of unknown item ignored", "id", it.ID, "name", it.Name)
		return
	}
	s.items[idx] = it.Clone()
}

// SetPriceHistory records a downloaded price history on the item with the
// given id. No other field is touched.
func (s *Store) SetPriceHistory(id int, prices []int64, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byID[id]
	if !ok {
		return false
	}
	s.items[idx].SetPriceHistory(prices, at)
	return true
}

// ApplyMembership records a membership status and category for the item with
// the given id. Only unknown items change, so statuses never move backwards.
func (s *Store) ApplyMembership(id int, members item.Members, category item.Category) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byID[id]
	if !ok {
		return false
	}
	rec := &s.items[idx]
	if !item.CanTransition(rec.Members, members) {
		return false
	}
	rec.Members = members
	rec.Category = category
	return true
}

// Reconcile copies resolved membership from the store into a separately held
// list of items (typically a filter result) and returns how many changed.
func (s *Store) Reconcile(items []item.Item) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	changed := 0
	for i := range items {
		if items[i].Members != item.Unknown {
			continue
		}
		idx, ok := s.byID[items[i].ID]
		if !ok {
			continue
		}
		rec := s.items[idx]
		if rec.Members == item.Unknown {
			continue
		}
		items[i].Members = rec.Members
		items[i].Category = rec.Category
		changed++
	}
	return changed
}

// Persist writes the held collection through the backend's persist protocol.
// It fails with ErrNotLoaded if nothing is held yet.
func (s *Store) Persist() error {
	s.mu.RLock()
	if !s.loaded {
		s.mu.RUnlock()
		return ErrNotLoaded
	}
	snap := &Snapshot{Items: item.CloneAll(s.items)}
	s.mu.RUnlock()

	if err := s.backend.Persist(snap); err != nil {
		return fmt.Errorf("persist item store: %w", err)
	}
	return nil
}

// ItemCost returns the price of the item with the given name.
func (s *Store) ItemCost(name string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.Name == name {
			return it.Price, true
		}
	}
	return 0, false
}

// Len returns the number of held items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
