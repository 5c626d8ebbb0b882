package cache

import (
	"sync"
	"time"

	"github.com/colthorp/ge-inspector-go/internal/item"
)

// MemoryBackend is an in-memory snapshot backend for testing.
type MemoryBackend struct {
	snap     *Snapshot
	modTime  time.Time
	persists int
	failWith error
	mu       sync.RWMutex
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Path returns a dummy path.
func (b *MemoryBackend) Path() string {
	return "memory://price.json"
}

// Exists reports whether a snapshot has been stored.
func (b *MemoryBackend) Exists() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap != nil
}

// ModTime returns the time of the last write (or the one set with SetModTime).
func (b *MemoryBackend) ModTime() (time.Time, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.snap == nil {
		return time.Time{}, ErrNotExist
	}
	return b.modTime, nil
}

// Read returns a copy of the stored snapshot.
func (b *MemoryBackend) Read() (*Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.snap == nil {
		return nil, ErrNotExist
	}
	return copySnapshot(b.snap), nil
}

// Create stores a copy of snap.
func (b *MemoryBackend) Create(snap *Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap = copySnapshot(snap)
	b.modTime = time.Now()
	return nil
}

// Persist stores a copy of snap unless a failure was injected with FailPersist.
func (b *MemoryBackend) Persist(snap *Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	b.snap = copySnapshot(snap)
	b.modTime = time.Now()
	b.persists++
	return nil
}

// Seed stores items directly (for testing).
func (b *MemoryBackend) Seed(items ...item.Item) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap = &Snapshot{Items: item.CloneAll(items)}
	b.modTime = time.Now()
}

// SetModTime overrides the modification time (for testing the cooldown).
func (b *MemoryBackend) SetModTime(t time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modTime = t
}

// FailPersist makes every later Persist call return err. Pass nil to clear.
func (b *MemoryBackend) FailPersist(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWith = err
}

// Persists returns how many times Persist succeeded.
func (b *MemoryBackend) Persists() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.persists
}

// Reset clears the snapshot and counters (for testing).
func (b *MemoryBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap = nil
	b.persists = 0
	b.failWith = nil
}

func copySnapshot(snap *Snapshot) *Snapshot {
	if snap == nil {
		return &Snapshot{}
	}
	return &Snapshot{Items: item.CloneAll(snap.Items)}
}
