// Package cache owns the on-disk item snapshot.
//
// # Store File
//
// The store is a single JSON document:
//
//	{
//	  "items": [
//	    {"name": "Rune sword", "id": 1289, "price": 20000, "limit": 100, ...},
//	    ...
//	  ]
//	}
//
// Items are kept sorted by name. Every stored item has a non-empty name and a
// known buy limit; feed entries without a limit are never stored.
//
// # Write Protocol
//
// Bootstrap writes the first snapshot directly, creating parent directories.
// Every later write goes through Persist:
//
//  1. Write the snapshot to a temporary file and verify it exists
//  2. Copy the current store to a backup location
//  3. Replace the store with the temporary file
//  4. Delete the backup
//
// A failure before step 3 leaves the store untouched. A failure during step 3
// leaves the backup in place for manual recovery.
//
// # Cooldown
//
// Refresh is a no-op while the lock file exists and the store was modified
// within the cooldown window. The lock is advisory: two processes can still
// race on Persist.
package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/colthorp/ge-inspector-go/internal/item"
)

// ErrNotExist is returned by Backend.Read when no store has been written yet.
var ErrNotExist = errors.New("item store does not exist")

// ErrNotLoaded is returned by Store.Persist before anything has been loaded
// or bootstrapped.
var ErrNotLoaded = errors.New("item store has not been loaded")

// CorruptStoreError is returned when the store file cannot be decoded.
// There is no automatic recovery; the persist backup is the manual way back.
type CorruptStoreError struct {
	Path string
	Err  error
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("item store %s is corrupt (restore it from the backup or delete it): %v", e.Path, e.Err)
}

func (e *CorruptStoreError) Unwrap() error { return e.Err }

// Snapshot is the JSON document held in the store file.
type Snapshot struct {
	Items []item.Item `json:"items"`
}

// Backend is the interface for snapshot storage.
// The default implementation is FilesystemBackend which stores one JSON file on disk.
type Backend interface {
	// Read returns the stored snapshot, ErrNotExist if there is none, or a
	// *CorruptStoreError if it cannot be decoded.
	Read() (*Snapshot, error)

	// Create writes the first snapshot, creating parent directories as needed.
	Create(snap *Snapshot) error

	// Persist replaces the stored snapshot using the temp/backup protocol.
	Persist(snap *Snapshot) error

	// ModTime returns the last modification time of the store.
	ModTime() (time.Time, error)

	// Exists reports whether a store has been written.
	Exists() bool

	// Path returns the store location (for diagnostics).
	Path() string
}

// RefreshResult describes what a Refresh call did.
type RefreshResult struct {
	Bootstrapped bool // no store existed, a fresh one was built
	Skipped      bool // cooldown active, nothing fetched
	Updated      int
	Removed      int
	Added        int
	Total        int
	Duplicates   []string // names skipped because their id was already taken
}
