package cache

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/colthorp/ge-inspector-go/internal/core"
)

const lockBanner = "Remove this file if you want to force ge-inspector to update its database\n"

// Cooldown throttles remote refreshes with a marker file. Only the marker's
// existence matters; its content is a random token.
type Cooldown struct {
	path   string
	window time.Duration
}

// NewCooldown creates a cooldown gate. A zero window disables the gate.
func NewCooldown(path string, window time.Duration) *Cooldown {
	if path == "" {
		path = core.LockPath()
	}
	return &Cooldown{path: path, window: window}
}

// Path returns the lock file location.
func (c *Cooldown) Path() string {
	return c.path
}

// Active reports whether a refresh should be skipped: the lock exists and
// the store was modified less than one window before now.
func (c *Cooldown) Active(storeModTime, now time.Time) bool {
	if c.window <= 0 {
		return false
	}
	if _, err := os.Stat(c.path); err != nil {
		return false
	}
	return now.Sub(storeModTime) < c.window
}

// Touch rewrites the lock with a fresh token.
func (c *Cooldown) Touch() error {
	return os.WriteFile(c.path, []byte(lockBanner+core.RandomToken()+"\n"), 0644)
}

// Clear removes the lock so the next refresh always fetches.
func (c *Cooldown) Clear() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
