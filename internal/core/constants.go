// Package core provides shared constants and configuration for ge-inspector.
package core

import (
	"os"
	"path/filepath"
	"time"
)

// Remote data sources
const (
	WikiBaseURL   = "https://runescape.wiki"
	ItemDBBaseURL = "https://secure.runescape.com/m=itemdb_rs"
	UserAgent     = "grand-exchange-inspector"
)

// Bulk feed modules on the wiki. Each one is a flat JSON object keyed by item name.
const (
	PriceFeedModule    = "Module:GEPrices/data.json"
	IDFeedModule       = "Module:GEIDs/data.json"
	LimitFeedModule    = "Module:GELimits/data.json"
	VolumeFeedModule   = "Module:GEVolumes/data.json"
	HighAlchFeedModule = "Module:GEHighAlchs/data.json"
)

// Cache timing
const (
	DefaultUpdateCooldown = time.Hour
	PriceHistoryMaxAge    = 24 * time.Hour
)

// Fetch defaults
const (
	DefaultRetries     = 3
	DefaultTimeout     = 60 * time.Second
	DefaultEnrichBatch = 2
)

// Membership crawl
const (
	CataloguePageSize = 12
)

// Filtering defaults
const (
	DefaultFuzzFactor = 0.05
	NatureRune        = "Nature rune"
	RandomPickCap     = 64
)

// Version is the current CLI version.
const Version = "0.4.0"

// DataRoot returns the default per-user application data directory.
func DataRoot() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "ge-inspector")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".local", "share", "ge-inspector")
}

// StorePath returns the default location of the item snapshot.
func StorePath() string {
	return filepath.Join(DataRoot(), "price.json")
}

// LockPath returns the default location of the update cooldown marker.
func LockPath() string {
	return filepath.Join(os.TempDir(), "ge-inspector-update-lock")
}

// TempStorePath returns where a snapshot is staged before it replaces the store.
func TempStorePath() string {
	return filepath.Join(os.TempDir(), "ge-inspector-temporary-db")
}

// BackupStorePath returns where the previous snapshot is kept during a replace.
func BackupStorePath() string {
	return filepath.Join(os.TempDir(), "ge-inspector-db-backup")
}
