package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/colthorp/ge-inspector-go/internal/core"
)

// FilesystemBackend stores the snapshot as one JSON file.
// Default layout: ~/.local/share/ge-inspector/price.json, with the staging
// and backup files in the system temp directory.
type FilesystemBackend struct {
	path       string
	tempPath   string
	backupPath string
	writeLock  sync.Mutex
}

// NewFilesystemBackend creates a filesystem backend. Empty paths fall back to
// the defaults in core.
func NewFilesystemBackend(path, tempPath, backupPath string) *FilesystemBackend {
	if path == "" {
		path = core.StorePath()
	}
	if tempPath == "" {
		tempPath = core.TempStorePath()
	}
	if backupPath == "" {
		backupPath = core.BackupStorePath()
	}
	return &FilesystemBackend{path: path, tempPath: tempPath, backupPath: backupPath}
}

// NewFilesystemBackendFromConfig creates a backend at the configured locations.
func NewFilesystemBackendFromConfig(cfg core.Config) *FilesystemBackend {
	return NewFilesystemBackend(cfg.StorePath, cfg.TempPath, cfg.BackupPath)
}

// Path returns the store location.
func (b *FilesystemBackend) Path() string {
	return b.path
}

// Exists reports whether the store file is present.
func (b *FilesystemBackend) Exists() bool {
	_, err := os.Stat(b.path)
	return err == nil
}

// ModTime returns the modification time of the store file.
func (b *FilesystemBackend) ModTime() (time.Time, error) {
	info, err := os.Stat(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, ErrNotExist
	}
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Read decodes the store file. Unlike a cache, a corrupt store is never
// removed here.
func (b *FilesystemBackend) Read() (*Snapshot, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("read item store: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &CorruptStoreError{Path: b.path, Err: err}
	}
	return &snap, nil
}

// Create writes the first snapshot, creating the data directory.
func (b *FilesystemBackend) Create(snap *Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	b.writeLock.Lock()
	defer b.writeLock.Unlock()

	if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Write to temp file first, then rename
	tmpPath := b.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write item store: %w", err)
	}
	return os.Rename(tmpPath, b.path)
}

// Persist replaces the store: stage in the temp file, back up the current
// store, copy the temp file over the store, then drop the backup.
func (b *FilesystemBackend) Persist(snap *Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	b.writeLock.Lock()
	defer b.writeLock.Unlock()

	if err := os.WriteFile(b.tempPath, data, 0644); err != nil {
		return fmt.Errorf("couldn't write temporary item store %s: %w", b.tempPath, err)
	}
	if _, err := os.Stat(b.tempPath); err != nil {
		return fmt.Errorf("couldn't write temporary item store %s: %w", b.tempPath, err)
	}

	hadStore := b.Exists()
	if hadStore {
		if err := copyFile(b.path, b.backupPath); err != nil {
			return fmt.Errorf("back up item store to %s: %w", b.backupPath, err)
		}
	} else if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove old item store: %w", err)
	}
	if err := copyFile(b.tempPath, b.path); err != nil {
		if hadStore {
			return fmt.Errorf("replace item store (backup kept at %s): %w", b.backupPath, err)
		}
		return fmt.Errorf("replace item store: %w", err)
	}

	if hadStore {
		if err := os.Remove(b.backupPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove item store backup: %w", err)
		}
	}
	os.Remove(b.tempPath)
	return nil
}

func encodeSnapshot(snap *Snapshot) ([]byte, error) {
	if snap == nil {
		snap = &Snapshot{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode item store: %w", err)
	}
	return append(data, '\n'), nil
}

// copyFile copies src to dst. dst's directory must already exist.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
