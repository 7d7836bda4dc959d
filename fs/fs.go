// Package fs provides file system access: loading CSV uploads, caching
// analysis results and exporting generated images.
package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/csvstory"
)

// MaxUploadSize bounds the CSV files Open will read (100MB).
const MaxUploadSize = 100 << 20

// DefaultCacheDir returns the default cache directory for csvstory.
// Uses XDG_CACHE_HOME if set, otherwise falls back to ~/.cache/csvstory,
// or system temp directory if home is unavailable.
func DefaultCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "csvstory")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "csvstory")
	}
	return filepath.Join(home, ".cache", "csvstory")
}

// DefaultJournalPath returns the default event journal location.
// Uses XDG_STATE_HOME if set, otherwise ~/.local/state/csvstory/events.jsonl.
func DefaultJournalPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "csvstory", "events.jsonl")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "csvstory", "events.jsonl")
	}
	return filepath.Join(home, ".local", "state", "csvstory", "events.jsonl")
}

// Open reads the file at path into an Upload named by its base name.
// The extension is not checked here; the Workbench rejects non-CSV names.
func Open(path string) (csvstory.Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return csvstory.Upload{}, err
	}
	if info.IsDir() {
		return csvstory.Upload{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxUploadSize {
		return csvstory.Upload{}, fmt.Errorf("%s exceeds %d bytes", path, MaxUploadSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return csvstory.Upload{}, err
	}
	return csvstory.Upload{Name: filepath.Base(path), Data: data}, nil
}
