// Package jsonl records workbench events as JSON lines.
package jsonl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fwojciec/csvstory"
)

// Compile-time interface verification.
var _ csvstory.EventSink = (*Journal)(nil)

// Journal appends Event records to a JSONL file. It is safe for concurrent
// use by multiple goroutines.
type Journal struct {
	path string
	mu   sync.Mutex
}

// NewJournal creates a Journal writing to path. The file and its parent
// directories are created on the first Record.
func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// Path returns the journal file location.
func (j *Journal) Path() string {
	return j.path
}

// Record appends ev as one line.
func (j *Journal) Record(ev csvstory.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
