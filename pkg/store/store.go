// Package store implements the atomic record store shared by every Quorum
// agent process: a named JSON collection persisted as a single
// human-readable file, replaced wholesale through a
// write-temp-then-rename sequence.
//
// Save gives write atomicity only: a concurrent reader observes either
// the fully-old or fully-new file, never a torn one. It does NOT give
// read-modify-write isolation — two processes that each Load, mutate and
// Save will race, and the later Save silently overwrites the earlier one.
// Update closes that window by serializing the load-modify-save cycle
// behind a process-local mutex and a cross-process advisory file lock.
// Mutating callers must go through Update; Load/Save remain exported for
// read paths and tests.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"quorum/pkg/protocol"
)

// Store is a file-backed collection of records of type T.
type Store[T any] struct {
	path string

	// mu serializes Update within this process; fl extends the exclusion
	// across processes sharing the workspace.
	mu sync.Mutex
	fl *flock.Flock
}

// New creates a Store backed by the JSON file at path. The file and its
// parent directory are created lazily on first Save.
func New[T any](path string) *Store[T] {
	return &Store[T]{
		path: path,
		fl:   flock.New(path + ".lock"),
	}
}

// Path returns the backing file path.
func (s *Store[T]) Path() string { return s.path }

// Load reads the full record collection. A missing file yields an empty
// collection; an unparseable file yields a StoreCorruptedError, which is
// fatal for this store — callers must not mutate state they cannot read.
func (s *Store[T]) Load() ([]T, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("read store %s: %w", s.path, err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &protocol.StoreCorruptedError{Path: s.path, Err: err}
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// Save atomically replaces the backing file with the given records via
// write-temp-then-rename.
func (s *Store[T]) Save(records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store %s: %w", s.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write store temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename store file: %w", err)
	}
	return nil
}

// Update runs fn inside the store's exclusion window: lock, Load, fn,
// Save, unlock. fn receives the current records and returns the records
// to persist. If fn returns an error nothing is written.
//
// The advisory lock covers the whole load-modify-save interval, so
// concurrent Updates from independent agent processes do not lose each
// other's writes. Readers are unaffected; they see the old or new file.
func (s *Store[T]) Update(fn func(records []T) ([]T, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The lock file lives next to the store; create the directory up
	// front so the very first Update on a fresh workspace can lock.
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if err := s.fl.Lock(); err != nil {
		return fmt.Errorf("lock store %s: %w", s.path, err)
	}
	defer func() { _ = s.fl.Unlock() }()

	records, err := s.Load()
	if err != nil {
		return err
	}
	updated, err := fn(records)
	if err != nil {
		return err
	}
	return s.Save(updated)
}
