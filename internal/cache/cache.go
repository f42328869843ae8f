// Package cache persists successfully fetched video records between runs.
//
// A store holds a snapshot mapping video identifier to record. Failures are
// never stored. Load and Save operate on whole snapshots; callers that share
// a store across goroutines must serialize their read-modify-write cycles.
package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"vidmeta/internal/media"
)

// ErrCorrupt is wrapped by Load when the backing data cannot be parsed.
// The accompanying map is empty and usable.
var ErrCorrupt = errors.New("cache is corrupt")

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Store loads and saves cache snapshots.
type Store interface {
	// Load returns the stored records. A missing store yields an empty map
	// and no error.
	Load(ctx context.Context) (map[string]media.Video, error)
	// Save replaces the stored snapshot with entries.
	Save(ctx context.Context, entries map[string]media.Video) error
}

// Open returns a store for the named backend at path.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendJSON:
		return NewFileStore(path), nil
	case BackendSQLite:
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want %s or %s)", backend, BackendJSON, BackendSQLite)
	}
}

// Close releases resources held by s, if any.
func Close(s Store) error {
	if c, ok := s.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// IDs returns the identifiers in entries, sorted.
func IDs(entries map[string]media.Video) []string {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Delete removes id from the store and reports whether it was present.
func Delete(ctx context.Context, s Store, id string) (bool, error) {
	entries, err := s.Load(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := entries[id]; !ok {
		return false, nil
	}
	delete(entries, id)
	return true, s.Save(ctx, entries)
}

// Clear empties the store.
func Clear(ctx context.Context, s Store) error {
	return s.Save(ctx, map[string]media.Video{})
}
