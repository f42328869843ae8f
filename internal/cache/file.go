package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"vidmeta/internal/media"
)

// FileStore keeps the cache as a single JSON object keyed by video identifier.
// Writes are atomic (temp file + rename).
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the cache file. A missing file yields an empty map. An
// unreadable or malformed file yields an empty map and an error wrapping
// ErrCorrupt. Entries carrying a non-empty error field are dropped.
func (s *FileStore) Load(_ context.Context) (map[string]media.Video, error) {
	entries := make(map[string]media.Video)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return entries, fmt.Errorf("reading cache: %w", err)
	}

	var raw map[string]media.Result
	if err := json.Unmarshal(data, &raw); err != nil {
		return entries, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}

	for id, r := range raw {
		if !r.OK() {
			continue
		}
		v := *r.Video
		if v.VideoID == "" {
			v.VideoID = id
		}
		entries[id] = v
	}
	return entries, nil
}

// Save writes entries to the cache file, creating parent directories.
func (s *FileStore) Save(_ context.Context, entries map[string]media.Video) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "cache-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(append(data, '\n')); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing cache: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming cache file: %w", err)
	}

	return nil
}
