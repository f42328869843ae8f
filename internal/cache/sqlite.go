package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"vidmeta/internal/media"
)

// SQLiteStore keeps one row per video, each holding the JSON record.
// The database file and schema are created on first use.
type SQLiteStore struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore returns a store backed by the database at path.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// conn opens (or creates) the database on first call.
func (s *SQLiteStore) conn(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS videos (
		video_id   TEXT PRIMARY KEY,
		record     TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	s.db = db
	return db, nil
}

// Close closes the database if it was opened.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Load returns every stored record. Rows that fail to decode are reported
// as ErrCorrupt after the readable rows have been collected.
func (s *SQLiteStore) Load(ctx context.Context) (map[string]media.Video, error) {
	entries := make(map[string]media.Video)

	db, err := s.conn(ctx)
	if err != nil {
		return entries, err
	}
	rows, err := db.QueryContext(ctx, `SELECT video_id, record FROM videos`)
	if err != nil {
		return entries, fmt.Errorf("querying cache: %w", err)
	}
	defer rows.Close()

	bad := 0
	for rows.Next() {
		var id, record string
		if err := rows.Scan(&id, &record); err != nil {
			return make(map[string]media.Video), fmt.Errorf("scanning cache row: %w", err)
		}
		var v media.Video
		if err := json.Unmarshal([]byte(record), &v); err != nil {
			bad++
			continue
		}
		entries[id] = v
	}
	if err := rows.Err(); err != nil {
		return make(map[string]media.Video), fmt.Errorf("reading cache: %w", err)
	}
	if bad > 0 {
		return entries, fmt.Errorf("%w: %d unreadable rows", ErrCorrupt, bad)
	}
	return entries, nil
}

// Save replaces the table contents with entries in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, entries map[string]media.Video) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning cache tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM videos`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO videos (video_id, record, updated_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, id := range IDs(entries) {
		record, err := json.Marshal(entries[id])
		if err != nil {
			return fmt.Errorf("encoding %s: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, id, string(record), now); err != nil {
			return fmt.Errorf("inserting %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cache: %w", err)
	}
	return nil
}
