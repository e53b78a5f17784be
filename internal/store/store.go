// Package store implements the persistent keyed cache behind every pipeline
// stage. Each logical table maps a content-hash key to its cached result; all
// writes are atomic per-key upserts, so concurrent writers to the same key
// never interleave partial rows.
package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store is a sqlite-backed keyed store with a read-through memory layer in
// front of the expensive verdict and report tables.
type Store struct {
	db     *sql.DB
	mem    *gocache.Cache
	logger *zap.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string, memoryTTL time.Duration, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL allows concurrent readers while a writer is active.
	// busy_timeout reduces SQLITE_BUSY errors under contention.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if memoryTTL <= 0 {
		memoryTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		db:     db,
		mem:    gocache.New(memoryTTL, 10*time.Minute),
		logger: logger,
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mem.Flush()
	return s.db.Close()
}

// memKey namespaces the in-memory layer by table.
func memKey(table, key string) string {
	return table + ":" + key
}

// marshalJSON encodes v without HTML escaping surprises; failures here would
// mean a programming error, so an empty JSON value is substituted.
func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func unmarshalJSON[T any](s string, fallback T) T {
	if s == "" {
		return fallback
	}
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return fallback
	}
	return v
}
