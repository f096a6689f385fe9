package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"marketpulse/internal/core"
)

// SQLiteCache is the embedded cache backend
type SQLiteCache struct {
	db   *sql.DB
	path string
	ttl  time.Duration
}

// NewSQLiteCache creates a new cache with its SQLite database in dataDir
func NewSQLiteCache(dataDir string, ttl time.Duration) (*SQLiteCache, error) {
	if dataDir == "" {
		dataDir = ".marketpulse-cache"
	}
	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "marketpulse.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	cache := &SQLiteCache{
		db:   db,
		path: dbPath,
		ttl:  ttl,
	}

	if err := cache.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return cache, nil
}

// initialize creates the necessary tables
func (s *SQLiteCache) initialize() error {
	resultsTable := `
	CREATE TABLE IF NOT EXISTS results (
		url TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		cached_at INTEGER NOT NULL
	);`

	if _, err := s.db.Exec(resultsTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteCache) Close() error {
	return s.db.Close()
}

// Get retrieves a result younger than the TTL
func (s *SQLiteCache) Get(ctx context.Context, url string) (*core.AnalysisResult, bool, error) {
	query := `SELECT payload FROM results WHERE url = ? AND cached_at > ?`

	var cutoff int64
	if s.ttl > 0 {
		cutoff = time.Now().UTC().Add(-s.ttl).UnixNano()
	}

	var payload string
	err := s.db.QueryRowContext(ctx, query, url, cutoff).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil // Cache miss
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to scan result: %w", err)
	}

	var e entry
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &e.Result, true, nil
}

// Put stores a result in the cache
func (s *SQLiteCache) Put(ctx context.Context, url string, result core.AnalysisResult) error {
	now := time.Now().UTC()
	payload, err := json.Marshal(entry{Result: result, CachedAt: now})
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	query := `INSERT OR REPLACE INTO results (url, payload, cached_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, url, string(payload), now.UnixNano()); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	return nil
}

// Stats returns statistics about the cache
func (s *SQLiteCache) Stats(ctx context.Context) (*core.CacheStats, error) {
	stats := &core.CacheStats{Backend: string(BackendSQLite)}

	var oldest, newest sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), MIN(cached_at), MAX(cached_at) FROM results`).
		Scan(&stats.Entries, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("failed to get count: %w", err)
	}
	if oldest.Valid {
		stats.OldestEntry = time.Unix(0, oldest.Int64).UTC()
	}
	if newest.Valid {
		stats.NewestEntry = time.Unix(0, newest.Int64).UTC()
	}
	return stats, nil
}

// Clear removes all cached data
func (s *SQLiteCache) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM results"); err != nil {
		return fmt.Errorf("failed to clear results table: %w", err)
	}

	// Vacuum to reclaim space
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}

// CleanupExpired removes entries older than the TTL
func (s *SQLiteCache) CleanupExpired(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-s.ttl).UnixNano()
	res, err := s.db.ExecContext(ctx, "DELETE FROM results WHERE cached_at <= ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean expired results: %w", err)
	}
	return res.RowsAffected()
}
