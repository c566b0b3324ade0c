package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var ErrEmptyKey = errors.New("storage: empty collection or key")

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS kv_store (
  collection  TEXT NOT NULL,
  key         TEXT NOT NULL,
  value       BLOB NOT NULL,
  created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(collection, key)
);
CREATE INDEX IF NOT EXISTS idx_kv_updated ON kv_store(collection, updated_at);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Get returns the value stored under collection/key. The boolean is false
// when no such record exists.
func (d *DB) Get(ctx context.Context, collection, key string) ([]byte, bool, error) {
	if collection == "" || key == "" {
		return nil, false, ErrEmptyKey
	}
	var value []byte
	err := d.sql.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE collection = ? AND key = ?", collection, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set inserts or replaces the value stored under collection/key.
func (d *DB) Set(ctx context.Context, collection, key string, value []byte) error {
	if collection == "" || key == "" {
		return ErrEmptyKey
	}
	if value == nil {
		value = []byte{}
	}
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO kv_store(collection, key, value, created_at, updated_at)
VALUES(?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
ON CONFLICT(collection, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, collection, key, value)
	return err
}

// List returns every record of a collection ordered by key.
func (d *DB) List(ctx context.Context, collection string) ([]Record, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT collection, key, value, created_at, updated_at FROM kv_store WHERE collection = ? ORDER BY key", collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var createdStr, updatedStr string
		if err := rows.Scan(&r.Collection, &r.Key, &r.Value, &createdStr, &updatedStr); err != nil {
			return nil, err
		}
		r.CreatedAt = parseTimestamp(createdStr)
		r.UpdatedAt = parseTimestamp(updatedStr)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type CollectionStats struct {
	Collection  string
	RecordCount int
	TotalBytes  int64
}

func (d *DB) GetStats(ctx context.Context) ([]CollectionStats, error) {
	query := `
		SELECT
			collection,
			COUNT(*),
			COALESCE(SUM(LENGTH(value)), 0)
		FROM
			kv_store
		GROUP BY
			collection
		ORDER BY
			collection;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []CollectionStats
	for rows.Next() {
		var s CollectionStats
		if err := rows.Scan(&s.Collection, &s.RecordCount, &s.TotalBytes); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

// parseTimestamp accepts SQLite's CURRENT_TIMESTAMP layout as well as the
// RFC 3339 form some drivers hand back for DATETIME columns.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
