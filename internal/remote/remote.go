// Package remote provides the remote table client used for opportunistic
// synchronization of worklog collections.
//
// The remote datastore is modeled as a set of key-value tables, one per
// collection, reachable through database/sql with the embedded SQLite
// driver. Each row carries the record id, the full record JSON as an opaque
// payload, and a server-side updated_at timestamp:
//
//	CREATE TABLE <name> (id TEXT PRIMARY KEY, payload TEXT, updated_at TEXT)
//
// The query surface is deliberately tiny: list ordered by freshness, bulk
// upsert by id, delete by id. Conflict resolution is last-write-wins at the
// record level; there is no server-side merge logic.
package remote

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Row is one remote table row. Payload is the record serialized as JSON;
// the client never looks inside it.
type Row struct {
	ID        string
	Payload   []byte
	UpdatedAt string
}

// DB wraps the database connection shared by all collection tables.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates a database connection at the specified path.
//
// The database is opened in embedded mode with WAL for concurrent reads.
// The caller MUST call Close() when done.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, path: path}

	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Close closes the database connection after checkpointing the WAL.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.conn = nil
	return nil
}

// Table returns a client for the named collection table.
// The name must be a plain identifier; it is interpolated into SQL.
func (db *DB) Table(name string) (*Table, error) {
	if !validTableName(name) {
		return nil, fmt.Errorf("invalid table name: %q", name)
	}
	return &Table{conn: db.conn, name: name}, nil
}

func validTableName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

// Table is the client for one collection's remote table.
type Table struct {
	conn *sql.DB
	name string
}

// Name returns the remote table name.
func (t *Table) Name() string {
	return t.name
}

// InitSchema creates the table and its freshness index if they don't exist.
// Idempotent - safe to call multiple times.
func (t *Table) InitSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		id TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_updated ON %[1]s(updated_at);
	`, t.name)

	if _, err := t.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema for %s: %w", t.name, err)
	}
	return nil
}

// List returns all rows ordered by updated_at descending.
func (t *Table) List(ctx context.Context) ([]Row, error) {
	query := fmt.Sprintf("SELECT id, payload, updated_at FROM %s ORDER BY updated_at DESC, id ASC", t.name)

	rows, err := t.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.name, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var payload string
		if err := rows.Scan(&r.ID, &payload, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r.Payload = []byte(payload)
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", t.name, err)
	}

	return out, nil
}

// UpsertMany inserts or replaces the given rows by id in one transaction.
// The server-side updated_at is stamped with a single timestamp for the
// whole batch. An empty batch is a no-op.
func (t *Table) UpsertMany(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := t.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
	INSERT INTO %s (id, payload, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		payload = excluded.payload,
		updated_at = excluded.updated_at
	`, t.name)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, r := range rows {
		if r.ID == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, r.ID, string(r.Payload), now); err != nil {
			return fmt.Errorf("failed to upsert row %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}

	return nil
}

// DeleteByID removes a row from the table.
// Returns nil if the row doesn't exist (idempotent).
func (t *Table) DeleteByID(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.name)
	if _, err := t.conn.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete row %s: %w", id, err)
	}
	return nil
}

// Count returns the number of rows in the table.
func (t *Table) Count(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", t.name)
	if err := t.conn.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", t.name, err)
	}
	return count, nil
}
