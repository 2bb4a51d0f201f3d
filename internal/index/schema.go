// Package index provides a SQLite-backed search index over notebook entries
// with optional FTS5 full-text search.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	id            TEXT NOT NULL,
	notebook_id   TEXT NOT NULL,
	notebook_name TEXT NOT NULL DEFAULT '',
	title         TEXT NOT NULL DEFAULT '',
	scientific    TEXT NOT NULL DEFAULT '',
	tags          TEXT NOT NULL DEFAULT '[]',
	description   TEXT NOT NULL DEFAULT '',
	fun_fact      TEXT NOT NULL DEFAULT '',
	notes         TEXT NOT NULL DEFAULT '',
	author        TEXT NOT NULL DEFAULT '',
	image_url     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (notebook_id, id)
);

CREATE INDEX IF NOT EXISTS idx_entries_title ON entries(title);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
