// Package store provides the SQLite-backed book record store.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS books (
	id             TEXT PRIMARY KEY,
	work_olid      TEXT NOT NULL DEFAULT '',
	edition_olid   TEXT NOT NULL DEFAULT '',
	title          TEXT NOT NULL DEFAULT '',
	author         TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'wishlist',
	started_date   TEXT,
	completed_date TEXT,
	rating_tag     TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_books_work_olid
	ON books(work_olid) WHERE work_olid != '';

CREATE INDEX IF NOT EXISTS idx_books_status ON books(status);

CREATE TABLE IF NOT EXISTS reviews (
	id             TEXT PRIMARY KEY,
	book_id        TEXT NOT NULL REFERENCES books(id),
	content        TEXT NOT NULL,
	status_at_time TEXT NOT NULL,
	created_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reviews_book ON reviews(book_id, created_at);
`

// DB wraps a sql.DB with store-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
