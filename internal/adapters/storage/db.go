package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// MemoryDSN addresses a private in-memory SQLite database. Its contents vanish when the
// last connection closes, which is what keeps the board ephemeral.
const MemoryDSN = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS project (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	people      INTEGER NOT NULL,
	status      TEXT NOT NULL CHECK (status IN ('active', 'finished')),
	created_at  TEXT NOT NULL
);
`

// OpenMemory opens the in-memory database and creates the schema.
// The pool is pinned to one connection: every new connection to :memory: would see an empty database.
// PRE: none
// POST: Returns a ready database or an error; caller closes it
func OpenMemory(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", MemoryDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	if err := InitDB(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitDB creates the board schema if it does not exist.
// PRE: db is a valid database connection
// POST: project table exists
func InitDB(ctx context.Context, db SQLDB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
