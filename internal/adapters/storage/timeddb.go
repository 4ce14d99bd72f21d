package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"taskboard/internal/adapters/http/perf"
)

// SQLDB is the database interface used by the SQL record store.
// Both *sql.DB and *TimedDB satisfy it.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ SQLDB = (*sql.DB)(nil)

// DefaultSlowQuery is the threshold above which a query is logged at WARN.
const DefaultSlowQuery = 50 * time.Millisecond

// TimedDB wraps a *sql.DB, logging slow statements and feeding the perf collector.
type TimedDB struct {
	db        *sql.DB
	collector *perf.Collector
	slow      time.Duration
}

var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps db. A non-positive slow threshold uses DefaultSlowQuery; collector may be nil.
// PRE: db is a valid database connection
// POST: Returns a TimedDB that times every statement
func NewTimedDB(db *sql.DB, collector *perf.Collector, slow time.Duration) *TimedDB {
	if slow <= 0 {
		slow = DefaultSlowQuery
	}
	return &TimedDB{db: db, collector: collector, slow: slow}
}

// RawDB returns the wrapped handle, for closing and pool configuration.
func (t *TimedDB) RawDB() *sql.DB {
	return t.db
}

func (t *TimedDB) observe(op string, start time.Time) {
	d := time.Since(start)
	if d >= t.slow {
		slog.Warn("slow_query", "op", op, "duration_ms", d.Milliseconds())
	} else {
		slog.Debug("query", "op", op, "duration_ms", float64(d.Microseconds())/1000.0)
	}
	t.collector.Record(perf.Entry{Kind: perf.KindQuery, Name: op, Duration: d, At: start})
}

// ExecContext wraps sql.DB.ExecContext with timing.
// PRE: query is non-empty
// POST: statement executed, sample recorded even on error
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := t.db.ExecContext(ctx, query, args...)
	t.observe("ExecContext", start)
	return res, err
}

// QueryContext wraps sql.DB.QueryContext with timing.
// PRE: query is non-empty
// POST: query executed, sample recorded even on error
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.observe("QueryContext", start)
	return rows, err
}

// QueryRowContext wraps sql.DB.QueryRowContext with timing.
// PRE: query is non-empty
// POST: query executed, sample recorded
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.observe("QueryRowContext", start)
	return row
}

// Close closes the underlying database, discarding all board state.
func (t *TimedDB) Close() error {
	return t.db.Close()
}
