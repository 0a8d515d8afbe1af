// Package history records every import run in Postgres so operators can
// see when each table was last refreshed, from which file, and how many
// cells were coerced to null.
//
// Recording is optional. When no database is configured the Nop recorder
// is used and runs are only logged.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultLimit is the number of runs returned by Recent when no limit is given.
const DefaultLimit = 50

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
}

// Status is the outcome of one import.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Entry is one recorded import run.
type Entry struct {
	RunID     uuid.UUID
	TableKey  string
	Input     string
	Output    string
	Status    Status
	RowsIn    int
	RowsOut   int
	Columns   int
	Nulls     int
	Error     string
	StartedAt time.Time
	Duration  time.Duration
}

// Recorder stores import runs.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Nop discards entries.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Entry) error { return nil }

const schemaSQL = `
CREATE TABLE IF NOT EXISTS import_runs (
	run_id      UUID PRIMARY KEY,
	table_key   TEXT NOT NULL,
	input_path  TEXT NOT NULL,
	output_path TEXT NOT NULL,
	status      TEXT NOT NULL,
	rows_in     BIGINT NOT NULL,
	rows_out    BIGINT NOT NULL,
	columns     INTEGER NOT NULL,
	nulls       BIGINT NOT NULL,
	error       TEXT,
	started_at  TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS import_runs_table_started_idx ON import_runs (table_key, started_at DESC);`

const insertSQL = `
INSERT INTO import_runs (
	run_id, table_key, input_path, output_path, status,
	rows_in, rows_out, columns, nulls, error, started_at, duration_ms
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const recentSQL = `
SELECT run_id, table_key, input_path, output_path, status,
	rows_in, rows_out, columns, nulls, error, started_at, duration_ms
FROM import_runs
WHERE ($1 = '' OR table_key = $1)
ORDER BY started_at DESC
LIMIT $2`

// Store records runs in the import_runs table.
type Store struct {
	db DBTX
}

// NewStore returns a Store backed by db.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// Connect opens a pool and checks that the database answers.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the import_runs table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create import_runs: %w", err)
	}
	return nil
}

// Record inserts one run.
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.Exec(ctx, insertSQL,
		pgtype.UUID{Bytes: e.RunID, Valid: e.RunID != uuid.Nil},
		e.TableKey,
		e.Input,
		e.Output,
		string(e.Status),
		int64(e.RowsIn),
		int64(e.RowsOut),
		int32(e.Columns),
		int64(e.Nulls),
		toPgText(e.Error),
		pgtype.Timestamptz{Time: e.StartedAt, Valid: !e.StartedAt.IsZero()},
		e.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", e.RunID, err)
	}
	return nil
}

// Recent returns the latest runs, newest first. An empty tableKey returns
// runs for every table.
func (s *Store) Recent(ctx context.Context, tableKey string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.Query(ctx, recentSQL, tableKey, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			id         pgtype.UUID
			status     string
			rowsIn     int64
			rowsOut    int64
			columns    int32
			nulls      int64
			errText    pgtype.Text
			startedAt  pgtype.Timestamptz
			durationMS int64
		)
		if err := rows.Scan(&id, &e.TableKey, &e.Input, &e.Output, &status,
			&rowsIn, &rowsOut, &columns, &nulls, &errText, &startedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.RunID = uuid.UUID(id.Bytes)
		e.Status = Status(status)
		e.RowsIn, e.RowsOut, e.Columns, e.Nulls = int(rowsIn), int(rowsOut), int(columns), int(nulls)
		e.Error = errText.String
		e.StartedAt = startedAt.Time
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}
	return entries, nil
}

// toPgText converts a string to pgtype.Text. Empty strings are stored as NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}
