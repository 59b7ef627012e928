// Package store provides a SQLite-backed log of answered questions. Each
// successful /chat exchange is recorded with its retrieval provenance so
// operators can review what was asked and how well the index matched.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Disabled is the FINDAI_HISTORY_DB value that turns the log off.
const Disabled = "disabled"

// Exchange is one answered question.
type Exchange struct {
	// ID is the row identifier, assigned on Append.
	ID int64
	// RequestID correlates the row with request logs. May be empty.
	RequestID string
	// Question is the trimmed question text.
	Question string
	// Answer is the generated answer.
	Answer string
	// SourcesCount is the number of passages handed to the generator.
	SourcesCount int
	// TopScore is the similarity of the best passage.
	TopScore float64
	// CreatedAt is when the exchange was persisted.
	CreatedAt time.Time
}

// ExchangeLog persists and lists exchanges. Implementations must be safe for
// concurrent use.
type ExchangeLog interface {
	// Append persists e. ID and CreatedAt are ignored.
	Append(ctx context.Context, e Exchange) error
	// Recent returns up to n exchanges, newest first.
	Recent(ctx context.Context, n int) ([]Exchange, error)
	// Close releases any resources held by the log.
	Close() error
}

// SQLiteStore is an ExchangeLog backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultDBPath returns ~/.findai/history.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".findai")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// ResolvePath maps a FINDAI_HISTORY_DB value to a database path. It returns
// "" when the log is disabled and the default path when v is empty.
func ResolvePath(v string) (string, error) {
	switch v {
	case Disabled:
		return "", nil
	case "":
		return DefaultDBPath()
	default:
		return v, nil
	}
}

// Open opens (or creates) a SQLiteStore at path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Single writer connection; also keeps ":memory:" on one database.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS exchanges (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id    TEXT    NOT NULL DEFAULT '',
    question      TEXT    NOT NULL,
    answer        TEXT    NOT NULL,
    sources_count INTEGER NOT NULL,
    top_score     REAL    NOT NULL,
    created_at    INTEGER NOT NULL  -- Unix timestamp (milliseconds)
);
CREATE INDEX IF NOT EXISTS idx_exchanges_created ON exchanges (created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Append persists a single exchange.
func (s *SQLiteStore) Append(ctx context.Context, e Exchange) error {
	const q = `INSERT INTO exchanges (request_id, question, answer, sources_count, top_score, created_at)
VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		e.RequestID, e.Question, e.Answer, e.SourcesCount, e.TopScore, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("store: append: %w", err)
	}
	return nil
}

// Recent returns up to n exchanges, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Exchange, error) {
	const q = `
SELECT id, request_id, question, answer, sources_count, top_score, created_at
FROM   exchanges
ORDER  BY created_at DESC, id DESC
LIMIT  ?`

	rows, err := s.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	out := make([]Exchange, 0, n)
	for rows.Next() {
		var e Exchange
		var ts int64
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Question, &e.Answer, &e.SourcesCount, &e.TopScore, &ts); err != nil {
			return nil, fmt.Errorf("store: recent scan: %w", err)
		}
		e.CreatedAt = time.UnixMilli(ts)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent rows: %w", err)
	}
	return out, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
