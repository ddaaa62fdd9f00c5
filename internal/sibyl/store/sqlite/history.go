package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vantle/sibyl/internal/sibyl/react"
)

const schema = `
CREATE TABLE IF NOT EXISTS query_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	question    TEXT    NOT NULL,
	final_sql   TEXT    NOT NULL DEFAULT '',
	status      TEXT    NOT NULL,
	error       TEXT    NOT NULL DEFAULT '',
	row_count   INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_query_history_created_at ON query_history(created_at);
`

// HistoryEntry is one row of query history.
type HistoryEntry struct {
	ID         int64
	Question   string
	FinalSQL   string
	Status     react.Status
	Error      string
	RowCount   int
	DurationMs int64
	CreatedAt  time.Time
}

// HistoryStore records finished turns in a local SQLite database.
type HistoryStore struct {
	db *sql.DB
}

// Open opens the history database, creating the schema if needed.
func Open(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return &HistoryStore{db: db}, nil
}

// Close closes the underlying database.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// Record inserts one finished turn and returns its row id.
func (s *HistoryStore) Record(ctx context.Context, state *react.TurnState) (int64, error) {
	if !state.Status.Terminal() {
		return 0, fmt.Errorf("turn is %q, only finished turns are recorded", state.Status)
	}

	var rowCount int
	var durationMs int64
	if state.ExecutionResult != nil {
		rowCount = state.ExecutionResult.RowCount
		durationMs = state.ExecutionResult.DurationMs
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO query_history (question, final_sql, status, error, row_count, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		state.Question, state.FinalSQL, string(state.Status), state.Err, rowCount, durationMs, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to record history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

// List returns history rows, newest first. limit <= 0 returns all.
func (s *HistoryStore) List(ctx context.Context, limit int) ([]HistoryEntry, error) {
	query := `SELECT id, question, final_sql, status, error, row_count, duration_ms, created_at
		  FROM query_history ORDER BY created_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.query(ctx, query, args...)
}

// Search returns rows whose question or SQL contains the term, newest first.
func (s *HistoryStore) Search(ctx context.Context, term string, limit int) ([]HistoryEntry, error) {
	if term == "" {
		return s.List(ctx, limit)
	}
	pattern := "%" + term + "%"
	query := `SELECT id, question, final_sql, status, error, row_count, duration_ms, created_at
		  FROM query_history
		  WHERE question LIKE ? OR final_sql LIKE ?
		  ORDER BY created_at DESC, id DESC`
	args := []interface{}{pattern, pattern}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.query(ctx, query, args...)
}

func (s *HistoryStore) query(ctx context.Context, query string, args ...interface{}) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var status string
		if err := rows.Scan(&e.ID, &e.Question, &e.FinalSQL, &status, &e.Error, &e.RowCount, &e.DurationMs, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Status = react.Status(status)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return entries, nil
}
