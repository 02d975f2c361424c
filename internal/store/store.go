// internal/store/store.go

// Package store persists analysis sessions in a local sqlite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the requested analysis does not exist.
var ErrNotFound = errors.New("analysis not found")

// Analysis lifecycle states.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Record is one analysis session.
type Record struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Video     string          `json:"video"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Summary   json.RawMessage `json:"summary,omitempty"`
	Result    json.RawMessage `json:"-"` // full result blob, loaded on demand
}

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL,
	video      TEXT NOT NULL,
	status     TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	summary    TEXT,
	result     TEXT
);
CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);
`

// Open opens (and if needed initializes) the database at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// sqlite allows one writer; serialize access through one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new pending analysis.
func (s *Store) Create(ctx context.Context, id, video string) (*Record, error) {
	rec := &Record{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Video:     video,
		Status:    StatusPending,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, created_at, video, status) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt, rec.Video, rec.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting analysis: %w", err)
	}
	return rec, nil
}

// SetStatus transitions an analysis to a new status, recording the error
// message for failures.
func (s *Store) SetStatus(ctx context.Context, id, status, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET status = ?, error = ? WHERE id = ?`,
		status, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return checkAffected(res)
}

// SetResult stores the completed analysis result and summary, and marks the
// analysis done.
func (s *Store) SetResult(ctx context.Context, id string, summary, result any) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET status = ?, error = '', summary = ?, result = ? WHERE id = ?`,
		StatusDone, string(summaryJSON), string(resultJSON), id,
	)
	if err != nil {
		return fmt.Errorf("updating result: %w", err)
	}
	return checkAffected(res)
}

// Get returns one analysis without its result blob.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, video, status, error, COALESCE(summary, '') FROM analyses WHERE id = ?`, id)
	return scanRecord(row)
}

// GetResult returns the raw result blob of a completed analysis.
func (s *Store) GetResult(ctx context.Context, id string) (json.RawMessage, error) {
	var result sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM analyses WHERE id = ?`, id).Scan(&result)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying result: %w", err)
	}
	if !result.Valid || result.String == "" {
		return nil, fmt.Errorf("%w: no result stored", ErrNotFound)
	}
	return json.RawMessage(result.String), nil
}

// List returns analyses newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, video, status, error, COALESCE(summary, '')
		 FROM analyses ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	return records, nil
}

// Delete removes an analysis.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting analysis: %w", err)
	}
	return checkAffected(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	rec := &Record{}
	var summary string
	err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.Video, &rec.Status, &rec.Error, &summary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning analysis: %w", err)
	}
	if summary != "" {
		rec.Summary = json.RawMessage(summary)
	}
	return rec, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
