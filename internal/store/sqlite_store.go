package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps results in a single SQLite database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore returns a store for the database at path. Call Init before use.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init opens the database and creates the results table.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS results (
			run_id TEXT PRIMARY KEY,
			problem TEXT NOT NULL,
			fitness REAL NOT NULL,
			generations INTEGER NOT NULL,
			summary TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create results table: %w", err)
	}

	s.db = db
	return nil
}

// Save upserts the result of a run.
func (s *SQLiteStore) Save(ctx context.Context, result *Result) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}
	if err := result.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid result: %w", err)
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO results (run_id, problem, fitness, generations, summary, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			problem = excluded.problem,
			fitness = excluded.fitness,
			generations = excluded.generations,
			summary = excluded.summary,
			created_at = excluded.created_at,
			payload = excluded.payload
	`, result.RunID, result.Problem, result.Fitness, result.Generations, result.Summary,
		result.Timestamp.UnixNano(), payload)
	if err != nil {
		return fmt.Errorf("failed to save result %s: %w", result.RunID, err)
	}
	return nil
}

// Load retrieves the result of the given run.
func (s *SQLiteStore) Load(ctx context.Context, runID string) (*Result, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM results WHERE run_id = ?`, runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{RunID: runID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load result %s: %w", runID, err)
	}

	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", runID, err)
	}
	return &result, nil
}

// List returns metadata for all results, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]ResultInfo, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id, problem, fitness, generations, summary, created_at
		FROM results
		ORDER BY created_at DESC, run_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	infos := []ResultInfo{}
	for rows.Next() {
		var info ResultInfo
		var created int64
		if err := rows.Scan(&info.RunID, &info.Problem, &info.Fitness, &info.Generations, &info.Summary, &created); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		info.Timestamp = time.Unix(0, created)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes the result of the given run.
func (s *SQLiteStore) Delete(ctx context.Context, runID string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `DELETE FROM results WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete result %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &NotFoundError{RunID: runID}
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}
