package store

import (
	"context"
	"fmt"
)

// Store defines the interface for result persistence.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return ErrNotFound if a result doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// Save stores the result of a run, replacing any result with the same run ID.
	Save(ctx context.Context, result *Result) error

	// Load retrieves the result of the given run.
	Load(ctx context.Context, runID string) (*Result, error)

	// List returns metadata for all stored results, newest first.
	List(ctx context.Context) ([]ResultInfo, error)

	// Delete removes the result of the given run.
	Delete(ctx context.Context, runID string) error
}

// Backend names accepted by NewStore.
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
)

// NewStore opens a store of the given kind. path is the base directory for the
// filesystem backend and the database file for sqlite.
func NewStore(ctx context.Context, kind, path string) (Store, error) {
	switch kind {
	case "", BackendFS:
		return NewFSStore(path)
	case BackendSQLite:
		s := NewSQLiteStore(path)
		if err := s.Init(ctx); err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// CloseIfSupported closes stores that hold resources.
func CloseIfSupported(s Store) error {
	closer, ok := s.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}

// ErrNotFound is returned when a requested result does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing result.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	if e.RunID != "" {
		return "result not found: " + e.RunID
	}
	return "result not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
