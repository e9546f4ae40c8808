package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func compactJSON(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		t.Fatalf("Invalid JSON %q: %v", raw, err)
	}
	return buf.String()
}

// backends returns one freshly opened store per backend.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	fs, err := NewStore(ctx, BackendFS, t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open fs store: %v", err)
	}
	sqlite, err := NewStore(ctx, BackendSQLite, filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() {
		if err := CloseIfSupported(sqlite); err != nil {
			t.Errorf("Failed to close sqlite store: %v", err)
		}
	})

	return map[string]Store{BackendFS: fs, BackendSQLite: sqlite}
}

func TestStore_SaveAndLoad(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			original := createTestResult("run-load")

			if err := s.Save(ctx, original); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			loaded, err := s.Load(ctx, original.RunID)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			if loaded.RunID != original.RunID || loaded.Fitness != original.Fitness {
				t.Errorf("Loaded result mismatch: %+v", loaded)
			}
			if compactJSON(t, loaded.Genes) != compactJSON(t, original.Genes) {
				t.Errorf("Genes mismatch: expected %s, got %s", original.Genes, loaded.Genes)
			}
			if loaded.Config.Run.Problem != original.Config.Run.Problem {
				t.Errorf("Config mismatch: expected %s, got %s", original.Config.Run.Problem, loaded.Config.Run.Problem)
			}
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first := createTestResult("run-overwrite")
			first.Fitness = 100
			second := createTestResult("run-overwrite")
			second.Fitness = 300

			if err := s.Save(ctx, first); err != nil {
				t.Fatalf("First save failed: %v", err)
			}
			if err := s.Save(ctx, second); err != nil {
				t.Fatalf("Second save failed: %v", err)
			}

			loaded, err := s.Load(ctx, "run-overwrite")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if loaded.Fitness != 300 {
				t.Errorf("Expected Fitness=300, got %f", loaded.Fitness)
			}
		})
	}
}

func TestStore_RejectsInvalidResults(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Save(ctx, nil); err == nil {
				t.Error("Expected error for nil result")
			}
			bad := createTestResult("")
			if err := s.Save(ctx, bad); err == nil {
				t.Error("Expected error for empty run ID")
			}
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Load(ctx, "missing-run")
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound from Load, got %v", err)
			}
			if err := s.Delete(ctx, "missing-run"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound from Delete, got %v", err)
			}
		})
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			infos, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(infos) != 0 {
				t.Fatalf("Expected empty list, got %d results", len(infos))
			}

			base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			for i, id := range []string{"run-a", "run-b", "run-c"} {
				r := createTestResult(id)
				r.Timestamp = base.Add(time.Duration(i) * time.Hour)
				if err := s.Save(ctx, r); err != nil {
					t.Fatalf("Failed to save %s: %v", id, err)
				}
			}

			infos, err = s.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(infos) != 3 {
				t.Fatalf("Expected 3 results, got %d", len(infos))
			}
			want := []string{"run-c", "run-b", "run-a"}
			for i, info := range infos {
				if info.RunID != want[i] {
					t.Errorf("Position %d: expected %s, got %s", i, want[i], info.RunID)
				}
			}
			if !infos[0].Timestamp.Equal(base.Add(2 * time.Hour)) {
				t.Errorf("Timestamp mismatch: %v", infos[0].Timestamp)
			}
		})
	}
}

func TestStore_Delete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Save(ctx, createTestResult("run-delete")); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if err := s.Delete(ctx, "run-delete"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, err := s.Load(ctx, "run-delete"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestNewStore_UnknownBackend(t *testing.T) {
	if _, err := NewStore(context.Background(), "redis", t.TempDir()); err == nil {
		t.Fatal("Expected error for unsupported backend")
	}
}

func TestSQLiteStore_RequiresInit(t *testing.T) {
	s := NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"))
	if _, err := s.List(context.Background()); err == nil {
		t.Error("Expected error before Init")
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close on uninitialised store should succeed: %v", err)
	}
	if err := NewSQLiteStore("").Init(context.Background()); err == nil {
		t.Error("Expected error for empty path")
	}
}

func TestCloseIfSupported_FSStore(t *testing.T) {
	s, _ := setupTestStore(t)
	if err := CloseIfSupported(s); err != nil {
		t.Errorf("FSStore has nothing to close, got %v", err)
	}
}
