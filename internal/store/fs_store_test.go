package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/genetica/internal/config"
)

// setupTestStore creates a temporary directory and returns an FSStore for testing.
func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}

	return store, tempDir
}

// createTestResult creates a knapsack result with test data.
func createTestResult(runID string) *Result {
	cfg := config.Default()
	cfg.Run.Problem = config.ProblemKnapsack
	return &Result{
		RunID:       runID,
		Problem:     config.ProblemKnapsack,
		Fitness:     315,
		Generations: 500,
		Summary:     "items [1 4 5 7] value=315 weight=10/10",
		Genes:       json.RawMessage(`[false,true,false,false,true,true,false,true,false,false,false,false]`),
		Elapsed:     2 * time.Second,
		Timestamp:   time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Config:      cfg,
	}
}

func TestNewFSStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Fatal("Base directory was not created")
	}

	if _, err := NewFSStore(""); err == nil {
		t.Error("Expected error for empty base directory")
	}
}

func TestFSStore_SaveLayout(t *testing.T) {
	store, tempDir := setupTestStore(t)

	if err := store.Save(context.Background(), createTestResult("run-123")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "runs", "run-123", "result.json")
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Fatalf("Result file was not created at %s", expectedPath)
	}

	tempPath := expectedPath + ".tmp"
	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Errorf("Temp file should not exist after save: %s", tempPath)
	}
}

func TestFSStore_ListSkipsInvalidEntries(t *testing.T) {
	store, tempDir := setupTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, createTestResult("valid-run")); err != nil {
		t.Fatalf("Failed to save valid result: %v", err)
	}

	runsDir := filepath.Join(tempDir, "runs")
	if err := os.MkdirAll(filepath.Join(runsDir, "empty-run"), 0755); err != nil {
		t.Fatalf("Failed to create empty run directory: %v", err)
	}
	corruptDir := filepath.Join(runsDir, "corrupt-run")
	if err := os.MkdirAll(corruptDir, 0755); err != nil {
		t.Fatalf("Failed to create corrupt run directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(corruptDir, "result.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write corrupt result: %v", err)
	}
	if err := os.WriteFile(filepath.Join(runsDir, "dummy.txt"), []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create dummy file: %v", err)
	}

	infos, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 1 || infos[0].RunID != "valid-run" {
		t.Errorf("Expected only valid-run, got %+v", infos)
	}
}

func TestFSStore_CancelledContext(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Save(ctx, createTestResult("run-cancel")); err == nil {
		t.Error("Expected error saving with cancelled context")
	}
}
