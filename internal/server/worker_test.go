package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cwbudde/genetica/internal/config"
	"github.com/cwbudde/genetica/internal/store"
)

func TestRunJob_Success(t *testing.T) {
	results, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	jm := NewJobManager()
	job := jm.CreateJob(knapsackConfig(20), nil)

	if err := runJob(context.Background(), jm, results, job.ID); err != nil {
		t.Fatalf("runJob should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCompleted {
		t.Errorf("Job should be completed, got %s", updated.State)
	}
	if updated.Generation != 20 {
		t.Errorf("Expected generation 20, got %d", updated.Generation)
	}
	if updated.Result == nil || updated.BestFitness <= 0 {
		t.Fatal("Result and BestFitness should be set")
	}
	if updated.EndTime == nil {
		t.Error("EndTime should be set")
	}

	saved, err := results.Load(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Result should be saved: %v", err)
	}
	if saved.Fitness != updated.Result.Fitness {
		t.Errorf("Saved fitness %v does not match job fitness %v", saved.Fitness, updated.Result.Fitness)
	}
}

func TestRunJob_Sentence(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Generations = 10
	cfg.Run.Population = 10
	cfg.Run.Seed = 3
	cfg.Sentence.WordCount = 3

	jm := NewJobManager()
	job := jm.CreateJob(cfg, nil)

	if err := runJob(context.Background(), jm, nil, job.ID); err != nil {
		t.Fatalf("runJob should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCompleted {
		t.Fatalf("Job should be completed, got %s", updated.State)
	}
	if sentence, _ := updated.Result.Details["sentence"].(string); sentence == "" {
		t.Error("Sentence detail should be set")
	}
}

func TestRunJob_InvalidConfig(t *testing.T) {
	cfg := knapsackConfig(20)
	cfg.Run.Population = 1

	jm := NewJobManager()
	job := jm.CreateJob(cfg, nil)

	err := runJob(context.Background(), jm, nil, job.ID)
	if err == nil {
		t.Error("runJob should fail with an invalid config")
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateFailed {
		t.Errorf("Job should be failed, got %s", updated.State)
	}
	if updated.Error == "" {
		t.Error("Error message should be set")
	}
}

func TestRunJob_CancelledWhilePending(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(knapsackConfig(20), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runJob(ctx, jm, nil, job.ID)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCancelled {
		t.Errorf("Job should be cancelled, got %s", updated.State)
	}
}

func TestRunJob_Cancellation(t *testing.T) {
	results, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	jm := NewJobManager()
	job := jm.CreateJob(knapsackConfig(10_000_000), nil)
	events := jm.broadcaster.Subscribe(job.ID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- runJob(ctx, jm, results, job.ID)
	}()

	// Cancel once the run has made progress
	timeout := time.After(10 * time.Second)
	for started := false; !started; {
		select {
		case event := <-events:
			started = event.Generation > 0
		case <-timeout:
			t.Fatal("Job did not report progress in time")
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Job did not stop after cancellation")
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCancelled {
		t.Errorf("Job should be cancelled, got %s", updated.State)
	}
	if updated.Result == nil || !updated.Result.Stopped {
		t.Fatal("Cancelled job should keep the stopped outcome")
	}

	saved, err := results.Load(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Stopped result should be saved: %v", err)
	}
	if !saved.Stopped {
		t.Error("Saved result should be marked stopped")
	}
}

func TestRunJob_NotFound(t *testing.T) {
	if err := runJob(context.Background(), NewJobManager(), nil, "nonexistent"); err == nil {
		t.Error("runJob should fail for an unknown job")
	}
}
