package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/genetica/internal/config"
)

func knapsackConfig(generations int) config.Config {
	cfg := config.Default()
	cfg.Run.Problem = config.ProblemKnapsack
	cfg.Run.Generations = generations
	cfg.Run.Population = 10
	cfg.Run.Seed = 42
	return cfg
}

func TestJobManager_CreateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(knapsackConfig(20), nil)

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}

	if job.State != StatePending {
		t.Errorf("Initial state should be pending, got %s", job.State)
	}

	if job.Config.Run.Problem != config.ProblemKnapsack {
		t.Errorf("Config not set correctly")
	}
}

func TestJobManager_GetJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(knapsackConfig(20), nil)

	retrieved, exists := jm.GetJob(job.ID)
	if !exists {
		t.Fatal("Job should exist")
	}

	if retrieved.ID != job.ID {
		t.Error("Retrieved wrong job")
	}

	_, exists = jm.GetJob("nonexistent")
	if exists {
		t.Error("Should not find nonexistent job")
	}
}

func TestJobManager_GetJobReturnsSnapshot(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(knapsackConfig(20), nil)

	snapshot, _ := jm.GetJob(job.ID)
	snapshot.State = StateFailed

	current, _ := jm.GetJob(job.ID)
	if current.State != StatePending {
		t.Errorf("Mutating a snapshot should not change the job, got %s", current.State)
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	jm := NewJobManager()

	if len(jm.ListJobs()) != 0 {
		t.Error("Should start with no jobs")
	}

	first := jm.CreateJob(knapsackConfig(20), nil)
	time.Sleep(time.Millisecond)
	second := jm.CreateJob(knapsackConfig(30), nil)

	jobs := jm.ListJobs()
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != first.ID || jobs[1].ID != second.ID {
		t.Error("Jobs should be listed oldest first")
	}
}

func TestJobManager_UpdateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(knapsackConfig(20), nil)

	err := jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.Generation = 10
		j.BestFitness = 123.45
	})

	if err != nil {
		t.Errorf("Update should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateRunning {
		t.Error("State should be updated")
	}
	if updated.Generation != 10 {
		t.Error("Generation should be updated")
	}
	if updated.BestFitness != 123.45 {
		t.Error("BestFitness should be updated")
	}

	if len(jm.GetRunningJobs()) != 1 {
		t.Error("Expected one running job")
	}

	err = jm.UpdateJob("nonexistent", func(j *Job) {})
	if err == nil {
		t.Error("Update of nonexistent job should fail")
	}
}

func TestJobManager_CancelJob(t *testing.T) {
	jm := NewJobManager()

	ctx, cancel := context.WithCancel(context.Background())
	job := jm.CreateJob(knapsackConfig(20), cancel)

	if err := jm.CancelJob(job.ID); err != nil {
		t.Fatalf("Cancel should succeed: %v", err)
	}
	if ctx.Err() == nil {
		t.Error("Cancel should cancel the job context")
	}

	jm.UpdateJob(job.ID, func(j *Job) { j.State = StateCancelled })
	err := jm.CancelJob(job.ID)
	if !errors.Is(err, ErrJobFinished) {
		t.Errorf("Expected ErrJobFinished, got %v", err)
	}

	if err := jm.CancelJob("nonexistent"); err == nil {
		t.Error("Cancel of nonexistent job should fail")
	}
}

func TestJobManager_ThreadSafety(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(knapsackConfig(20), nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(generation int) {
			defer wg.Done()
			jm.UpdateJob(job.ID, func(j *Job) {
				j.Generation = generation
				time.Sleep(1 * time.Millisecond)
			})
			jm.GetJob(job.ID)
			jm.ListJobs()
		}(i)
	}
	wg.Wait()

	_, exists := jm.GetJob(job.ID)
	if !exists {
		t.Error("Job should still exist after concurrent updates")
	}
}

func TestJobStateTerminal(t *testing.T) {
	cases := map[JobState]bool{
		StatePending:   false,
		StateRunning:   false,
		StateCompleted: true,
		StateFailed:    true,
		StateCancelled: true,
	}
	for state, want := range cases {
		if got := state.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", state, got, want)
		}
	}
}
