package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/genetica/internal/evo"
	"github.com/cwbudde/genetica/internal/runner"
	"github.com/cwbudde/genetica/internal/store"
)

// runJob executes an evolution job in the background.
// If results is not nil the final outcome, including that of a cancelled run, is saved.
func runJob(ctx context.Context, jm *JobManager, results store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}
	defer jm.broadcaster.CleanupJob(jobID)

	// Cancelled while still pending
	if err := ctx.Err(); err != nil {
		finishJob(jm, jobID, StateCancelled, nil, nil)
		return err
	}

	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}

	cfg := job.Config
	logger := slog.Default().With("job_id", jobID)
	logger.Info("Starting job", "problem", cfg.Run.Problem, "generations", cfg.Run.Generations)

	observer := func(s evo.GenerationStats) {
		jm.UpdateJob(jobID, func(j *Job) {
			j.Generation = s.Generation
			j.BestFitness = s.Best
			j.MeanFitness = s.Mean
		})
		jm.metrics.generation(jobID, s.Best)
		jm.broadcaster.Broadcast(ProgressEvent{
			JobID:       jobID,
			State:       StateRunning,
			Generation:  s.Generation,
			BestFitness: s.Best,
			MeanFitness: s.Mean,
			StdDev:      s.StdDev,
			Elapsed:     s.Elapsed,
			Timestamp:   time.Now(),
		})
	}

	outcome, runErr := runner.Run(ctx, &cfg, runner.Options{
		RunID:    jobID,
		Observer: observer,
		Logger:   logger,
	})
	if outcome == nil {
		finishJob(jm, jobID, StateFailed, nil, runErr)
		return runErr
	}

	if results != nil {
		if err := results.Save(context.WithoutCancel(ctx), outcome.Result(&cfg)); err != nil {
			logger.Error("Failed to save result", "error", err)
		}
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			finishJob(jm, jobID, StateCancelled, outcome, nil)
		} else {
			finishJob(jm, jobID, StateFailed, outcome, runErr)
		}
		return runErr
	}

	finishJob(jm, jobID, StateCompleted, outcome, nil)
	logger.Info("Job completed",
		"generations", outcome.Generations,
		"best_fitness", outcome.Fitness,
		"summary", outcome.Summary,
		"elapsed", outcome.Elapsed,
	)
	return nil
}

// finishJob moves a job into a terminal state and broadcasts the final event.
func finishJob(jm *JobManager, jobID string, state JobState, outcome *runner.Outcome, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = state
		j.EndTime = &endTime
		jm.metrics.jobFinished(jobID, endTime.Sub(j.StartTime))
		if outcome != nil {
			j.Result = outcome
			j.Generation = outcome.Generations
			j.BestFitness = outcome.Fitness
		}
		if err != nil {
			j.Error = err.Error()
		}
	})

	job, exists := jm.GetJob(jobID)
	if !exists {
		return
	}
	jm.broadcaster.Broadcast(progressOf(job))

	switch state {
	case StateFailed:
		slog.Error("Job failed", "job_id", jobID, "error", err)
	case StateCancelled:
		slog.Info("Job cancelled", "job_id", jobID, "generation", job.Generation)
	}
}
