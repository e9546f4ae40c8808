package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/genetica/internal/config"
	"github.com/cwbudde/genetica/internal/runner"
)

// JobState represents the current state of a job
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// Terminal reports whether a job in this state will not change again.
func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// ErrJobFinished is returned when cancelling a job that already reached a terminal state.
var ErrJobFinished = errors.New("job already finished")

// Job represents an evolution run submitted over HTTP
type Job struct {
	ID          string          `json:"id"`
	State       JobState        `json:"state"`
	Config      config.Config   `json:"config"`
	Generation  int             `json:"generation"`
	BestFitness float64         `json:"bestFitness"`
	MeanFitness float64         `json:"meanFitness"`
	Result      *runner.Outcome `json:"result,omitempty"`
	StartTime   time.Time       `json:"startTime"`
	EndTime     *time.Time      `json:"endTime,omitempty"`
	Error       string          `json:"error,omitempty"`

	cancel context.CancelFunc
}

// Elapsed is the wall time of the job so far, or its total once finished.
func (j *Job) Elapsed() time.Duration {
	if j.EndTime != nil {
		return j.EndTime.Sub(j.StartTime)
	}
	return time.Since(j.StartTime)
}

// JobManager manages the lifecycle of jobs
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	broadcaster *EventBroadcaster
	metrics     *Metrics
}

// NewJobManager creates a new JobManager with its own metrics registry
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		broadcaster: NewEventBroadcaster(),
		metrics:     NewMetrics(),
	}
}

// CreateJob registers a pending job for cfg. cancel, when non-nil, is invoked by
// CancelJob to stop the run.
func (jm *JobManager) CreateJob(cfg config.Config, cancel context.CancelFunc) *Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    cfg,
		StartTime: time.Now(),
		cancel:    cancel,
	}

	jm.jobs[job.ID] = job
	jm.metrics.jobCreated()

	snapshot := *job
	return &snapshot
}

// GetJob returns a snapshot of the job with the given ID
func (jm *JobManager) GetJob(id string) (*Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}

// ListJobs returns snapshots of all jobs, oldest first
func (jm *JobManager) ListJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]*Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		snapshot := *job
		jobs = append(jobs, &snapshot)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartTime.Before(jobs[j].StartTime)
	})
	return jobs
}

// UpdateJob atomically updates a job using the provided function
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	before := job.State
	updateFn(job)
	if job.State != before {
		jm.metrics.transition(before, job.State)
	}
	return nil
}

// CancelJob asks a pending or running job to stop at its next generation boundary.
func (jm *JobManager) CancelJob(id string) error {
	jm.mu.RLock()
	job, exists := jm.jobs[id]
	var (
		state  JobState
		cancel context.CancelFunc
	)
	if exists {
		state, cancel = job.State, job.cancel
	}
	jm.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}
	if state.Terminal() {
		return fmt.Errorf("cannot cancel job %s: %w", id, ErrJobFinished)
	}
	if cancel != nil {
		cancel()
	}
	return nil
}

// GetRunningJobs returns all jobs currently in the running state
func (jm *JobManager) GetRunningJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	runningJobs := make([]*Job, 0)
	for _, job := range jm.jobs {
		if job.State == StateRunning {
			snapshot := *job
			runningJobs = append(runningJobs, &snapshot)
		}
	}
	return runningJobs
}
