package store

import (
	"encoding/json"
	"time"

	"github.com/cwbudde/genetica/internal/config"
)

// Result is the durable record of a finished run: its best individual and the
// configuration that produced it. Intermediate generations are never persisted.
type Result struct {
	// RunID is the unique identifier of the run
	RunID string `json:"runId"`

	// Problem names the problem domain (knapsack, sentence)
	Problem string `json:"problem"`

	// Fitness of the best individual
	Fitness float64 `json:"fitness"`

	// Generations is the number of completed recombination steps
	Generations int `json:"generations"`

	// Summary is the decoded, human-readable form of the best individual
	Summary string `json:"summary"`

	// Genes holds the best individual's genes, encoded by the problem
	Genes json.RawMessage `json:"genes"`

	// Details carries problem-specific figures such as total weight or structure
	Details map[string]any `json:"details,omitempty"`

	// Stopped is set when the run was cancelled before its final generation
	Stopped bool `json:"stopped,omitempty"`

	// Elapsed is the wall-clock duration of the run
	Elapsed time.Duration `json:"elapsed"`

	// Timestamp records when the result was created
	Timestamp time.Time `json:"timestamp"`

	// Config is the run configuration
	Config config.Config `json:"config"`
}

// ResultInfo contains listing metadata without genes or configuration.
type ResultInfo struct {
	RunID       string    `json:"runId"`
	Problem     string    `json:"problem"`
	Fitness     float64   `json:"fitness"`
	Generations int       `json:"generations"`
	Summary     string    `json:"summary"`
	Timestamp   time.Time `json:"timestamp"`
}

// ToInfo converts a Result to its listing metadata.
func (r *Result) ToInfo() ResultInfo {
	return ResultInfo{
		RunID:       r.RunID,
		Problem:     r.Problem,
		Fitness:     r.Fitness,
		Generations: r.Generations,
		Summary:     r.Summary,
		Timestamp:   r.Timestamp,
	}
}

// Validate checks if the result has valid data.
func (r *Result) Validate() error {
	if r.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	switch r.Problem {
	case config.ProblemKnapsack, config.ProblemSentence:
	case "":
		return &ValidationError{Field: "Problem", Reason: "cannot be empty"}
	default:
		return &ValidationError{Field: "Problem", Reason: "unknown problem " + r.Problem}
	}
	if len(r.Genes) == 0 {
		return &ValidationError{Field: "Genes", Reason: "cannot be empty"}
	}
	if !json.Valid(r.Genes) {
		return &ValidationError{Field: "Genes", Reason: "must be valid JSON"}
	}
	if r.Generations < 0 {
		return &ValidationError{Field: "Generations", Reason: "cannot be negative"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if r.Config.Run.Problem != r.Problem {
		return &ValidationError{Field: "Config.Run.Problem", Reason: "does not match Problem"}
	}
	return nil
}

// ValidationError represents a result validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
