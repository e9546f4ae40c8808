// Package tune searches for crossover and mutation probabilities that maximise the
// mean best fitness of a configuration.
package tune

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/genetica/internal/config"
	"github.com/cwbudde/genetica/internal/opt"
	"github.com/cwbudde/genetica/internal/problem/sentence"
	"github.com/cwbudde/genetica/internal/runner"
)

// Config controls the meta-optimisation.
type Config struct {
	// Iterations of the outer mayfly search
	Iterations int
	// Population of the outer mayfly search (raised to the mayfly minimum)
	Population int
	// Replicas is the number of seeded runs averaged per candidate
	Replicas int
	// Workers bounds concurrent replica runs (0 = NumCPU)
	Workers int
	// Seed drives both the outer search and the replica seeds
	Seed int64
}

// DefaultConfig returns a small search suitable for interactive use.
func DefaultConfig() Config {
	return Config{
		Iterations: 20,
		Population: opt.MinMayflyPopulation,
		Replicas:   4,
		Seed:       1,
	}
}

// Result is the best rate pair found.
type Result struct {
	CrossoverProbability float64       `json:"crossoverProbability"`
	MutationProbability  float64       `json:"mutationProbability"`
	MeanFitness          float64       `json:"meanFitness"`
	Evaluations          int64         `json:"evaluations"`
	Elapsed              time.Duration `json:"elapsed"`
}

// Tune minimises the negated mean best fitness over (crossover, mutation) in [0, 1]².
func Tune(ctx context.Context, base *config.Config, cfg Config, logger *slog.Logger) (*Result, error) {
	if base == nil {
		return nil, fmt.Errorf("base config is required")
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if cfg.Replicas < 1 {
		return nil, fmt.Errorf("replicas must be positive, got %d", cfg.Replicas)
	}
	if cfg.Iterations < 1 {
		return nil, fmt.Errorf("iterations must be positive, got %d", cfg.Iterations)
	}
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var lex *sentence.Lexicon
	if base.Run.Problem == config.ProblemSentence {
		var err error
		if lex, err = runner.LoadLexicon(base); err != nil {
			return nil, err
		}
	}

	pool := pond.New(workers, cfg.Replicas*2)
	defer pool.StopAndWait()

	t := &tuner{
		ctx:     ctx,
		base:    base,
		cfg:     cfg,
		pool:    pool,
		lexicon: lex,
		logger:  logger,
	}

	start := time.Now()
	optimizer := opt.NewMayfly(cfg.Iterations, cfg.Population, cfg.Seed)
	params, cost, err := optimizer.Minimize(t.objective, []opt.Bound{
		{Name: "crossover_probability", Lower: 0, Upper: 1},
		{Name: "mutation_probability", Lower: 0, Upper: 1},
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := t.failure(); err != nil {
		return nil, err
	}

	result := &Result{
		CrossoverProbability: params[0],
		MutationProbability:  params[1],
		MeanFitness:          -cost,
		Evaluations:          t.evaluations.Load(),
		Elapsed:              time.Since(start),
	}
	logger.Info("Tuning complete",
		"crossover_probability", result.CrossoverProbability,
		"mutation_probability", result.MutationProbability,
		"mean_fitness", result.MeanFitness,
		"evaluations", result.Evaluations,
		"elapsed", result.Elapsed,
	)
	return result, nil
}

type tuner struct {
	ctx     context.Context
	base    *config.Config
	cfg     Config
	pool    *pond.WorkerPool
	lexicon *sentence.Lexicon
	logger  *slog.Logger

	evaluations atomic.Int64

	mu  sync.Mutex
	err error
}

// objective runs the replicas for one candidate and returns the negated mean of
// their best fitness. Failed or cancelled candidates cost +Inf.
func (t *tuner) objective(params []float64) float64 {
	if t.ctx.Err() != nil || t.failure() != nil {
		return math.Inf(1)
	}
	t.evaluations.Add(1)

	scores := make([]float64, t.cfg.Replicas)
	group := t.pool.Group()
	for r := range scores {
		cfg := *t.base
		cfg.Run.CrossoverProbability = params[0]
		cfg.Run.MutationProbability = params[1]
		cfg.Run.Seed = uint64(t.cfg.Seed)*1000003 + uint64(r) + 1
		cfg.Run.Parallelism = 1

		group.Submit(func() {
			outcome, err := runner.Run(t.ctx, &cfg, runner.Options{
				Logger:  t.logger,
				Lexicon: t.lexicon,
			})
			if err != nil {
				t.fail(err)
				return
			}
			scores[r] = outcome.Fitness
		})
	}
	group.Wait()

	if t.ctx.Err() != nil || t.failure() != nil {
		return math.Inf(1)
	}
	mean := stat.Mean(scores, nil)
	t.logger.Debug("Evaluated rates",
		"crossover_probability", params[0],
		"mutation_probability", params[1],
		"mean_fitness", mean,
	)
	return -mean
}

func (t *tuner) fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.err = err
	}
}

func (t *tuner) failure() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
