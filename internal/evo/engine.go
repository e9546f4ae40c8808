// Package evo implements the generational evolution loop: individuals made of genes,
// single-point crossover, per-gene mutation and an elitist population manager that
// evaluates fitness in parallel.
package evo

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"time"
)

const (
	// EliteCount is the number of top-ranked individuals carried forward unchanged.
	EliteCount = 2
	// MinPopulationSize leaves room for the elites and their two children.
	MinPopulationSize = EliteCount + 2
)

// State is the position of the engine in its generation cycle.
type State int

const (
	StateNew State = iota
	StateInitialized
	StateEvaluated
	StateRanked
	StateRecombined
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateInitialized:
		return "initialized"
	case StateEvaluated:
		return "evaluated"
	case StateRanked:
		return "ranked"
	case StateRecombined:
		return "recombined"
	case StateTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds the parameters of a run.
type Config struct {
	// PopulationSize is constant across generations
	PopulationSize int
	// Generations is the number of recombination steps before the run ends
	Generations int
	// GeneCount is the length of freshly generated individuals
	GeneCount int
	// CrossoverRate is the probability that the elite pair is recombined (0-1)
	CrossoverRate float64
	// MutationRate is the per-gene replacement probability for children (0-1)
	MutationRate float64
	// Parallelism bounds concurrent fitness evaluations (0 = GOMAXPROCS)
	Parallelism int
	// Seed for random number generation (0 for random seed)
	Seed uint64
	// Convergence enables early stopping when the best fitness stalls
	Convergence ConvergenceConfig
}

// Validate checks the config for values the engine cannot run with.
func (c Config) Validate() error {
	if c.PopulationSize < MinPopulationSize {
		return fmt.Errorf("population size must be at least %d, got %d", MinPopulationSize, c.PopulationSize)
	}
	if c.Generations < 0 {
		return fmt.Errorf("generations cannot be negative, got %d", c.Generations)
	}
	if c.GeneCount < 1 {
		return fmt.Errorf("gene count must be positive, got %d", c.GeneCount)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return fmt.Errorf("crossover rate must be within [0, 1], got %v", c.CrossoverRate)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("mutation rate must be within [0, 1], got %v", c.MutationRate)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism cannot be negative, got %d", c.Parallelism)
	}
	if c.Convergence.Enabled && c.Convergence.Patience < 1 {
		return fmt.Errorf("convergence patience must be positive, got %d", c.Convergence.Patience)
	}
	return nil
}

// NewRand returns a PCG source for seed, or a randomly seeded one for seed 0.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// Engine runs the generation cycle for one population.
// An Engine is not safe for concurrent use.
type Engine[G any] struct {
	config    Config
	kind      Kind[G]
	fitness   FitnessFunc[G]
	crossover Crossover[G]
	observer  Observer
	logger    *slog.Logger

	rng        *rand.Rand
	tracker    *ConvergenceTracker
	population []*Individual[G]
	generation int
	state      State
	started    time.Time
}

// Option configures an Engine.
type Option[G any] func(*Engine[G])

// WithCrossover replaces the default fixed-length single-point crossover.
func WithCrossover[G any](c Crossover[G]) Option[G] {
	return func(e *Engine[G]) {
		e.crossover = c
	}
}

// WithObserver registers a callback invoked after every ranking.
func WithObserver[G any](o Observer) Option[G] {
	return func(e *Engine[G]) {
		e.observer = o
	}
}

// WithLogger sets the engine logger.
func WithLogger[G any](logger *slog.Logger) Option[G] {
	return func(e *Engine[G]) {
		e.logger = logger
	}
}

// WithRand overrides the random source derived from Config.Seed.
func WithRand[G any](rng *rand.Rand) Option[G] {
	return func(e *Engine[G]) {
		e.rng = rng
	}
}

// NewEngine creates an engine for the given gene kind and fitness function.
func NewEngine[G any](kind Kind[G], fitness FitnessFunc[G], config Config, opts ...Option[G]) (*Engine[G], error) {
	if kind == nil {
		return nil, fmt.Errorf("gene kind is required")
	}
	if fitness == nil {
		return nil, fmt.Errorf("fitness function is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	e := &Engine[G]{
		config:    config,
		kind:      kind,
		fitness:   fitness,
		crossover: SinglePoint[G],
		tracker:   NewConvergenceTracker(config.Convergence),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = NewRand(config.Seed)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// State returns the current cycle state.
func (e *Engine[G]) State() State {
	return e.state
}

// Generation returns the number of completed recombination steps.
func (e *Engine[G]) Generation() int {
	return e.generation
}

// Population returns the current population in its current order.
func (e *Engine[G]) Population() []*Individual[G] {
	return append([]*Individual[G](nil), e.population...)
}

// Initialize generates a fresh random population.
func (e *Engine[G]) Initialize() {
	e.population = make([]*Individual[G], e.config.PopulationSize)
	for i := range e.population {
		e.population[i] = NewIndividual(e.kind, e.config.GeneCount, e.rng)
	}
	e.generation = 0
	e.tracker.Reset()
	e.started = time.Now()
	e.state = StateInitialized
}

// Evaluate computes fitness for every individual that lacks it.
func (e *Engine[G]) Evaluate(ctx context.Context) error {
	switch e.state {
	case StateInitialized, StateRecombined, StateEvaluated, StateRanked:
	default:
		return fmt.Errorf("cannot evaluate in state %s", e.state)
	}
	if err := EvaluateAll(ctx, e.population, e.fitness, e.config.Parallelism); err != nil {
		return err
	}
	e.state = StateEvaluated
	return nil
}

// Rank sorts the population by descending fitness. The sort is stable, so ties keep
// their previous relative order.
func (e *Engine[G]) Rank() error {
	for i, ind := range e.population {
		if !ind.evaluated {
			return fmt.Errorf("cannot rank individual %d: %w", i, ErrUnevaluated)
		}
	}

	sort.SliceStable(e.population, func(i, j int) bool {
		return e.population[i].fitness > e.population[j].fitness
	})
	e.state = StateRanked

	stats := computeStats(e.generation, e.population)
	stats.Elapsed = time.Since(e.started)
	e.logger.Debug("Generation ranked",
		"generation", stats.Generation,
		"best", stats.Best,
		"mean", stats.Mean,
		"std_dev", stats.StdDev,
	)
	if e.observer != nil {
		e.observer(stats)
	}
	return nil
}

// Recombine builds the next population: the two elites unchanged, their two mutated
// children, and fresh random individuals for the remaining slots.
func (e *Engine[G]) Recombine() error {
	if e.state != StateRanked {
		return fmt.Errorf("cannot recombine in state %s", e.state)
	}

	first, second := e.population[0], e.population[1]
	child1, child2, err := e.crossover(first, second, e.config.CrossoverRate, e.rng)
	if err != nil {
		return fmt.Errorf("failed to recombine generation %d: %w", e.generation, err)
	}
	child1.MutateGenes(e.kind, e.config.MutationRate, e.rng)
	child2.MutateGenes(e.kind, e.config.MutationRate, e.rng)

	next := make([]*Individual[G], 0, e.config.PopulationSize)
	next = append(next, first, second, child1, child2)
	for len(next) < e.config.PopulationSize {
		next = append(next, NewIndividual(e.kind, e.config.GeneCount, e.rng))
	}

	e.population = next
	e.generation++
	e.state = StateRecombined
	return nil
}

// Best returns the top-ranked individual.
func (e *Engine[G]) Best() (*Individual[G], error) {
	if e.state != StateRanked && e.state != StateTerminal {
		return nil, fmt.Errorf("no ranked population in state %s", e.state)
	}
	return e.population[0], nil
}

// Run evolves the population for the configured number of generations and returns
// the best individual of the final, evaluated population.
//
// ctx is checked only at generation boundaries, after ranking. On cancellation the
// current best is returned together with ctx.Err().
func (e *Engine[G]) Run(ctx context.Context) (*Individual[G], error) {
	if e.state == StateNew || e.state == StateTerminal {
		e.Initialize()
	}

	e.logger.Info("Starting evolution",
		"population", e.config.PopulationSize,
		"generations", e.config.Generations,
		"gene_count", e.config.GeneCount,
		"crossover_rate", e.config.CrossoverRate,
		"mutation_rate", e.config.MutationRate,
	)

	evalCtx := context.WithoutCancel(ctx)
	for {
		if err := e.Evaluate(evalCtx); err != nil {
			return nil, err
		}
		if err := e.Rank(); err != nil {
			return nil, err
		}

		if e.generation >= e.config.Generations {
			break
		}
		if err := ctx.Err(); err != nil {
			e.state = StateTerminal
			e.logger.Info("Evolution stopped", "generation", e.generation, "reason", err)
			return e.population[0], err
		}
		if e.tracker.Update(e.population[0].fitness) {
			break
		}
		if err := e.Recombine(); err != nil {
			return nil, err
		}
	}

	e.state = StateTerminal
	best := e.population[0]
	e.logger.Info("Evolution complete",
		"generations", e.generation,
		"best_fitness", best.fitness,
		"elapsed", time.Since(e.started),
	)
	return best, nil
}
