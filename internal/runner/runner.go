// Package runner builds the workload named by a configuration and evolves it.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/genetica/internal/config"
	"github.com/cwbudde/genetica/internal/evo"
	"github.com/cwbudde/genetica/internal/fitness"
	"github.com/cwbudde/genetica/internal/problem/knapsack"
	"github.com/cwbudde/genetica/internal/problem/sentence"
	"github.com/cwbudde/genetica/internal/store"
)

// Options tune a single run.
type Options struct {
	// RunID identifies the run; a random UUID is used when empty
	RunID string
	// Observer receives generation statistics after every ranking
	Observer evo.Observer
	Logger   *slog.Logger
	// Lexicon overrides the configured lexicon for sentence runs
	Lexicon *sentence.Lexicon
}

// Outcome is the decoded best individual of a run.
type Outcome struct {
	RunID       string          `json:"runId"`
	Problem     string          `json:"problem"`
	Fitness     float64         `json:"fitness"`
	Generations int             `json:"generations"`
	Summary     string          `json:"summary"`
	Genes       json.RawMessage `json:"genes"`
	Details     map[string]any  `json:"details,omitempty"`
	Stopped     bool            `json:"stopped,omitempty"`
	Elapsed     time.Duration   `json:"elapsed"`
}

// Run evolves the problem named by cfg.Run.Problem. When ctx is cancelled the run
// stops at the next generation boundary and the outcome of the best individual so far
// is returned together with the context error.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Outcome, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.RunID == "" {
		opts.RunID = uuid.New().String()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With("run_id", opts.RunID, "problem", cfg.Run.Problem)

	var (
		outcome *Outcome
		err     error
	)
	switch cfg.Run.Problem {
	case config.ProblemKnapsack:
		outcome, err = runKnapsack(ctx, cfg, opts, logger)
	case config.ProblemSentence:
		outcome, err = runSentence(ctx, cfg, opts, logger)
	default:
		return nil, fmt.Errorf("unknown problem: %s", cfg.Run.Problem)
	}
	if outcome != nil {
		outcome.RunID = opts.RunID
		outcome.Problem = cfg.Run.Problem
	}
	return outcome, err
}

// evolution is the engine result shared by every problem.
type evolution[G any] struct {
	best        *evo.Individual[G]
	generations int
	elapsed     time.Duration
	stopped     bool
}

func evolve[G any](ctx context.Context, kind evo.Kind[G], fn evo.FitnessFunc[G], ecfg evo.Config, opts Options, logger *slog.Logger, extra ...evo.Option[G]) (*evolution[G], error) {
	engineOpts := append([]evo.Option[G]{
		evo.WithObserver[G](opts.Observer),
		evo.WithLogger[G](logger),
	}, extra...)

	engine, err := evo.NewEngine(kind, fn, ecfg, engineOpts...)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	best, err := engine.Run(ctx)
	if best == nil {
		return nil, err
	}

	result := &evolution[G]{
		best:        best,
		generations: engine.Generation(),
		elapsed:     time.Since(start),
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			result.stopped = true
			return result, err
		}
		return nil, err
	}
	return result, nil
}

func (e *evolution[G]) outcome(summary string, details map[string]any) (*Outcome, error) {
	genes, err := json.Marshal(e.best.Genes())
	if err != nil {
		return nil, fmt.Errorf("failed to encode genes: %w", err)
	}
	f, _ := e.best.Fitness()
	return &Outcome{
		Fitness:     f,
		Generations: e.generations,
		Summary:     summary,
		Genes:       genes,
		Details:     details,
		Stopped:     e.stopped,
		Elapsed:     e.elapsed,
	}, nil
}

func runKnapsack(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (*Outcome, error) {
	p := cfg.Knapsack
	evolved, runErr := evolve(ctx, knapsack.Kind(), p.Fitness(), cfg.Engine(p.Items()), opts, logger)
	if evolved == nil {
		return nil, runErr
	}

	genes := evolved.best.Genes()
	value, weight := p.Totals(genes)
	outcome, err := evolved.outcome(p.Describe(genes), map[string]any{
		"items":     knapsack.Selected(genes),
		"value":     value,
		"weight":    weight,
		"maxWeight": p.MaxWeight,
	})
	if err != nil {
		return nil, err
	}
	return outcome, runErr
}

func runSentence(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (*Outcome, error) {
	lex := opts.Lexicon
	if lex == nil {
		var err error
		if lex, err = LoadLexicon(cfg); err != nil {
			return nil, err
		}
	}

	kind, err := sentence.NewWordKind(lex, sentence.KindConfig{
		Rates:       cfg.Sentence.Rates,
		MaxAttempts: cfg.Run.MaxDrawAttempts,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build word kind: %w", err)
	}

	target, err := cfg.TargetStructure()
	if err != nil && cfg.Sentence.Fitness.Structure {
		return nil, err
	}
	fn, err := sentence.Fitness(cfg.Sentence.Fitness, target)
	if err != nil {
		return nil, err
	}

	var extra []evo.Option[sentence.Word]
	if cfg.Sentence.DynamicLength {
		extra = append(extra, evo.WithCrossover[sentence.Word](evo.DynamicSinglePoint[sentence.Word]))
	}

	evolved, runErr := evolve(ctx, evo.Kind[sentence.Word](kind), fn, cfg.Engine(cfg.Sentence.WordCount), opts, logger, extra...)
	if evolved == nil {
		return nil, runErr
	}

	words := evolved.best.Genes()
	structure := sentence.FormatStructure(sentence.CategoriesOf(words))
	details := map[string]any{
		"sentence":  sentence.Sentence(words),
		"structure": structure,
		"words":     len(words),
	}
	if len(target) > 0 {
		details["target"] = sentence.FormatStructure(target)
	}
	for name, score := range scoreBreakdown(cfg, target, words) {
		details[name] = score
	}

	outcome, err := evolved.outcome(fmt.Sprintf("%s [%s]", sentence.Sentence(words), structure), details)
	if err != nil {
		return nil, err
	}
	return outcome, runErr
}

func scoreBreakdown(cfg *config.Config, target []sentence.Category, words []sentence.Word) map[string]float64 {
	out := make(map[string]float64)
	for name, v := range fitness.Breakdown(words, sentence.Components(cfg.Sentence.Fitness, target)...) {
		out[name+"_score"] = v
	}
	return out
}

// LoadLexicon loads the lexicon configured for cfg, or the built-in one.
func LoadLexicon(cfg *config.Config) (*sentence.Lexicon, error) {
	if cfg.Sentence.LexiconDir == "" {
		return sentence.DefaultLexicon()
	}
	return sentence.LoadLexicon(cfg.Sentence.LexiconDir)
}

// Result converts an outcome into the durable record of the run.
func (o *Outcome) Result(cfg *config.Config) *store.Result {
	return &store.Result{
		RunID:       o.RunID,
		Problem:     o.Problem,
		Fitness:     o.Fitness,
		Generations: o.Generations,
		Summary:     o.Summary,
		Genes:       o.Genes,
		Details:     o.Details,
		Stopped:     o.Stopped,
		Elapsed:     o.Elapsed,
		Timestamp:   time.Now(),
		Config:      *cfg,
	}
}
