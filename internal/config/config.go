// Package config loads and validates run configuration documents.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/cwbudde/genetica/internal/evo"
	"github.com/cwbudde/genetica/internal/problem/knapsack"
	"github.com/cwbudde/genetica/internal/problem/sentence"
	"github.com/cwbudde/genetica/internal/sampler"
)

// Problem names accepted by run.problem.
const (
	ProblemKnapsack = "knapsack"
	ProblemSentence = "sentence"
)

// Config is a complete run configuration. The JSON form is accepted as the HTTP job
// payload, so both tag sets describe the same document.
type Config struct {
	Run      RunConfig        `toml:"run" json:"run"`
	Knapsack knapsack.Problem `toml:"knapsack" json:"knapsack"`
	Sentence SentenceConfig   `toml:"sentence" json:"sentence"`
}

// RunConfig holds the engine parameters shared by every problem.
type RunConfig struct {
	Problem              string                `toml:"problem" json:"problem"`
	Generations          int                   `toml:"generations" json:"generations"`
	Population           int                   `toml:"population" json:"population"`
	CrossoverProbability float64               `toml:"crossover_probability" json:"crossoverProbability"`
	MutationProbability  float64               `toml:"mutation_probability" json:"mutationProbability"`
	Seed                 uint64                `toml:"seed" json:"seed"`
	Parallelism          int                   `toml:"parallelism" json:"parallelism"`
	StrictRates          bool                  `toml:"strict_rates" json:"strictRates"`
	MaxDrawAttempts      int                   `toml:"max_draw_attempts" json:"maxDrawAttempts"`
	Convergence          evo.ConvergenceConfig `toml:"convergence" json:"convergence"`
}

// SentenceConfig configures the sentence problem.
type SentenceConfig struct {
	WordCount       int                    `toml:"word_count" json:"wordCount"`
	DynamicLength   bool                   `toml:"dynamic_length" json:"dynamicLength"`
	LexiconDir      string                 `toml:"lexicon_dir" json:"lexiconDir,omitempty"`
	TargetStructure []string               `toml:"target_structure" json:"targetStructure,omitempty"`
	Fitness         sentence.FitnessConfig `toml:"fitness" json:"fitness"`
	Rates           sentence.Rates         `toml:"rates" json:"rates"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Run: RunConfig{
			Problem:              ProblemSentence,
			Generations:          500,
			Population:           100,
			CrossoverProbability: 0.5,
			MutationProbability:  0.05,
			MaxDrawAttempts:      sampler.DefaultMaxAttempts,
			Convergence:          evo.DisabledConvergenceConfig(),
		},
		Knapsack: knapsack.Problem{
			Values:    []int{10, 50, 20, 70, 30, 100, 15, 45, 60, 25, 90, 35},
			Weights:   []int{1, 3, 2, 5, 1, 4, 1, 2, 3, 2, 4, 2},
			MaxWeight: 10,
		},
		Sentence: SentenceConfig{
			WordCount: 5,
			Fitness:   sentence.DefaultFitnessConfig(),
			Rates:     sentence.DefaultRates(),
		},
	}
}

// Load reads and validates the TOML file at path. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	return Decode(f, path)
}

// Decode reads and validates a TOML document. name identifies the source in errors.
func Decode(r io.Reader, name string) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, &ValidationError{File: name, Reason: err.Error()}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &ValidationError{File: name, Field: keys[0], Reason: "unknown key (" + strings.Join(keys, ", ") + ")"}
	}

	if err := cfg.Validate(); err != nil {
		if ve, ok := err.(*ValidationError); ok {
			ve.File = name
		}
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values a run cannot start with.
func (c *Config) Validate() error {
	r := c.Run
	switch r.Problem {
	case ProblemKnapsack, ProblemSentence:
	default:
		return invalid("run.problem", "must be %q or %q, got %q", ProblemKnapsack, ProblemSentence, r.Problem)
	}
	if r.Population < evo.MinPopulationSize {
		return invalid("run.population", "must be at least %d, got %d", evo.MinPopulationSize, r.Population)
	}
	if r.Generations < 0 {
		return invalid("run.generations", "cannot be negative")
	}
	if r.CrossoverProbability < 0 || r.CrossoverProbability > 1 {
		return invalid("run.crossover_probability", "must be within [0, 1], got %v", r.CrossoverProbability)
	}
	if r.MutationProbability < 0 || r.MutationProbability > 1 {
		return invalid("run.mutation_probability", "must be within [0, 1], got %v", r.MutationProbability)
	}
	if r.Parallelism < 0 {
		return invalid("run.parallelism", "cannot be negative")
	}
	if r.MaxDrawAttempts < 0 {
		return invalid("run.max_draw_attempts", "cannot be negative")
	}
	if r.Convergence.Enabled && r.Convergence.Patience < 1 {
		return invalid("run.convergence.patience", "must be positive when convergence is enabled")
	}

	switch r.Problem {
	case ProblemKnapsack:
		if err := c.Knapsack.Validate(); err != nil {
			return invalid("knapsack", "%v", err)
		}
	case ProblemSentence:
		return c.validateSentence()
	}
	return nil
}

func (c *Config) validateSentence() error {
	s := c.Sentence
	if s.WordCount < 1 {
		return invalid("sentence.word_count", "must be positive, got %d", s.WordCount)
	}
	if s.Fitness.StructureWeight < 0 {
		return invalid("sentence.fitness.structure_weight", "cannot be negative")
	}
	if s.Fitness.GrammarWeight < 0 {
		return invalid("sentence.fitness.grammar_weight", "cannot be negative")
	}
	if !s.Fitness.Structure && !s.Fitness.Grammar {
		return invalid("sentence.fitness", "at least one of structure or grammar must be enabled")
	}
	if s.Fitness.Structure {
		if _, err := c.TargetStructure(); err != nil {
			return invalid("sentence.target_structure", "%v", err)
		}
	}
	if err := s.Rates.Validate(c.Run.StrictRates); err != nil {
		if re, ok := err.(*sentence.RateError); ok {
			return invalid("sentence.rates."+re.Table, "%s", re.Reason)
		}
		return invalid("sentence.rates", "%v", err)
	}
	return nil
}

// TargetStructure returns the configured target structure, or the stock structure
// for the configured word count.
func (c *Config) TargetStructure() ([]sentence.Category, error) {
	if len(c.Sentence.TargetStructure) > 0 {
		return sentence.ParseStructure(c.Sentence.TargetStructure)
	}
	return sentence.StructureFor(c.Sentence.WordCount)
}

// Engine returns the engine parameters for a problem with geneCount genes.
func (c *Config) Engine(geneCount int) evo.Config {
	return evo.Config{
		PopulationSize: c.Run.Population,
		Generations:    c.Run.Generations,
		GeneCount:      geneCount,
		CrossoverRate:  c.Run.CrossoverProbability,
		MutationRate:   c.Run.MutationProbability,
		Parallelism:    c.Run.Parallelism,
		Seed:           c.Run.Seed,
		Convergence:    c.Run.Convergence,
	}
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ValidationError reports an invalid configuration value.
type ValidationError struct {
	File   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid config")
	if e.File != "" {
		b.WriteString(" " + e.File)
	}
	if e.Field != "" {
		b.WriteString(": " + e.Field)
	}
	b.WriteString(": " + e.Reason)
	return b.String()
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
