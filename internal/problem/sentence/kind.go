package sentence

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/cwbudde/genetica/internal/evo"
	"github.com/cwbudde/genetica/internal/sampler"
)

var _ evo.Kind[Word] = (*WordKind)(nil)

// KindConfig configures a WordKind.
type KindConfig struct {
	Rates Rates
	// MaxAttempts bounds category and form redraws (0 = unbounded)
	MaxAttempts int
	Logger      *slog.Logger
}

// WordKind generates words with a nested draw: a category weighted by the word type
// rates and restricted to categories the lexicon has words for, then a form weighted
// by that category's form rates, then a uniform word of that category and form. When
// no word has the drawn form, a uniform word of the category is used.
type WordKind struct {
	lexicon    *Lexicon
	categories *sampler.Sampler[Category]
	forms      map[Category]*sampler.Sampler[Form]
	fallback   Category
	logger     *slog.Logger
}

// NewWordKind builds a word kind over lex.
func NewWordKind(lex *Lexicon, cfg KindConfig) (*WordKind, error) {
	if lex == nil {
		return nil, fmt.Errorf("lexicon is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	table, err := cfg.Rates.WordTable()
	if err != nil {
		return nil, err
	}

	fallback, found := Category(0), false
	for _, e := range table {
		if e.Rate > 0 && lex.Has(e.Category) {
			fallback, found = e.Category, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("no word category with a positive rate has words in the lexicon")
	}

	categories, err := sampler.New(table,
		sampler.WithName("word_type"),
		sampler.WithMaxAttempts(cfg.MaxAttempts),
		sampler.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build word type sampler: %w", err)
	}

	k := &WordKind{
		lexicon:    lex,
		categories: categories,
		forms:      make(map[Category]*sampler.Sampler[Form]),
		fallback:   fallback,
		logger:     logger,
	}
	for _, c := range []Category{Noun, Verb, Adjective} {
		formTable, err := cfg.Rates.FormTable(c)
		if err != nil {
			return nil, err
		}
		if formTable.Total() <= 0 {
			continue
		}
		name, _ := cfg.Rates.formRates(c)
		s, err := sampler.New(formTable,
			sampler.WithName(name),
			sampler.WithMaxAttempts(cfg.MaxAttempts),
			sampler.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s sampler: %w", name, err)
		}
		k.forms[c] = s
	}
	return k, nil
}

// Generate draws a fresh word.
func (k *WordKind) Generate(rng *rand.Rand) Word {
	category, _, err := sampler.DrawFrom[Category, Word](k.categories, rng, k.lexicon)
	if err != nil {
		k.logger.Error("Word category draw exhausted, using fallback",
			"fallback", k.fallback.String(),
			"error", err,
		)
		category = k.fallback
	}

	if forms, ok := k.forms[category]; ok {
		if form, err := forms.Draw(rng); err == nil {
			if words := k.lexicon.WordsOf(category, form); len(words) > 0 {
				return words[rng.IntN(len(words))]
			}
		}
	}

	words := k.lexicon.Words(category)
	return words[rng.IntN(len(words))]
}

// Lexicon returns the lexicon the kind draws from.
func (k *WordKind) Lexicon() *Lexicon {
	return k.lexicon
}
