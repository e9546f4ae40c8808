package sentence

import (
	"fmt"

	"github.com/cwbudde/genetica/internal/sampler"
)

// strictTolerance absorbs float rounding in tables that sum to exactly one.
const strictTolerance = 1e-9

// Rates holds the sampling weights of a word kind, keyed by category or form name.
type Rates struct {
	WordType      map[string]float64 `toml:"word_type" json:"wordType"`
	NounType      map[string]float64 `toml:"noun_type" json:"nounType"`
	VerbType      map[string]float64 `toml:"verb_type" json:"verbType"`
	AdjectiveType map[string]float64 `toml:"adjective_type" json:"adjectiveType"`
}

// DefaultRates returns the stock distribution.
func DefaultRates() Rates {
	return Rates{
		WordType: map[string]float64{
			"noun":        0.20,
			"verb":        0.20,
			"adverb":      0.10,
			"adjective":   0.10,
			"preposition": 0.10,
			"determiner":  0.10,
			"conjunction": 0.20,
		},
		NounType: map[string]float64{
			"singular": 0.70,
			"plural":   0.30,
		},
		VerbType: map[string]float64{
			"past":    0.33,
			"present": 0.33,
			"future":  0.34,
		},
		AdjectiveType: map[string]float64{
			"interrogative": 0.125,
			"distributive":  0.125,
			"numeral":       0.125,
			"proper":        0.125,
			"descriptive":   0.125,
			"possessive":    0.125,
			"quantitative":  0.125,
			"demonstrative": 0.125,
		},
	}
}

// WordTable orders the word type rates by category declaration order. Categories
// without a rate get zero.
func (r Rates) WordTable() (sampler.Table[Category], error) {
	byCategory := make(map[Category]float64, len(r.WordType))
	for key, rate := range r.WordType {
		c, err := ParseCategory(key)
		if err != nil {
			return nil, &RateError{Table: "word_type", Reason: err.Error()}
		}
		byCategory[c] += rate
	}

	table := make(sampler.Table[Category], 0, len(categoryNames))
	for _, c := range Categories() {
		table = append(table, sampler.Entry[Category]{Category: c, Rate: byCategory[c]})
	}
	return table, nil
}

// FormTable orders the form rates of category c by form declaration order. It
// returns nil for categories without form rates.
func (r Rates) FormTable(c Category) (sampler.Table[Form], error) {
	name, rates := r.formRates(c)
	if len(rates) == 0 {
		return nil, nil
	}

	byForm := make(map[Form]float64, len(rates))
	for key, rate := range rates {
		f, err := ParseForm(key)
		if err != nil {
			return nil, &RateError{Table: name, Reason: err.Error()}
		}
		if owner, ok := f.Category(); !ok || owner != c {
			return nil, &RateError{Table: name, Reason: fmt.Sprintf("form %s is not a %s form", f, c)}
		}
		byForm[f] += rate
	}

	forms := FormsOf(c)
	table := make(sampler.Table[Form], 0, len(forms))
	for _, f := range forms {
		table = append(table, sampler.Entry[Form]{Category: f, Rate: byForm[f]})
	}
	return table, nil
}

func (r Rates) formRates(c Category) (string, map[string]float64) {
	switch c {
	case Noun:
		return "noun_type", r.NounType
	case Verb:
		return "verb_type", r.VerbType
	case Adjective:
		return "adjective_type", r.AdjectiveType
	default:
		return "", nil
	}
}

// Validate checks every table. The default check is floor(total) <= 1; strict
// requires total <= 1.
func (r Rates) Validate(strict bool) error {
	word, err := r.WordTable()
	if err != nil {
		return err
	}
	if err := checkTable("word_type", word, strict); err != nil {
		return err
	}
	if word.Total() <= 0 {
		return &RateError{Table: "word_type", Reason: "rates must sum to a positive value"}
	}

	for _, c := range []Category{Noun, Verb, Adjective} {
		table, err := r.FormTable(c)
		if err != nil {
			return err
		}
		name, _ := r.formRates(c)
		if err := checkTable(name, table, strict); err != nil {
			return err
		}
	}
	return nil
}

func checkTable[C comparable](name string, table sampler.Table[C], strict bool) error {
	for _, e := range table {
		if e.Rate < 0 {
			return &RateError{Table: name, Reason: fmt.Sprintf("rate for %v cannot be negative", e.Category)}
		}
	}
	if strict {
		if !table.AddsUpStrict(strictTolerance) {
			return &RateError{Table: name, Reason: fmt.Sprintf("rates sum to %.4f, more than 1", table.Total())}
		}
		return nil
	}
	if !table.AddsUp() {
		return &RateError{Table: name, Reason: fmt.Sprintf("rates sum to %.4f, floor exceeds 1", table.Total())}
	}
	return nil
}

// RateError reports an invalid rate table.
type RateError struct {
	Table  string
	Reason string
}

func (e *RateError) Error() string {
	return fmt.Sprintf("rate table %s: %s", e.Table, e.Reason)
}
