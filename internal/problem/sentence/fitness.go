package sentence

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cwbudde/genetica/internal/evo"
	"github.com/cwbudde/genetica/internal/fitness"
)

// FitnessConfig selects and weights the sentence fitness components.
type FitnessConfig struct {
	Structure       bool    `toml:"structure" json:"structure"`
	StructureWeight float64 `toml:"structure_weight" json:"structureWeight"`
	Grammar         bool    `toml:"grammar" json:"grammar"`
	GrammarWeight   float64 `toml:"grammar_weight" json:"grammarWeight"`
}

// DefaultFitnessConfig enables structural conformance only.
func DefaultFitnessConfig() FitnessConfig {
	return FitnessConfig{
		Structure:       true,
		StructureWeight: 1,
		Grammar:         false,
		GrammarWeight:   1,
	}
}

var (
	singularDeterminers = map[string]bool{"a": true, "an": true, "this": true, "that": true}
	pluralDeterminers   = map[string]bool{"these": true, "those": true, "many": true, "few": true}
)

// StructureScore returns the share of positions whose category matches target,
// normalised by the longer of the two sequences.
func StructureScore(target []Category) func([]Word) float64 {
	return func(words []Word) float64 {
		longest := max(len(words), len(target))
		if longest == 0 {
			return 1
		}
		matches := 0
		for i := 0; i < len(words) && i < len(target); i++ {
			if words[i].Category == target[i] {
				matches++
			}
		}
		return float64(matches) / float64(longest)
	}
}

// GrammarErrors counts rule violations in a word sequence.
func GrammarErrors(words []Word) int {
	if len(words) == 0 {
		return 1
	}

	errs := 0
	hasVerb := false
	for i, w := range words {
		var next *Word
		if i+1 < len(words) {
			next = &words[i+1]
		}

		switch w.Category {
		case Verb:
			hasVerb = true
			if next != nil && next.Category == Verb {
				errs++
			}
		case Determiner, Adjective:
			if next == nil || (next.Category != Adjective && next.Category != Noun) {
				errs++
			}
		case Preposition, Conjunction:
			if next == nil {
				errs++
			}
		}

		if w.Category == Determiner && !agrees(w, words[i+1:]) {
			errs++
		}
	}
	if !hasVerb {
		errs++
	}
	return errs
}

// agrees checks determiner-noun number agreement, skipping adjectives.
func agrees(det Word, rest []Word) bool {
	text := strings.ToLower(det.Text)
	for _, w := range rest {
		if w.Category == Adjective {
			continue
		}
		if w.Category != Noun {
			return true
		}
		switch {
		case singularDeterminers[text]:
			return w.Form != Plural
		case pluralDeterminers[text]:
			return w.Form != Singular
		default:
			return true
		}
	}
	return true
}

// Components returns the enabled fitness components.
func Components(cfg FitnessConfig, target []Category) []fitness.Component[Word] {
	var out []fitness.Component[Word]
	if cfg.Structure {
		out = append(out, fitness.Component[Word]{
			Name:   "structure",
			Weight: cfg.StructureWeight,
			Score:  StructureScore(target),
		})
	}
	if cfg.Grammar {
		out = append(out, fitness.ErrorComponent("grammar", cfg.GrammarWeight, GrammarErrors))
	}
	return out
}

// Fitness composes the enabled components into one fitness function.
func Fitness(cfg FitnessConfig, target []Category) (evo.FitnessFunc[Word], error) {
	components := Components(cfg, target)
	if len(components) == 0 {
		return nil, fmt.Errorf("no sentence fitness component is enabled")
	}
	if cfg.Structure && len(target) == 0 {
		return nil, fmt.Errorf("structure component needs a target structure")
	}
	return fitness.Weighted(components...), nil
}

// Sentence joins words into a capitalised sentence ending with a period.
func Sentence(words []Word) string {
	if len(words) == 0 {
		return ""
	}
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	text := strings.Join(parts, " ")

	r, size := utf8.DecodeRuneInString(text)
	return string(unicode.ToUpper(r)) + text[size:] + "."
}
