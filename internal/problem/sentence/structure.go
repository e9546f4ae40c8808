package sentence

import (
	"fmt"
	"strings"
)

var structures = map[int][]Category{
	3: {Noun, Verb, Noun},
	4: {Adjective, Noun, Verb, Noun},
	5: {Adjective, Noun, Adverb, Verb, Noun},
	6: {Adjective, Noun, Adverb, Verb, Adjective, Noun},
	7: {Determiner, Noun, Adverb, Verb, Determiner, Noun, Preposition},
	8: {Noun, Verb, Conjunction, Determiner, Adjective, Noun, Verb, Adverb},
}

// StructureFor returns the stock target structure for a sentence of n words.
func StructureFor(n int) ([]Category, error) {
	s, ok := structures[n]
	if !ok {
		return nil, fmt.Errorf("no stock structure for %d words (supported: 3-8)", n)
	}
	return append([]Category(nil), s...), nil
}

// ParseStructure parses category names or abbreviations, e.g. ["N", "V", "N"].
func ParseStructure(tags []string) ([]Category, error) {
	out := make([]Category, len(tags))
	for i, tag := range tags {
		c, err := ParseCategory(tag)
		if err != nil {
			return nil, fmt.Errorf("structure position %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

// FormatStructure renders categories as abbreviations, e.g. "N V N".
func FormatStructure(categories []Category) string {
	parts := make([]string, len(categories))
	for i, c := range categories {
		parts[i] = c.Abbrev()
	}
	return strings.Join(parts, " ")
}

// CategoriesOf returns the category sequence of words.
func CategoriesOf(words []Word) []Category {
	out := make([]Category, len(words))
	for i, w := range words {
		out[i] = w.Category
	}
	return out
}
