// Package sentence evolves short sentences from a typed lexicon. Genes are words
// tagged with a lexical category and form; fitness rewards conformance to a target
// category structure and, optionally, rule-based grammatical plausibility.
package sentence

import (
	"fmt"
	"strings"
)

// Category is the lexical category of a word.
type Category int

const (
	Noun Category = iota
	Verb
	Adverb
	Adjective
	Preposition
	Determiner
	Conjunction
)

var categoryNames = [...]string{
	Noun:        "noun",
	Verb:        "verb",
	Adverb:      "adverb",
	Adjective:   "adjective",
	Preposition: "preposition",
	Determiner:  "determiner",
	Conjunction: "conjunction",
}

// Categories returns every category in declaration order.
func Categories() []Category {
	out := make([]Category, len(categoryNames))
	for i := range categoryNames {
		out[i] = Category(i)
	}
	return out
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// Abbrev returns the short tag used in structure listings, e.g. "N" or "Adj".
func (c Category) Abbrev() string {
	switch c {
	case Noun:
		return "N"
	case Verb:
		return "V"
	case Adverb:
		return "Adv"
	case Adjective:
		return "Adj"
	case Preposition:
		return "Prep"
	case Determiner:
		return "Det"
	case Conjunction:
		return "Conj"
	default:
		return "?"
	}
}

// ParseCategory accepts a category name or its abbreviation, case-insensitively.
func ParseCategory(s string) (Category, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories() {
		if needle == c.String() || needle == strings.ToLower(c.Abbrev()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown word category %q", s)
}

func (c Category) MarshalText() ([]byte, error) {
	if c < 0 || int(c) >= len(categoryNames) {
		return nil, fmt.Errorf("invalid word category %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Form is the sub-attribute of a word within its category: noun number, verb tense
// or adjective type. FormNone is used by categories without sub-attributes.
type Form int

const (
	FormNone Form = iota

	Singular
	Plural

	Past
	Present
	Future

	Interrogative
	Distributive
	Numeral
	Proper
	Descriptive
	Possessive
	Quantitative
	Demonstrative
)

var formNames = [...]string{
	FormNone:      "none",
	Singular:      "singular",
	Plural:        "plural",
	Past:          "past",
	Present:       "present",
	Future:        "future",
	Interrogative: "interrogative",
	Distributive:  "distributive",
	Numeral:       "numeral",
	Proper:        "proper",
	Descriptive:   "descriptive",
	Possessive:    "possessive",
	Quantitative:  "quantitative",
	Demonstrative: "demonstrative",
}

func (f Form) String() string {
	if f < 0 || int(f) >= len(formNames) {
		return fmt.Sprintf("form(%d)", int(f))
	}
	return formNames[f]
}

// Category returns the category a form belongs to. FormNone belongs to none.
func (f Form) Category() (Category, bool) {
	switch {
	case f == Singular || f == Plural:
		return Noun, true
	case f >= Past && f <= Future:
		return Verb, true
	case f >= Interrogative && f <= Demonstrative:
		return Adjective, true
	default:
		return 0, false
	}
}

// FormsOf returns the forms of a category in declaration order.
func FormsOf(c Category) []Form {
	var out []Form
	for f := Singular; f <= Demonstrative; f++ {
		if owner, _ := f.Category(); owner == c {
			out = append(out, f)
		}
	}
	return out
}

// ParseForm accepts a form name. The empty string parses as FormNone, and
// "quantative" is accepted as an alias of quantitative.
func ParseForm(s string) (Form, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	switch needle {
	case "":
		return FormNone, nil
	case "quantative":
		return Quantitative, nil
	}
	for i, name := range formNames {
		if needle == name {
			return Form(i), nil
		}
	}
	return FormNone, fmt.Errorf("unknown word form %q", s)
}

func (f Form) MarshalText() ([]byte, error) {
	if f < 0 || int(f) >= len(formNames) {
		return nil, fmt.Errorf("invalid word form %d", int(f))
	}
	return []byte(f.String()), nil
}

func (f *Form) UnmarshalText(text []byte) error {
	parsed, err := ParseForm(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Word is one gene of a sentence: a surface form tagged with its category and form.
type Word struct {
	Category Category `json:"category"`
	Form     Form     `json:"form"`
	Text     string   `json:"text"`
}

func (w Word) String() string {
	return w.Text
}
