package sentence

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon/*.yaml
var builtinFS embed.FS

var (
	conjunctions = []string{"and", "then", "after", "because", "but", "so", "while", "though", "for", "or", "yet"}
	determiners  = []string{"the", "a", "an", "this", "that", "these", "those", "some", "many", "few"}
	prepositions = []string{"in", "on", "at", "under", "behind", "before", "after", "near"}
)

// Lexicon groups words by category. It is built once before a run and only read
// afterwards, so it can be shared by concurrent fitness evaluations.
type Lexicon struct {
	words  map[Category][]Word
	byForm map[formKey][]Word
}

type formKey struct {
	category Category
	form     Form
}

// NewLexicon builds a lexicon from words, keeping their order within each category.
func NewLexicon(words ...Word) *Lexicon {
	l := &Lexicon{
		words:  make(map[Category][]Word),
		byForm: make(map[formKey][]Word),
	}
	for _, w := range words {
		l.add(w)
	}
	return l
}

func (l *Lexicon) add(w Word) {
	l.words[w.Category] = append(l.words[w.Category], w)
	key := formKey{category: w.Category, form: w.Form}
	l.byForm[key] = append(l.byForm[key], w)
}

// ClosedClasses returns the fixed conjunctions, determiners and prepositions.
func ClosedClasses() *Lexicon {
	var words []Word
	for _, text := range conjunctions {
		words = append(words, Word{Category: Conjunction, Text: text})
	}
	for _, text := range determiners {
		words = append(words, Word{Category: Determiner, Text: text})
	}
	for _, text := range prepositions {
		words = append(words, Word{Category: Preposition, Text: text})
	}
	return NewLexicon(words...)
}

// FindFirstOfCategory returns the first word of category c.
func (l *Lexicon) FindFirstOfCategory(c Category) (Word, bool) {
	words := l.words[c]
	if len(words) == 0 {
		return Word{}, false
	}
	return words[0], true
}

// Has reports whether the lexicon holds any word of category c.
func (l *Lexicon) Has(c Category) bool {
	return len(l.words[c]) > 0
}

// Words returns the words of category c. The slice must not be modified.
func (l *Lexicon) Words(c Category) []Word {
	return l.words[c]
}

// WordsOf returns the words of category c with form f. The slice must not be
// modified.
func (l *Lexicon) WordsOf(c Category, f Form) []Word {
	return l.byForm[formKey{category: c, form: f}]
}

// Len returns the total number of words.
func (l *Lexicon) Len() int {
	n := 0
	for _, words := range l.words {
		n += len(words)
	}
	return n
}

// merge adds the categories of other that l does not have yet.
func (l *Lexicon) merge(other *Lexicon) {
	for _, c := range Categories() {
		if l.Has(c) {
			continue
		}
		for _, w := range other.words[c] {
			l.add(w)
		}
	}
}

// DefaultLexicon returns the built-in vocabulary.
func DefaultLexicon() (*Lexicon, error) {
	sub, err := fs.Sub(builtinFS, "lexicon")
	if err != nil {
		return nil, fmt.Errorf("failed to open built-in lexicon: %w", err)
	}
	return LoadLexiconFS(sub)
}

// LoadLexicon reads one <category>.yaml file per category from dir. Categories without
// a file fall back to the closed classes where those exist.
func LoadLexicon(dir string) (*Lexicon, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open lexicon directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("lexicon path %s is not a directory", dir)
	}
	lex, err := LoadLexiconFS(os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to load lexicon from %s: %w", dir, err)
	}
	return lex, nil
}

// LoadLexiconFS is LoadLexicon over an fs.FS.
func LoadLexiconFS(fsys fs.FS) (*Lexicon, error) {
	lex := NewLexicon()
	for _, c := range Categories() {
		name := c.String() + ".yaml"
		data, err := fs.ReadFile(fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		words, err := parseWords(name, c, data)
		if err != nil {
			return nil, err
		}
		for _, w := range words {
			lex.add(w)
		}
	}
	lex.merge(ClosedClasses())

	if lex.Len() == 0 {
		return nil, fmt.Errorf("lexicon is empty")
	}
	return lex, nil
}

type record struct {
	Word string `yaml:"word"`
	Form string `yaml:"form"`
}

func parseWords(file string, c Category, data []byte) ([]Word, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LexiconError{File: file, Record: -1, Reason: err.Error()}
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	seq := doc.Content[0]
	if seq.Kind != yaml.SequenceNode {
		return nil, &LexiconError{File: file, Record: -1, Line: seq.Line, Reason: "expected a list of word records"}
	}

	words := make([]Word, 0, len(seq.Content))
	for i, item := range seq.Content {
		fail := func(format string, args ...any) error {
			return &LexiconError{File: file, Record: i, Line: item.Line, Reason: fmt.Sprintf(format, args...)}
		}

		if item.Kind != yaml.MappingNode {
			return nil, fail("expected a mapping with word and form")
		}
		for k := 0; k+1 < len(item.Content); k += 2 {
			if key := item.Content[k].Value; key != "word" && key != "form" {
				return nil, fail("unknown field %q", key)
			}
		}

		var rec record
		if err := item.Decode(&rec); err != nil {
			return nil, fail("%v", err)
		}
		if rec.Word == "" {
			return nil, fail("word is required")
		}
		form, err := ParseForm(rec.Form)
		if err != nil {
			return nil, fail("%v", err)
		}
		if owner, ok := form.Category(); ok && owner != c {
			return nil, fail("form %s does not belong to category %s", form, c)
		}

		words = append(words, Word{Category: c, Form: form, Text: rec.Word})
	}
	return words, nil
}

// LexiconError reports a malformed lexicon file or record.
type LexiconError struct {
	File   string
	Record int // -1 when the whole file is malformed
	Line   int
	Reason string
}

func (e *LexiconError) Error() string {
	if e.Record < 0 {
		return fmt.Sprintf("lexicon %s: %s", e.File, e.Reason)
	}
	return fmt.Sprintf("lexicon %s record %d (line %d): %s", e.File, e.Record, e.Line, e.Reason)
}
