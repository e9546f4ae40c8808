// Package sampler draws typed categories according to configured probability weights.
//
// A Table is an ordered list of (category, rate) pairs. New turns it into a cumulative
// threshold table once; every Draw afterwards costs a single uniform draw plus a linear
// scan. Categories are matched in declaration order, so when two thresholds are equal
// the earlier-declared category wins.
package sampler

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
)

// DefaultMaxAttempts bounds the number of redraws a single Draw may perform.
const DefaultMaxAttempts = 10000

// Entry is one row of a category-rate table.
type Entry[C comparable] struct {
	Category C
	Rate     float64
}

// Table is an ordered category-rate table.
type Table[C comparable] []Entry[C]

// Total returns the sum of all rates.
func (t Table[C]) Total() float64 {
	var total float64
	for _, e := range t {
		total += e.Rate
	}
	return total
}

// AddsUp reports whether floor(total) <= 1.0.
//
// This accepts any total below 2.0. It is kept as the default check because existing
// rate files rely on it; use AddsUpStrict for the tight bound.
func (t Table[C]) AddsUp() bool {
	return math.Floor(t.Total()) <= 1.0
}

// AddsUpStrict reports whether total <= 1.0 + tolerance.
func (t Table[C]) AddsUpStrict(tolerance float64) bool {
	return t.Total() <= 1.0+tolerance
}

// Thresholds returns the running sum of rates, one entry per row.
func (t Table[C]) Thresholds() []float64 {
	thresholds := make([]float64, len(t))
	var sum float64
	for i, e := range t {
		sum += e.Rate
		thresholds[i] = sum
	}
	return thresholds
}

// Categories returns the categories in declaration order.
func (t Table[C]) Categories() []C {
	cats := make([]C, len(t))
	for i, e := range t {
		cats[i] = e.Category
	}
	return cats
}

// Sampler draws categories from a cumulative threshold table.
// A Sampler is immutable after New and safe for concurrent use as long as each
// goroutine supplies its own random source.
type Sampler[C comparable] struct {
	name        string
	categories  []C
	thresholds  []float64
	maxAttempts int
	logger      *slog.Logger
}

// Option configures a Sampler.
type Option func(*options)

type options struct {
	name        string
	maxAttempts int
	logger      *slog.Logger
}

// WithMaxAttempts bounds the redraw loop. Zero disables the bound, in which case a
// table whose categories are never available makes Draw loop forever.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		o.maxAttempts = n
	}
}

// WithLogger sets the logger used for category misses.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithName labels log lines and errors produced by the sampler.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// New builds a sampler from a category-rate table.
func New[C comparable](table Table[C], opts ...Option) (*Sampler[C], error) {
	o := options{maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.maxAttempts < 0 {
		return nil, fmt.Errorf("sampler %q: max attempts cannot be negative", o.name)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("sampler %q: rate table is empty", o.name)
	}
	for _, e := range table {
		if e.Rate < 0 || math.IsNaN(e.Rate) {
			return nil, fmt.Errorf("sampler %q: rate for %v must be a non-negative number, got %v", o.name, e.Category, e.Rate)
		}
	}
	if table.Total() <= 0 {
		return nil, fmt.Errorf("sampler %q: rates must sum to a positive value", o.name)
	}

	return &Sampler[C]{
		name:        o.name,
		categories:  table.Categories(),
		thresholds:  table.Thresholds(),
		maxAttempts: o.maxAttempts,
		logger:      o.logger,
	}, nil
}

// Thresholds returns a copy of the cumulative threshold table.
func (s *Sampler[C]) Thresholds() []float64 {
	return append([]float64(nil), s.thresholds...)
}

// Categories returns a copy of the categories in declaration order.
func (s *Sampler[C]) Categories() []C {
	return append([]C(nil), s.categories...)
}

// Name returns the sampler label.
func (s *Sampler[C]) Name() string {
	return s.name
}

// MaxAttempts returns the redraw bound (0 = unbounded).
func (s *Sampler[C]) MaxAttempts() int {
	return s.maxAttempts
}

// pick maps a uniform value to the first category whose threshold is >= u.
func (s *Sampler[C]) pick(u float64) (C, bool) {
	for i, threshold := range s.thresholds {
		if u <= threshold {
			return s.categories[i], true
		}
	}
	var zero C
	return zero, false
}

// Draw returns a category. Values above the final threshold are redrawn.
func (s *Sampler[C]) Draw(rng *rand.Rand) (C, error) {
	return s.DrawAvailable(rng, nil)
}

// DrawAvailable returns a category for which available reports true. Misses are
// logged and redrawn, so the effective distribution conditions on availability.
// A nil available func accepts every category.
func (s *Sampler[C]) DrawAvailable(rng *rand.Rand, available func(C) bool) (C, error) {
	misses := 0
	for attempt := 1; s.maxAttempts == 0 || attempt <= s.maxAttempts; attempt++ {
		category, ok := s.pick(rng.Float64())
		if !ok {
			continue
		}
		if available != nil && !available(category) {
			misses++
			s.logger.Warn("Category has no members, redrawing",
				"sampler", s.name,
				"category", category,
				"attempt", attempt,
			)
			continue
		}
		return category, nil
	}

	var zero C
	return zero, &ExhaustedError{Sampler: s.name, Attempts: s.maxAttempts, Misses: misses}
}

// Collection is a black-box store of members grouped by category.
type Collection[C comparable, T any] interface {
	FindFirstOfCategory(category C) (T, bool)
}

// DrawFrom draws a category that has at least one member in collection and returns
// that category with its first member.
func DrawFrom[C comparable, T any](s *Sampler[C], rng *rand.Rand, collection Collection[C, T]) (C, T, error) {
	category, err := s.DrawAvailable(rng, func(c C) bool {
		_, ok := collection.FindFirstOfCategory(c)
		return ok
	})
	if err != nil {
		var zero T
		return category, zero, err
	}
	member, _ := collection.FindFirstOfCategory(category)
	return category, member, nil
}

// ErrExhausted matches any *ExhaustedError via errors.Is.
var ErrExhausted = &ExhaustedError{}

// ExhaustedError reports that a draw ran out of attempts without finding an
// available category.
type ExhaustedError struct {
	Sampler  string
	Attempts int
	Misses   int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("sampler %q: no available category after %d attempts (%d misses)", e.Sampler, e.Attempts, e.Misses)
}

func (e *ExhaustedError) Is(target error) bool {
	_, ok := target.(*ExhaustedError)
	return ok
}
