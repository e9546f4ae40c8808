package evo

import "math/rand/v2"

// Kind knows how to create genes of type G. Generate must not depend on any
// existing gene; it draws fresh content from the kind's distribution.
type Kind[G any] interface {
	Generate(rng *rand.Rand) G
}

// Mutator is an optional extension of Kind. When a Kind implements it, its Mutate
// replaces the default replace-with-probability mutation.
type Mutator[G any] interface {
	Mutate(gene *G, rate float64, rng *rand.Rand) bool
}

// KindFunc adapts a plain function to Kind.
type KindFunc[G any] func(rng *rand.Rand) G

// Generate calls f.
func (f KindFunc[G]) Generate(rng *rand.Rand) G {
	return f(rng)
}

// MutateGene replaces gene with a freshly generated value with probability rate.
// It reports whether the gene was replaced.
func MutateGene[G any](kind Kind[G], gene *G, rate float64, rng *rand.Rand) bool {
	if m, ok := kind.(Mutator[G]); ok {
		return m.Mutate(gene, rate, rng)
	}
	if rate <= 0 {
		return false
	}
	if rate < 1 && rng.Float64() >= rate {
		return false
	}
	*gene = kind.Generate(rng)
	return true
}
