package evo

import (
	"errors"
	"math/rand/v2"
)

// ErrUnevaluated is returned when an operation needs fitness that has not been
// computed since the last structural change.
var ErrUnevaluated = errors.New("individual has no fitness")

// FitnessFunc scores a gene sequence. Higher is better. It must only read genes and
// shared read-only data, since it runs concurrently across individuals.
type FitnessFunc[G any] func(genes []G) float64

// Individual is an ordered gene sequence with a cached fitness.
type Individual[G any] struct {
	genes     []G
	fitness   float64
	evaluated bool
}

// NewIndividual builds an individual of n freshly generated genes.
func NewIndividual[G any](kind Kind[G], n int, rng *rand.Rand) *Individual[G] {
	genes := make([]G, n)
	for i := range genes {
		genes[i] = kind.Generate(rng)
	}
	return &Individual[G]{genes: genes}
}

// FromGenes builds an unevaluated individual from a copy of genes.
func FromGenes[G any](genes []G) *Individual[G] {
	return &Individual[G]{genes: append([]G(nil), genes...)}
}

// Genes returns the gene sequence. Callers must not modify it; use MutateGenes or
// build a new individual instead.
func (ind *Individual[G]) Genes() []G {
	return ind.genes
}

// Len returns the number of genes.
func (ind *Individual[G]) Len() int {
	return len(ind.genes)
}

// Fitness returns the cached fitness and whether it is current.
func (ind *Individual[G]) Fitness() (float64, bool) {
	return ind.fitness, ind.evaluated
}

// Evaluated reports whether the cached fitness is current.
func (ind *Individual[G]) Evaluated() bool {
	return ind.evaluated
}

// Evaluate computes fitness with fn and caches it.
func (ind *Individual[G]) Evaluate(fn FitnessFunc[G]) float64 {
	ind.fitness = fn(ind.genes)
	ind.evaluated = true
	return ind.fitness
}

// MutateGenes mutates every gene independently and returns how many were replaced.
// Any non-zero rate invalidates the cached fitness.
func (ind *Individual[G]) MutateGenes(kind Kind[G], rate float64, rng *rand.Rand) int {
	replaced := 0
	for i := range ind.genes {
		if MutateGene(kind, &ind.genes[i], rate, rng) {
			replaced++
		}
	}
	if replaced > 0 || rate > 0 {
		ind.invalidate()
	}
	return replaced
}

// Clone returns an unevaluated deep copy of the gene sequence.
func (ind *Individual[G]) Clone() *Individual[G] {
	return FromGenes(ind.genes)
}

func (ind *Individual[G]) invalidate() {
	ind.fitness = 0
	ind.evaluated = false
}
