package evo

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrArityMismatch is returned by fixed-length crossover when parents differ in length.
var ErrArityMismatch = errors.New("parents have different gene counts")

// Crossover recombines two parents into two children. Children are always unevaluated.
type Crossover[G any] func(p1, p2 *Individual[G], rate float64, rng *rand.Rand) (*Individual[G], *Individual[G], error)

// SinglePoint performs fixed-length single-point crossover.
//
// With probability rate a split index k is drawn uniformly from [0, N] and
// child1 = p1[:k] ++ p2[k:], child2 = p2[:k] ++ p1[k:]. Otherwise the children are
// copies of the parents.
func SinglePoint[G any](p1, p2 *Individual[G], rate float64, rng *rand.Rand) (*Individual[G], *Individual[G], error) {
	if p1.Len() != p2.Len() {
		return nil, nil, fmt.Errorf("single-point crossover: %w (%d vs %d)", ErrArityMismatch, p1.Len(), p2.Len())
	}
	if !recombine(rate, rng) {
		return p1.Clone(), p2.Clone(), nil
	}

	k := rng.IntN(p1.Len() + 1)
	return splice(p1.genes, p2.genes, k, k), splice(p2.genes, p1.genes, k, k), nil
}

// DynamicSinglePoint performs single-point crossover on parents of any length.
//
// Each parent gets its own split point, drawn uniformly within its own length:
// child1 = p1[:k1] ++ p2[k2:], child2 = p2[:k2] ++ p1[k1:]. Child lengths may differ
// from both parents; the total gene count is preserved.
func DynamicSinglePoint[G any](p1, p2 *Individual[G], rate float64, rng *rand.Rand) (*Individual[G], *Individual[G], error) {
	if !recombine(rate, rng) {
		return p1.Clone(), p2.Clone(), nil
	}

	k1 := rng.IntN(p1.Len() + 1)
	k2 := rng.IntN(p2.Len() + 1)
	return splice(p1.genes, p2.genes, k1, k2), splice(p2.genes, p1.genes, k2, k1), nil
}

func recombine(rate float64, rng *rand.Rand) bool {
	if rate <= 0 {
		return false
	}
	return rate >= 1 || rng.Float64() < rate
}

// splice returns head[:h] ++ tail[t:] as a new individual.
func splice[G any](head, tail []G, h, t int) *Individual[G] {
	genes := make([]G, 0, h+len(tail)-t)
	genes = append(genes, head[:h]...)
	genes = append(genes, tail[t:]...)
	return &Individual[G]{genes: genes}
}
