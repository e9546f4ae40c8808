// Package knapsack encodes the 0/1 knapsack problem as fixed-length boolean genes.
package knapsack

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/cwbudde/genetica/internal/evo"
)

// MaxExhaustiveItems bounds the instance size Exhaustive will enumerate.
const MaxExhaustiveItems = 24

// Problem is a knapsack instance. Gene i selects item i.
type Problem struct {
	Values    []int `toml:"values" json:"values"`
	Weights   []int `toml:"weights" json:"weights"`
	MaxWeight int   `toml:"max_weight" json:"maxWeight"`
}

// Validate checks that the instance is well-formed.
func (p Problem) Validate() error {
	if len(p.Values) == 0 {
		return fmt.Errorf("knapsack has no items")
	}
	if len(p.Values) != len(p.Weights) {
		return fmt.Errorf("values and weights differ in length: %d vs %d", len(p.Values), len(p.Weights))
	}
	for i := range p.Values {
		if p.Values[i] < 0 {
			return fmt.Errorf("item %d has negative value %d", i, p.Values[i])
		}
		if p.Weights[i] < 0 {
			return fmt.Errorf("item %d has negative weight %d", i, p.Weights[i])
		}
	}
	if p.MaxWeight < 0 {
		return fmt.Errorf("max weight cannot be negative, got %d", p.MaxWeight)
	}
	return nil
}

// Items returns the number of items, which is also the gene count.
func (p Problem) Items() int {
	return len(p.Values)
}

// Kind generates uniformly random selections.
func Kind() evo.Kind[bool] {
	return evo.KindFunc[bool](func(rng *rand.Rand) bool {
		return rng.IntN(2) == 1
	})
}

// Totals sums value and weight of the selected items.
func (p Problem) Totals(genes []bool) (value, weight int) {
	for i, selected := range genes {
		if selected && i < len(p.Values) {
			value += p.Values[i]
			weight += p.Weights[i]
		}
	}
	return value, weight
}

// Fitness scores a selection by its total value, or 0 when it is overweight.
func (p Problem) Fitness() evo.FitnessFunc[bool] {
	return func(genes []bool) float64 {
		value, weight := p.Totals(genes)
		if weight > p.MaxWeight {
			return 0
		}
		return float64(value)
	}
}

// Exhaustive enumerates every selection and returns the best value and one selection
// achieving it.
func (p Problem) Exhaustive() (int, []bool, error) {
	n := p.Items()
	if n > MaxExhaustiveItems {
		return 0, nil, fmt.Errorf("exhaustive search limited to %d items, got %d", MaxExhaustiveItems, n)
	}

	bestValue, bestMask := 0, uint32(0)
	for mask := uint32(0); mask < 1<<n; mask++ {
		value, weight := 0, 0
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				value += p.Values[i]
				weight += p.Weights[i]
			}
		}
		if weight <= p.MaxWeight && value > bestValue {
			bestValue, bestMask = value, mask
		}
	}

	selection := make([]bool, n)
	for i := range selection {
		selection[i] = bestMask&(1<<i) != 0
	}
	return bestValue, selection, nil
}

// Selected returns the indices of the chosen items.
func Selected(genes []bool) []int {
	var out []int
	for i, g := range genes {
		if g {
			out = append(out, i)
		}
	}
	return out
}

// Describe renders a selection for display.
func (p Problem) Describe(genes []bool) string {
	value, weight := p.Totals(genes)

	var b strings.Builder
	b.WriteString("items [")
	for i, idx := range Selected(genes) {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%d", idx)
	}
	fmt.Fprintf(&b, "] value=%d weight=%d/%d", value, weight, p.MaxWeight)
	if weight > p.MaxWeight {
		b.WriteString(" (overweight)")
	}
	return b.String()
}
