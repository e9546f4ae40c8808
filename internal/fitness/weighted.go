// Package fitness composes weighted fitness functions from independent components.
package fitness

import "github.com/cwbudde/genetica/internal/evo"

// Component is one named, weighted contribution to a fitness score.
type Component[G any] struct {
	Name   string
	Weight float64
	Score  func(genes []G) float64
}

// ErrorComponent turns an error counter into a component worth weight/(errors+1).
func ErrorComponent[G any](name string, weight float64, count func(genes []G) int) Component[G] {
	return Component[G]{
		Name:   name,
		Weight: weight,
		Score: func(genes []G) float64 {
			return InverseErrors(1, count(genes))
		},
	}
}

// InverseErrors returns weight/(errors+1). Negative counts are treated as zero.
func InverseErrors(weight float64, errors int) float64 {
	if errors < 0 {
		errors = 0
	}
	return weight / float64(errors+1)
}

// Weighted returns a fitness function summing weight×score over the components.
// Components are summed in the order given so results are bit-for-bit reproducible.
func Weighted[G any](components ...Component[G]) evo.FitnessFunc[G] {
	active := make([]Component[G], 0, len(components))
	for _, c := range components {
		if c.Score != nil && c.Weight != 0 {
			active = append(active, c)
		}
	}
	return func(genes []G) float64 {
		var total float64
		for _, c := range active {
			total += c.Weight * c.Score(genes)
		}
		return total
	}
}

// Breakdown reports the weighted contribution of every component, keyed by name.
func Breakdown[G any](genes []G, components ...Component[G]) map[string]float64 {
	out := make(map[string]float64, len(components))
	for _, c := range components {
		if c.Score == nil {
			continue
		}
		out[c.Name] = c.Weight * c.Score(genes)
	}
	return out
}
