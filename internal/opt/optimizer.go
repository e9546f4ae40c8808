// Package opt minimises continuous objectives over box-bounded parameter spaces.
package opt

import "fmt"

// Bound is the closed search interval of one parameter.
type Bound struct {
	Name  string
	Lower float64
	Upper float64
}

// Objective maps a parameter vector to a cost to minimise.
type Objective func(params []float64) float64

// Optimizer defines an optimization algorithm interface
type Optimizer interface {
	// Minimize searches within bounds and returns the best parameters and their cost.
	Minimize(objective Objective, bounds []Bound) ([]float64, float64, error)
}

func validateBounds(bounds []Bound) error {
	if len(bounds) == 0 {
		return fmt.Errorf("at least one bound is required")
	}
	for i, b := range bounds {
		if !(b.Lower < b.Upper) {
			return fmt.Errorf("bound %d (%s): lower %v must be below upper %v", i, b.Name, b.Lower, b.Upper)
		}
	}
	return nil
}
