package opt

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MinMayflyPopulation is the smallest population the mayfly library accepts.
const MinMayflyPopulation = 20

// MayflyAdapter wraps the external Mayfly library to conform to our Optimizer interface.
// Mayfly only takes scalar bounds, so the search runs in the unit cube and positions
// are mapped onto each parameter's own interval.
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a new Mayfly optimizer adapter
func NewMayfly(maxIters, popSize int, seed int64) *MayflyAdapter {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  max(popSize, MinMayflyPopulation),
		seed:     seed,
	}
}

// Minimize runs Mayfly over the given bounds.
func (m *MayflyAdapter) Minimize(objective Objective, bounds []Bound) ([]float64, float64, error) {
	if objective == nil {
		return nil, 0, fmt.Errorf("objective is required")
	}
	if err := validateBounds(bounds); err != nil {
		return nil, 0, err
	}
	if m.maxIters < 1 {
		return nil, 0, fmt.Errorf("max iterations must be positive, got %d", m.maxIters)
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(unit []float64) float64 {
		return objective(scale(unit, bounds))
	}
	config.ProblemSize = len(bounds)
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = 0
	config.UpperBound = 1
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, 0, fmt.Errorf("mayfly optimization failed: %w", err)
	}

	return scale(result.GlobalBest.Position, bounds), result.GlobalBest.Cost, nil
}

// scale maps a unit-cube position onto bounds, clamping stray coordinates.
func scale(unit []float64, bounds []Bound) []float64 {
	out := make([]float64, len(bounds))
	for i, b := range bounds {
		u := min(max(unit[i], 0), 1)
		out[i] = b.Lower + u*(b.Upper-b.Lower)
	}
	return out
}
