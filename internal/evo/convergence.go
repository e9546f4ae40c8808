package evo

import (
	"log/slog"
	"math"
)

// ConvergenceConfig defines parameters for detecting that evolution has stalled.
type ConvergenceConfig struct {
	// Enabled controls whether convergence detection is active
	Enabled bool `toml:"enabled" json:"enabled"`

	// Patience is the number of generations with no significant improvement before stopping
	Patience int `toml:"patience" json:"patience"`

	// Threshold is the minimum relative improvement of the best fitness that counts as progress.
	// Relative improvement = (newBest - lastSignificant) / |lastSignificant|
	Threshold float64 `toml:"threshold" json:"threshold"`
}

// DefaultConvergenceConfig returns enabled detection with a patience of 20 generations.
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled:   true,
		Patience:  20,
		Threshold: 0.001,
	}
}

// DisabledConvergenceConfig returns a config with convergence detection disabled
func DisabledConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled: false,
	}
}

// ConvergenceTracker tracks best-fitness history and detects when evolution has stalled
type ConvergenceTracker struct {
	config          ConvergenceConfig
	history         []float64
	best            float64 // Best fitness ever seen
	lastSignificant float64 // Last fitness that was a significant improvement
	staleCount      int     // Generations without significant improvement
}

// NewConvergenceTracker creates a new convergence tracker with the given config
func NewConvergenceTracker(config ConvergenceConfig) *ConvergenceTracker {
	return &ConvergenceTracker{
		config:          config,
		best:            math.Inf(-1),
		lastSignificant: math.Inf(-1),
	}
}

// Update records the best fitness of a generation and returns true if convergence is detected
func (c *ConvergenceTracker) Update(fitness float64) bool {
	if !c.config.Enabled {
		return false
	}

	c.history = append(c.history, fitness)
	if fitness > c.best {
		c.best = fitness
	}

	if len(c.history) == 1 {
		c.lastSignificant = fitness
		return false
	}

	if c.improved(fitness) {
		c.lastSignificant = fitness
		c.staleCount = 0
		return false
	}

	c.staleCount++
	slog.Debug("No significant fitness improvement",
		"fitness", fitness,
		"last_significant", c.lastSignificant,
		"stale_count", c.staleCount,
		"patience", c.config.Patience,
	)

	if c.staleCount >= c.config.Patience {
		slog.Info("Convergence detected - stopping early",
			"stale_count", c.staleCount,
			"patience", c.config.Patience,
			"best_fitness", c.best,
		)
		return true
	}
	return false
}

func (c *ConvergenceTracker) improved(fitness float64) bool {
	gain := fitness - c.lastSignificant
	if gain <= 0 {
		return false
	}
	if c.lastSignificant == 0 {
		return true
	}
	return gain/math.Abs(c.lastSignificant) >= c.config.Threshold
}

// Best returns the best fitness seen so far
func (c *ConvergenceTracker) Best() float64 {
	return c.best
}

// History returns the full best-fitness history
func (c *ConvergenceTracker) History() []float64 {
	return append([]float64{}, c.history...)
}

// StaleCount returns the current number of generations without improvement
func (c *ConvergenceTracker) StaleCount() int {
	return c.staleCount
}

// Reset clears the tracker's state
func (c *ConvergenceTracker) Reset() {
	c.history = nil
	c.best = math.Inf(-1)
	c.lastSignificant = math.Inf(-1)
	c.staleCount = 0
}
