package evo

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// GenerationStats summarises an evaluated, ranked population.
type GenerationStats struct {
	Generation int           `json:"generation"`
	Size       int           `json:"size"`
	Best       float64       `json:"best"`
	Worst      float64       `json:"worst"`
	Mean       float64       `json:"mean"`
	StdDev     float64       `json:"stdDev"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Observer receives stats after each ranking.
type Observer func(GenerationStats)

// computeStats expects a ranked population, best first.
func computeStats[G any](generation int, ranked []*Individual[G]) GenerationStats {
	s := GenerationStats{Generation: generation, Size: len(ranked)}
	if len(ranked) == 0 {
		return s
	}

	scores := make([]float64, len(ranked))
	for i, ind := range ranked {
		scores[i] = ind.fitness
	}

	s.Best = scores[0]
	s.Worst = scores[len(scores)-1]
	if len(scores) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(scores, nil)
	} else {
		s.Mean = scores[0]
	}
	return s
}
