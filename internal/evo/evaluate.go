package evo

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// EvaluateAll computes fitness for every unevaluated individual.
//
// The population is split into contiguous, non-overlapping chunks, one per worker.
// Each worker writes only to individuals in its own chunk, so no locking is needed and
// the result does not depend on scheduling. Evaluation is never interrupted part-way;
// ctx is only checked before work starts.
func EvaluateAll[G any](ctx context.Context, population []*Individual[G], fn FitnessFunc[G], parallelism int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(population) == 0 {
		return nil
	}

	workers := parallelism
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(population))

	if workers == 1 {
		evaluateChunk(population, fn)
		return nil
	}

	p := pool.New().WithMaxGoroutines(workers)
	chunk := (len(population) + workers - 1) / workers
	for start := 0; start < len(population); start += chunk {
		part := population[start:min(start+chunk, len(population))]
		p.Go(func() {
			evaluateChunk(part, fn)
		})
	}
	p.Wait()

	return nil
}

func evaluateChunk[G any](part []*Individual[G], fn FitnessFunc[G]) {
	for _, ind := range part {
		if !ind.evaluated {
			ind.Evaluate(fn)
		}
	}
}
