package tune

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/genetica/internal/config"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func smallKnapsack() *config.Config {
	cfg := config.Default()
	cfg.Run.Problem = config.ProblemKnapsack
	cfg.Run.Generations = 20
	cfg.Run.Population = 10
	return &cfg
}

func smallSearch() Config {
	return Config{Iterations: 2, Population: 20, Replicas: 2, Workers: 2, Seed: 7}
}

func TestTuneFindsRatesWithinBounds(t *testing.T) {
	base := smallKnapsack()
	optimum, _, err := base.Knapsack.Exhaustive()
	require.NoError(t, err)

	result, err := Tune(context.Background(), base, smallSearch(), quiet())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.CrossoverProbability, 0.0)
	assert.LessOrEqual(t, result.CrossoverProbability, 1.0)
	assert.GreaterOrEqual(t, result.MutationProbability, 0.0)
	assert.LessOrEqual(t, result.MutationProbability, 1.0)
	assert.Greater(t, result.MeanFitness, 0.0)
	assert.LessOrEqual(t, result.MeanFitness, float64(optimum))
	assert.Greater(t, result.Evaluations, int64(0))
}

func TestTuneIsDeterministic(t *testing.T) {
	first, err := Tune(context.Background(), smallKnapsack(), smallSearch(), quiet())
	require.NoError(t, err)
	second, err := Tune(context.Background(), smallKnapsack(), smallSearch(), quiet())
	require.NoError(t, err)

	assert.Equal(t, first.CrossoverProbability, second.CrossoverProbability)
	assert.Equal(t, first.MutationProbability, second.MutationProbability)
	assert.Equal(t, first.MeanFitness, second.MeanFitness)
}

func TestTuneSentence(t *testing.T) {
	base := config.Default()
	base.Run.Generations = 10
	base.Run.Population = 10
	base.Sentence.WordCount = 3

	result, err := Tune(context.Background(), &base, smallSearch(), quiet())
	require.NoError(t, err)
	assert.Greater(t, result.MeanFitness, 0.0)
	assert.LessOrEqual(t, result.MeanFitness, 1.0)
}

func TestTuneHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Tune(ctx, smallKnapsack(), smallSearch(), quiet())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTuneRejectsBadInput(t *testing.T) {
	_, err := Tune(context.Background(), nil, smallSearch(), quiet())
	assert.Error(t, err)

	search := smallSearch()
	search.Replicas = 0
	_, err = Tune(context.Background(), smallKnapsack(), search, quiet())
	assert.Error(t, err)

	search = smallSearch()
	search.Iterations = 0
	_, err = Tune(context.Background(), smallKnapsack(), search, quiet())
	assert.Error(t, err)

	bad := smallKnapsack()
	bad.Run.Population = 1
	_, err = Tune(context.Background(), bad, smallSearch(), quiet())
	assert.Error(t, err)
}
