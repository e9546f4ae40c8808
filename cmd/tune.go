package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/genetica/internal/config"
	"github.com/cwbudde/genetica/internal/tune"
)

var (
	tuneConfigPath string
	tuneOpts       = tune.DefaultConfig()
)

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Search for crossover and mutation probabilities",
	Long: `Runs a mayfly search over crossover_probability and mutation_probability.
Each candidate is scored by the mean best fitness of several seeded runs of the
config. The best pair is printed as a [run] snippet.`,
	Args: cobra.NoArgs,
	RunE: runTune,
}

func init() {
	tuneCmd.Flags().StringVar(&tuneConfigPath, "config", "", "TOML config file (defaults when empty)")
	tuneCmd.Flags().IntVar(&tuneOpts.Iterations, "iters", tuneOpts.Iterations, "Mayfly iterations")
	tuneCmd.Flags().IntVar(&tuneOpts.Population, "pop", tuneOpts.Population, "Mayfly population size")
	tuneCmd.Flags().IntVar(&tuneOpts.Replicas, "replicas", tuneOpts.Replicas, "Seeded runs averaged per candidate")
	tuneCmd.Flags().IntVar(&tuneOpts.Workers, "workers", tuneOpts.Workers, "Concurrent runs (0 = NumCPU)")
	tuneCmd.Flags().Int64Var(&tuneOpts.Seed, "seed", tuneOpts.Seed, "Search seed")

	rootCmd.AddCommand(tuneCmd)
}

func runTune(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return tuneRates(ctx, os.Stdout)
}

func tuneRates(ctx context.Context, out io.Writer) error {
	var base *config.Config
	if tuneConfigPath == "" {
		def := config.Default()
		base = &def
	} else {
		var err error
		if base, err = config.Load(tuneConfigPath); err != nil {
			return err
		}
	}

	slog.Info("Starting tuning",
		"config", tuneConfigPath,
		"problem", base.Run.Problem,
		"iterations", tuneOpts.Iterations,
		"replicas", tuneOpts.Replicas,
	)

	result, err := tune.Tune(ctx, base, tuneOpts, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to tune: %w", err)
	}

	fmt.Fprintln(out, "[run]")
	fmt.Fprintf(out, "crossover_probability = %.4f\n", result.CrossoverProbability)
	fmt.Fprintf(out, "mutation_probability = %.4f\n", result.MutationProbability)
	fmt.Fprintf(out, "# mean best fitness %g over %d candidates in %s\n",
		result.MeanFitness, result.Evaluations, result.Elapsed.Round(time.Millisecond))
	return nil
}
