package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/genetica/internal/config"
	"github.com/cwbudde/genetica/internal/runner"
	"github.com/cwbudde/genetica/internal/store"
)

var (
	configPath     string
	runSeed        uint64
	runGenerations int
	saveResult     bool
	storeBackend   string
	dataDir        string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single evolution",
	Long: `Evolves the problem named in the config file and prints the best individual
and its fitness. Without --config the built-in defaults are used. Interrupting the run
stops it at the next generation boundary and prints the best individual so far.`,
	Args: cobra.NoArgs,
	RunE: runEvolution,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "TOML config file (defaults when empty)")
	runCmd.Flags().Uint64Var(&runSeed, "seed", 0, "Random seed (0 keeps the config value)")
	runCmd.Flags().IntVar(&runGenerations, "generations", -1, "Generations (-1 keeps the config value)")
	runCmd.Flags().BoolVar(&saveResult, "save", false, "Save the result to the result store")
	runCmd.Flags().StringVar(&storeBackend, "store", store.BackendFS, "Result store backend (fs, sqlite)")
	runCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Base directory for result storage")

	rootCmd.AddCommand(runCmd)
}

func runEvolution(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return evolve(ctx, os.Stdout)
}

// loadRunConfig reads path, or returns the defaults when path is empty, and applies the
// command line overrides.
func loadRunConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	if path == "" {
		def := config.Default()
		cfg = &def
	} else {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if runSeed != 0 {
		cfg.Run.Seed = runSeed
	}
	if runGenerations >= 0 {
		cfg.Run.Generations = runGenerations
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func evolve(ctx context.Context, out io.Writer) error {
	cfg, err := loadRunConfig(configPath)
	if err != nil {
		return err
	}

	slog.Info("Starting run",
		"config", configPath,
		"problem", cfg.Run.Problem,
		"generations", cfg.Run.Generations,
		"population", cfg.Run.Population,
		"seed", cfg.Run.Seed,
	)

	outcome, runErr := runner.Run(ctx, cfg, runner.Options{Logger: slog.Default()})
	if outcome == nil {
		return runErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	fmt.Fprintln(out, outcome.Summary)
	fmt.Fprintf(out, "fitness: %g (generations %d, %s)\n", outcome.Fitness, outcome.Generations, outcome.Elapsed.Round(time.Millisecond))
	if outcome.Stopped {
		fmt.Fprintln(out, "stopped early: interrupted")
	}

	if saveResult {
		saveCtx := context.WithoutCancel(ctx)
		results, err := openStore(saveCtx, storeBackend, dataDir)
		if err != nil {
			return err
		}
		defer store.CloseIfSupported(results)

		if err := results.Save(saveCtx, outcome.Result(cfg)); err != nil {
			return fmt.Errorf("failed to save result: %w", err)
		}
		fmt.Fprintf(out, "saved run %s\n", outcome.RunID)
	}
	return nil
}
