package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/genetica/internal/store"
)

const knapsackTOML = `[run]
problem = "knapsack"
generations = 30
population = 20
seed = 7
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "genetica.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

// useRunFlags sets the run command flags for the duration of the test.
func useRunFlags(t *testing.T, path string) {
	t.Helper()
	orig := []any{configPath, runSeed, runGenerations, saveResult, storeBackend, dataDir}
	configPath, runSeed, runGenerations, saveResult = path, 0, -1, false
	storeBackend, dataDir = store.BackendFS, t.TempDir()
	t.Cleanup(func() {
		configPath = orig[0].(string)
		runSeed = orig[1].(uint64)
		runGenerations = orig[2].(int)
		saveResult = orig[3].(bool)
		storeBackend = orig[4].(string)
		dataDir = orig[5].(string)
	})
}

func TestRunCommand_Knapsack(t *testing.T) {
	useRunFlags(t, writeConfig(t, knapsackTOML))

	var out bytes.Buffer
	if err := evolve(context.Background(), &out); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "items [") || !strings.Contains(text, "fitness: ") {
		t.Errorf("Unexpected output %q", text)
	}
	if !strings.Contains(text, "generations 30") {
		t.Errorf("Expected 30 generations, got %q", text)
	}
}

func TestRunCommand_DefaultSentence(t *testing.T) {
	useRunFlags(t, "")
	runGenerations = 20
	runSeed = 3

	var out bytes.Buffer
	if err := evolve(context.Background(), &out); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Sentences are capitalised and end with a period, followed by the structure
	firstLine := strings.SplitN(out.String(), "\n", 2)[0]
	if !strings.Contains(firstLine, ". [") {
		t.Errorf("Expected a sentence with its structure, got %q", firstLine)
	}
}

func TestRunCommand_GenerationOverride(t *testing.T) {
	useRunFlags(t, writeConfig(t, knapsackTOML))
	runGenerations = 0

	var out bytes.Buffer
	if err := evolve(context.Background(), &out); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out.String(), "generations 0") {
		t.Errorf("Expected override to 0 generations, got %q", out.String())
	}
}

func TestRunCommand_InvalidConfigNamesFileAndField(t *testing.T) {
	path := writeConfig(t, "[run]\nproblem = \"knapsack\"\npopulation = 1\n")
	useRunFlags(t, path)

	err := evolve(context.Background(), &bytes.Buffer{})
	if err == nil {
		t.Fatal("Expected error for invalid config")
	}
	if !strings.Contains(err.Error(), path) || !strings.Contains(err.Error(), "run.population") {
		t.Errorf("Error should name the file and field, got %v", err)
	}
}

func TestRunCommand_UnknownKey(t *testing.T) {
	useRunFlags(t, writeConfig(t, "[run]\ngenerashuns = 3\n"))

	err := evolve(context.Background(), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "run.generashuns") {
		t.Errorf("Expected unknown key error, got %v", err)
	}
}

func TestRunCommand_MissingConfig(t *testing.T) {
	useRunFlags(t, filepath.Join(t.TempDir(), "missing.toml"))

	if err := evolve(context.Background(), &bytes.Buffer{}); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestRunCommand_Save(t *testing.T) {
	for _, backend := range []string{store.BackendFS, store.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			useRunFlags(t, writeConfig(t, knapsackTOML))
			saveResult = true
			storeBackend = backend

			var out bytes.Buffer
			if err := evolve(context.Background(), &out); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if !strings.Contains(out.String(), "saved run ") {
				t.Errorf("Expected save confirmation, got %q", out.String())
			}

			results, err := openStore(context.Background(), backend, dataDir)
			if err != nil {
				t.Fatalf("Failed to open store: %v", err)
			}
			defer store.CloseIfSupported(results)

			infos, err := results.List(context.Background())
			if err != nil {
				t.Fatalf("Failed to list results: %v", err)
			}
			if len(infos) != 1 || infos[0].Problem != "knapsack" {
				t.Errorf("Expected one knapsack result, got %+v", infos)
			}
		})
	}
}

func TestTuneCommand(t *testing.T) {
	origPath, origOpts := tuneConfigPath, tuneOpts
	t.Cleanup(func() { tuneConfigPath, tuneOpts = origPath, origOpts })

	tuneConfigPath = writeConfig(t, "[run]\nproblem = \"knapsack\"\ngenerations = 10\npopulation = 10\n")
	tuneOpts.Iterations = 2
	tuneOpts.Replicas = 2
	tuneOpts.Workers = 2

	var out bytes.Buffer
	if err := tuneRates(context.Background(), &out); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, want := range []string{"[run]", "crossover_probability = ", "mutation_probability = "} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected output to contain %q, got %q", want, out.String())
		}
	}
}
