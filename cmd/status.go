package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/genetica/internal/runner"
	"github.com/cwbudde/genetica/internal/server"
)

var (
	serverURL string
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Query server status or specific run",
	Long: `Queries the server for run status information.
If no run-id is provided, lists all runs.
If run-id is provided, shows detailed status for that run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return listRuns(os.Stdout, fmt.Sprintf("%s/api/v1/runs", serverURL))
	}
	runID := args[0]
	return getRunStatus(os.Stdout, fmt.Sprintf("%s/api/v1/runs/%s/status", serverURL, runID), runID)
}

func listRuns(out io.Writer, url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var runs []server.Job
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found")
		return nil
	}

	fmt.Fprintf(out, "Found %d run(s):\n\n", len(runs))
	for _, run := range runs {
		fmt.Fprintf(out, "Run ID: %s\n", run.ID)
		fmt.Fprintf(out, "  State: %s\n", run.State)
		fmt.Fprintf(out, "  Problem: %s\n", run.Config.Run.Problem)
		fmt.Fprintf(out, "  Generation: %d/%d\n", run.Generation, run.Config.Run.Generations)
		fmt.Fprintf(out, "  Best Fitness: %g\n", run.BestFitness)
		if run.Result != nil {
			fmt.Fprintf(out, "  Best: %s\n", run.Result.Summary)
		}
		fmt.Fprintln(out)
	}

	return nil
}

// runStatusResponse mirrors the server status document.
type runStatusResponse struct {
	ID          string          `json:"id"`
	State       string          `json:"state"`
	Problem     string          `json:"problem"`
	Generation  int             `json:"generation"`
	Generations int             `json:"generations"`
	BestFitness float64         `json:"bestFitness"`
	MeanFitness float64         `json:"meanFitness"`
	Elapsed     float64         `json:"elapsed"`
	GPS         float64         `json:"gps"`
	Error       string          `json:"error"`
	Result      *runner.Outcome `json:"result"`
}

func getRunStatus(out io.Writer, url, runID string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("run not found: %s", runID)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var status runStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Fprintf(out, "Run: %s\n", status.ID)
	fmt.Fprintf(out, "State: %s\n", status.State)
	fmt.Fprintf(out, "Problem: %s\n", status.Problem)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Progress:")
	fmt.Fprintf(out, "  Generation: %d/%d\n", status.Generation, status.Generations)
	fmt.Fprintf(out, "  Best Fitness: %g\n", status.BestFitness)
	fmt.Fprintf(out, "  Mean Fitness: %g\n", status.MeanFitness)

	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Fprintf(out, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	if status.GPS > 0 {
		fmt.Fprintf(out, "  Throughput: %.0f generations/sec\n", status.GPS)
	}

	if status.Result != nil {
		fmt.Fprintf(out, "\nBest: %s\n", status.Result.Summary)
		if status.Result.Stopped {
			fmt.Fprintln(out, "(stopped before the final generation)")
		}
	}

	if status.Error != "" {
		fmt.Fprintf(out, "\nError: %s\n", status.Error)
	}

	return nil
}
