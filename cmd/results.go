package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/genetica/internal/store"
)

var (
	resultsStore   string
	resultsDataDir string
	keepLast       int
	olderThanDays  int
	forceClean     bool
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Manage saved run results",
	Long: `Manage saved run results including listing, showing and cleaning old results.
Only the best individual of each run is stored.`,
}

var listResultsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved results",
	Long:  `Display all results with run ID, timestamp, problem, generations, fitness and summary.`,
	Args:  cobra.NoArgs,
	RunE:  runListResults,
}

var showResultCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show a saved result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowResult,
}

var cleanResultsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old results",
	Long: `Delete old results based on retention policy.
You can specify how many results to keep or delete results older than N days.`,
	Args: cobra.NoArgs,
	RunE: runCleanResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)

	resultsCmd.AddCommand(listResultsCmd)
	resultsCmd.AddCommand(showResultCmd)
	resultsCmd.AddCommand(cleanResultsCmd)

	resultsCmd.PersistentFlags().StringVar(&resultsStore, "store", store.BackendFS, "Result store backend (fs, sqlite)")
	resultsCmd.PersistentFlags().StringVar(&resultsDataDir, "data-dir", "./data", "Base directory for result storage")

	cleanResultsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the N most recent results (0 = keep all)")
	cleanResultsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete results older than N days (0 = no age limit)")
	cleanResultsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

// openStore opens the result store. The sqlite database lives in dir/results.db.
func openStore(ctx context.Context, backend, dir string) (store.Store, error) {
	path := dir
	if backend == store.BackendSQLite {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		path = filepath.Join(dir, "results.db")
	}
	results, err := store.NewStore(ctx, backend, path)
	if err != nil {
		return nil, fmt.Errorf("failed to create result store: %w", err)
	}
	return results, nil
}

func runListResults(cmd *cobra.Command, args []string) error {
	return listResults(context.Background(), os.Stdout)
}

func listResults(ctx context.Context, out io.Writer) error {
	results, err := openStore(ctx, resultsStore, resultsDataDir)
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(results)

	infos, err := results.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}

	if len(infos) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tTIMESTAMP\tPROBLEM\tGENERATIONS\tFITNESS\tSIZE\tBEST")
	fmt.Fprintln(w, "------\t---------\t-------\t-----------\t-------\t----\t----")

	for _, info := range infos {
		sizeStr := "-"
		if resultsStore == "" || resultsStore == store.BackendFS {
			if size, err := getDirSize(filepath.Join(resultsDataDir, "runs", info.RunID)); err == nil {
				sizeStr = formatBytes(size)
			}
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%s\t%s\n",
			shortID(info.RunID),
			info.Timestamp.Format("2006-01-02 15:04:05"),
			info.Problem,
			info.Generations,
			info.Fitness,
			sizeStr,
			info.Summary,
		)
	}

	w.Flush()

	fmt.Fprintf(out, "\nTotal results: %d\n", len(infos))
	return nil
}

func runShowResult(cmd *cobra.Command, args []string) error {
	return showResult(context.Background(), os.Stdout, args[0])
}

func showResult(ctx context.Context, out io.Writer, runID string) error {
	results, err := openStore(ctx, resultsStore, resultsDataDir)
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(results)

	result, err := results.Load(ctx, runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runCleanResults(cmd *cobra.Command, args []string) error {
	return cleanResults(context.Background(), os.Stdin, os.Stdout)
}

func cleanResults(ctx context.Context, in io.Reader, out io.Writer) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	results, err := openStore(ctx, resultsStore, resultsDataDir)
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(results)

	infos, err := results.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}

	if len(infos) == 0 {
		fmt.Fprintln(out, "No results to clean.")
		return nil
	}

	toDelete := selectResultsForDeletion(infos, keepLast, olderThanDays, time.Now())

	if len(toDelete) == 0 {
		fmt.Fprintln(out, "No results match deletion criteria.")
		return nil
	}

	fmt.Fprintf(out, "Found %d result(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Fprintf(out, "  - %s (%s, fitness %g, %s)\n",
			shortID(info.RunID),
			info.Problem,
			info.Fitness,
			info.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	if !forceClean {
		fmt.Fprint(out, "\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Fscanln(in, &response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	deleted := 0
	failed := 0
	for _, info := range toDelete {
		if err := results.Delete(ctx, info.RunID); err != nil {
			slog.Error("Failed to delete result", "run_id", info.RunID, "error", err)
			failed++
		} else {
			slog.Info("Deleted result", "run_id", info.RunID)
			deleted++
		}
	}

	fmt.Fprintf(out, "\nDeleted %d result(s), %d failed.\n", deleted, failed)
	return nil
}

// selectResultsForDeletion applies the retention policy: results older than
// olderThanDays, plus everything beyond the keepLast most recent. Either limit is
// ignored when zero.
func selectResultsForDeletion(infos []store.ResultInfo, keepLast, olderThanDays int, now time.Time) []store.ResultInfo {
	sorted := append([]store.ResultInfo(nil), infos...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	cutoff := now.AddDate(0, 0, -olderThanDays)
	var toDelete []store.ResultInfo
	for i, info := range sorted {
		tooOld := olderThanDays > 0 && info.Timestamp.Before(cutoff)
		beyondKeep := keepLast > 0 && i >= keepLast
		if tooOld || beyondKeep {
			toDelete = append(toDelete, info)
		}
	}
	return toDelete
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
