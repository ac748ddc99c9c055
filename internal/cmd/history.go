package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/frontend-diff/internal/config"
	"github.com/harrison/frontend-diff/internal/history"
	"github.com/harrison/frontend-diff/internal/models"
	"github.com/harrison/frontend-diff/internal/report"
)

// NewHistoryCommand creates the 'frontend-diff history' command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE:  historyListCommand,
	}
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 = all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the failing examples of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  historyShowCommand,
	})

	return cmd
}

// openHistory opens the history database, or returns nil when no run was
// ever recorded.
func openHistory(cmd *cobra.Command) (*history.Store, error) {
	cfg, err := loadConfig(cmd, config.FlagOverrides{})
	if err != nil {
		return nil, err
	}
	dbPath, err := cfg.ResolveHistoryDB()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve history database: %w", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil
	}
	store, err := history.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

func historyListCommand(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	out := cmd.OutOrStdout()

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	if store == nil {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	for _, r := range runs {
		status := green.Sprint("PASS")
		if r.Failed > 0 {
			status = red.Sprint("FAIL")
		}
		fmt.Fprintf(out, "%s  %s  %-12s %s  %d/%d passed  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Version,
			status,
			r.Passed,
			r.Total,
			r.Duration.Round(time.Millisecond),
		)
	}
	return nil
}

func historyShowCommand(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("%w: %s", history.ErrRunNotFound, args[0])
	}
	defer store.Close()

	run, err := store.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	failures, err := store.Failures(cmd.Context(), run.ID)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan, color.Bold)
	red := color.New(color.FgRed)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(out, "Run %s\n", run.ID)
	fmt.Fprintf(out, "  Version:  %s\n", run.Version)
	if run.Renderer != "" {
		fmt.Fprintf(out, "  Renderer: %s\n", run.Renderer)
	}
	fmt.Fprintf(out, "  Started:  %s\n", run.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "  Duration: %s\n", run.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  Result:   %d/%d passed\n", run.Passed, run.Total)

	if len(failures) == 0 {
		fmt.Fprintln(out, "\nNo failures")
		return nil
	}

	fmt.Fprintf(out, "\nFailures (%d):\n", len(failures))
	for _, f := range failures {
		red.Fprintf(out, "  ✘ %s → %s", f.Component, f.Example)
		fmt.Fprintf(out, " (%s)\n", f.Reason)
		if f.Error != "" {
			fmt.Fprintf(out, "    %s\n", f.Error)
		}
		for _, c := range f.Changes {
			fmt.Fprintf(out, "    - %s\n", report.DescribeChange(c))
		}
		if f.Unified != "" && f.Reason == models.ReasonMismatch {
			for _, line := range strings.Split(strings.TrimRight(f.Unified, "\n"), "\n") {
				gray.Fprintf(out, "      %s\n", line)
			}
		}
	}
	return nil
}
