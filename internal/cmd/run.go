package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/frontend-diff/internal/candidate"
	"github.com/harrison/frontend-diff/internal/config"
	"github.com/harrison/frontend-diff/internal/executor"
	"github.com/harrison/frontend-diff/internal/history"
	"github.com/harrison/frontend-diff/internal/logger"
	"github.com/harrison/frontend-diff/internal/markup"
	"github.com/harrison/frontend-diff/internal/models"
	"github.com/harrison/frontend-diff/internal/report"
)

// ErrRunFailed is returned when at least one example failed.
var ErrRunFailed = errors.New("differential run failed")

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <renderer> [-- renderer-args...]",
		Short: "Compare a candidate renderer against the reference",
		Long: `Render every example of every selected component with the reference
bundle and with the candidate renderer, then diff the normalized markup.

The renderer is an executable or an http(s) URL. A single argument naming
an existing file runs as is, spaces included; pass an interpreter and its
arguments as separate words after --.
The page template takes part under the name "page-template".

Configuration is loaded from .frontend-diff/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  frontend-diff run ./render.sh --reference-version 5.0.0 --bundle-dir ./bundles
  frontend-diff run http://localhost:3000/render --reference-version 5.0.0 --include button,tag
  frontend-diff run --reference-version main --force-refresh -- node render.js
  frontend-diff run ./render.sh --reference-version 5.0.0 --format html --output report.html`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCommand,
	}

	cmd.Flags().String("reference-version", "", "Reference bundle version (tag or branch)")
	cmd.Flags().Bool("force-refresh", false, "Re-fetch the reference bundle even if cached")
	cmd.Flags().StringSlice("include", nil, "Only compare these components (comma-separated)")
	cmd.Flags().StringSlice("exclude", nil, "Skip these components (comma-separated)")
	cmd.Flags().Int("max-concurrency", 0, "Maximum number of concurrent candidate renders (0 = unlimited)")
	cmd.Flags().String("timeout", "", "Maximum run time (e.g., 30s, 10m)")
	cmd.Flags().String("format", "", "Report format: text, json, markdown, html")
	cmd.Flags().String("output", "", "Write the report to a file instead of stdout")
	cmd.Flags().Bool("failures-only", false, "Only list failing examples in the text report")
	cmd.Flags().String("log-dir", "", "Directory for run log files")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	_ = cmd.MarkFlagRequired("reference-version")

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	overrides, err := runOverrides(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, overrides)
	if err != nil {
		return err
	}

	version, _ := cmd.Flags().GetString("reference-version")
	forceRefresh, _ := cmd.Flags().GetBool("force-refresh")
	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	outputPath, _ := cmd.Flags().GetString("output")
	failuresOnly, _ := cmd.Flags().GetBool("failures-only")

	// Logs go to stderr so stdout carries only the report
	consoleLog := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	loggers := []executor.Logger{consoleLog}
	if cfg.LogDir != "" {
		logDir, err := config.ExpandPath(cfg.LogDir)
		if err != nil {
			return err
		}
		fileLog, err := logger.NewFileLoggerWithLevel(logDir, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer fileLog.Close()
		loggers = append(loggers, fileLog)
	}
	multiLog := &multiLogger{loggers: loggers}

	provider, err := newProvider(cfg, multiLog)
	if err != nil {
		return err
	}

	cand, target, err := selectCandidate(args)
	if err != nil {
		return err
	}

	diffOpts := []markup.Option{
		markup.WithIgnoredAttributes(cfg.IgnoreAttributes...),
		markup.WithContextLines(cfg.DiffContext),
	}
	if cfg.CompareComments {
		diffOpts = append(diffOpts, markup.WithComments())
	}
	differ := markup.NewDiffer(diffOpts...)

	orch := executor.NewOrchestrator(provider, cand, differ, multiLog, executor.Config{
		MaxConcurrency: cfg.MaxConcurrency,
		Timeout:        cfg.Timeout,
		Renderer:       target,
	})
	if progress := logger.NewTerminalProgress(); progress != nil && cmd.ErrOrStderr() == os.Stderr {
		orch.SetProgress(progress)
	}

	result, err := orch.Run(cmd.Context(), version, executor.Options{
		Include:      include,
		Exclude:      exclude,
		ForceRefresh: forceRefresh,
	})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if err := writeReport(cmd, cfg.Format, outputPath, result, failuresOnly); err != nil {
		return err
	}

	if cfg.History.Enabled {
		if err := recordHistory(cmd.Context(), cfg, result); err != nil {
			multiLog.LogWarn(fmt.Sprintf("Failed to record run history: %v", err))
		} else {
			multiLog.LogDebug(fmt.Sprintf("Recorded run %s", result.RunID))
		}
	}

	if !result.Success() {
		return fmt.Errorf("%w: %d of %d examples failed", ErrRunFailed, result.Failed, result.Total)
	}
	return nil
}

// runOverrides collects the explicitly set run flags.
func runOverrides(cmd *cobra.Command) (config.FlagOverrides, error) {
	var f config.FlagOverrides

	if cmd.Flags().Changed("max-concurrency") {
		v, _ := cmd.Flags().GetInt("max-concurrency")
		f.MaxConcurrency = &v
	}
	if cmd.Flags().Changed("timeout") {
		s, _ := cmd.Flags().GetString("timeout")
		timeout, err := time.ParseDuration(s)
		if err != nil {
			return f, fmt.Errorf("invalid timeout format %q: %w", s, err)
		}
		f.Timeout = &timeout
	}
	if cmd.Flags().Changed("format") {
		v, _ := cmd.Flags().GetString("format")
		f.Format = &v
	}
	if cmd.Flags().Changed("log-dir") {
		v, _ := cmd.Flags().GetString("log-dir")
		f.LogDir = &v
	}
	if cmd.Flags().Changed("no-history") {
		noHistory, _ := cmd.Flags().GetBool("no-history")
		enabled := !noHistory
		f.HistoryEnabled = &enabled
	}
	return f, nil
}

// selectCandidate builds the candidate renderer from the positional
// arguments and returns a description for the report.
func selectCandidate(args []string) (candidate.Renderer, string, error) {
	target := strings.Join(args, " ")
	if len(args) == 1 {
		r, err := candidate.Select(args[0])
		return r, target, err
	}
	return candidate.NewProcess(args[0], args[1:]...), target, nil
}

// writeReport writes the report to --output or stdout.
func writeReport(cmd *cobra.Command, format, outputPath string, result *models.RunReport, failuresOnly bool) error {
	var w io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		w = f
	}

	opts := report.TextOptions{Color: colorEnabled(w), FailuresOnly: failuresOnly}
	if err := report.Write(w, format, result, opts); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if outputPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", outputPath)
	}
	return nil
}

// recordHistory appends the run to the history database.
func recordHistory(ctx context.Context, cfg *config.Config, result *models.RunReport) error {
	dbPath, err := cfg.ResolveHistoryDB()
	if err != nil {
		return err
	}
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Record(ctx, result)
}
