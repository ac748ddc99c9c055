package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harrison/frontend-diff/internal/bundle"
	"github.com/harrison/frontend-diff/internal/config"
	"github.com/harrison/frontend-diff/internal/executor"
	"github.com/harrison/frontend-diff/internal/models"
)

// loadConfig loads the configuration named by --config (or the default
// .frontend-diff/config.yaml), merges the bundle flags shared by every
// command and validates the result.
func loadConfig(cmd *cobra.Command, extra config.FlagOverrides) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if cmd.Flags().Changed("bundle-url") {
		v, _ := cmd.Flags().GetString("bundle-url")
		extra.BundleURL = &v
	}
	if cmd.Flags().Changed("bundle-dir") {
		v, _ := cmd.Flags().GetString("bundle-dir")
		extra.BundleDir = &v
	}
	if cmd.Flags().Changed("cache-dir") {
		v, _ := cmd.Flags().GetString("cache-dir")
		extra.CacheDir = &v
	}
	cfg.MergeWithFlags(extra)

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// layout converts the configured bundle layout.
func layout(cfg *config.Config) bundle.Layout {
	return bundle.Layout{
		ComponentsDir: cfg.Bundle.ComponentsDir,
		TemplateFile:  cfg.Bundle.TemplateFile,
		ExamplesFile:  cfg.Bundle.ExamplesFile,
		PageTemplate:  cfg.Bundle.PageTemplate,
	}
}

// newProvider builds the bundle provider for the configured source.
func newProvider(cfg *config.Config, log bundle.Logger) (*bundle.Provider, error) {
	if err := cfg.RequireSource(); err != nil {
		return nil, err
	}
	cacheDir, err := cfg.ResolveCacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory: %w", err)
	}

	var fetcher bundle.Fetcher
	if cfg.Bundle.SourceDir != "" {
		dir, err := config.ExpandPath(cfg.Bundle.SourceDir)
		if err != nil {
			return nil, err
		}
		fetcher = bundle.NewDirFetcher(dir)
	} else {
		fetcher = bundle.NewArchiveFetcher(cfg.Bundle.URLTemplate)
	}

	return bundle.NewProvider(bundle.ProviderConfig{
		CacheDir: cacheDir,
		Layout:   layout(cfg),
	}, fetcher, log), nil
}

// colorEnabled reports whether w is an interactive terminal.
func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// multiLogger implements executor.Logger by delegating to multiple loggers
type multiLogger struct {
	loggers []executor.Logger
}

func (ml *multiLogger) LogDebug(message string) {
	for _, l := range ml.loggers {
		l.LogDebug(message)
	}
}

func (ml *multiLogger) LogInfo(message string) {
	for _, l := range ml.loggers {
		l.LogInfo(message)
	}
}

func (ml *multiLogger) LogWarn(message string) {
	for _, l := range ml.loggers {
		l.LogWarn(message)
	}
}

func (ml *multiLogger) LogError(message string) {
	for _, l := range ml.loggers {
		l.LogError(message)
	}
}

func (ml *multiLogger) LogRunStart(version string, components int) {
	for _, l := range ml.loggers {
		l.LogRunStart(version, components)
	}
}

func (ml *multiLogger) LogComponentResult(outcome models.ComponentOutcome) {
	for _, l := range ml.loggers {
		l.LogComponentResult(outcome)
	}
}

func (ml *multiLogger) LogSummary(report *models.RunReport) {
	for _, l := range ml.loggers {
		l.LogSummary(report)
	}
}
