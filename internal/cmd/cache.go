package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/frontend-diff/internal/bundle"
	"github.com/harrison/frontend-diff/internal/config"
)

// NewCacheCommand creates the 'frontend-diff cache' command group
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or remove cached reference bundles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached reference bundles",
		Args:  cobra.NoArgs,
		RunE:  cacheListCommand,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clean [version]",
		Short: "Remove cached bundles (all of them when no version is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  cacheCleanCommand,
	})

	return cmd
}

func resolveCacheDir(cmd *cobra.Command) (string, error) {
	cfg, err := loadConfig(cmd, config.FlagOverrides{})
	if err != nil {
		return "", err
	}
	dir, err := cfg.ResolveCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve cache directory: %w", err)
	}
	return dir, nil
}

func cacheListCommand(cmd *cobra.Command, _ []string) error {
	dir, err := resolveCacheDir(cmd)
	if err != nil {
		return err
	}
	entries, err := bundle.ListCache(dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(out, "No cached bundles in %s\n", dir)
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%-20s %-20s %s\n", e.Marker.Version, e.Marker.FetchedAt.Local().Format("2006-01-02 15:04:05"), e.Marker.Source)
	}
	return nil
}

func cacheCleanCommand(cmd *cobra.Command, args []string) error {
	dir, err := resolveCacheDir(cmd)
	if err != nil {
		return err
	}
	version := ""
	if len(args) == 1 {
		version = args[0]
	}

	removed, err := bundle.CleanCache(dir, version)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached bundle(s)\n", removed)
	return nil
}
