package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for frontend-diff
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frontend-diff",
		Short: "Differential testing of component renderers against a reference",
		Long: `frontend-diff renders every example of every component in a versioned
reference bundle with both the reference templates and a candidate renderer,
normalizes the two outputs and reports every structural difference.

The candidate is an executable invoked as
  <renderer> --component NAME --params JSON
  <renderer> --template --params JSON
or an http(s) endpoint receiving the render request as JSON.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .frontend-diff/config.yaml)")
	cmd.PersistentFlags().String("bundle-url", "", "Reference bundle tarball URL template containing {version}")
	cmd.PersistentFlags().String("bundle-dir", "", "Local directory holding one reference bundle per version")
	cmd.PersistentFlags().String("cache-dir", "", "Directory for cached reference bundles")
	cmd.PersistentFlags().Bool("verbose", false, "Show detailed progress")

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewRenderCommand())
	cmd.AddCommand(NewComponentsCommand())
	cmd.AddCommand(NewCacheCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
