package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/frontend-diff/internal/bundle"
	"github.com/harrison/frontend-diff/internal/config"
	"github.com/harrison/frontend-diff/internal/logger"
)

// NewComponentsCommand creates the components command
func NewComponentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "components",
		Short: "List the components of a reference bundle",
		Args:  cobra.NoArgs,
		RunE:  componentsCommand,
	}

	cmd.Flags().String("reference-version", "", "Reference bundle version (tag or branch)")
	cmd.Flags().Bool("examples", false, "Also list example names per component")
	_ = cmd.MarkFlagRequired("reference-version")

	return cmd
}

func componentsCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, config.FlagOverrides{})
	if err != nil {
		return err
	}
	version, _ := cmd.Flags().GetString("reference-version")
	withExamples, _ := cmd.Flags().GetBool("examples")

	provider, err := newProvider(cfg, logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel))
	if err != nil {
		return err
	}
	b, err := provider.Ensure(cmd.Context(), version, bundle.EnsureOptions{})
	if err != nil {
		return err
	}
	names, err := b.Components()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range names {
		fmt.Fprintln(out, name)
		if !withExamples {
			continue
		}
		examples, err := b.Examples(name)
		if err != nil {
			fmt.Fprintf(out, "  (%v)\n", err)
			continue
		}
		for _, ex := range examples {
			fmt.Fprintf(out, "  - %s\n", ex.Name)
		}
	}
	return nil
}
