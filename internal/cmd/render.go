package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/frontend-diff/internal/bundle"
	"github.com/harrison/frontend-diff/internal/config"
	"github.com/harrison/frontend-diff/internal/logger"
	"github.com/harrison/frontend-diff/internal/models"
	"github.com/harrison/frontend-diff/internal/reference"
)

// NewRenderCommand creates the render command
func NewRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a component or the page template with the reference",
		Long: `Render with the reference templates using the candidate protocol, so the
reference itself can be run as a candidate:

  frontend-diff render --reference-version 5.0.0 --component button --params '{"text":"Save"}'
  frontend-diff render --reference-version 5.0.0 --template --params '{"title":"Home"}'`,
		Args: cobra.NoArgs,
		RunE: renderCommand,
	}

	cmd.Flags().String("reference-version", "", "Reference bundle version (tag or branch)")
	cmd.Flags().String("component", "", "Component to render")
	cmd.Flags().Bool("template", false, "Render the page template")
	cmd.Flags().String("params", "{}", "Render parameters as a JSON object")
	cmd.MarkFlagsMutuallyExclusive("component", "template")
	cmd.MarkFlagsOneRequired("component", "template")
	_ = cmd.MarkFlagRequired("reference-version")

	return cmd
}

func renderCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, config.FlagOverrides{})
	if err != nil {
		return err
	}

	version, _ := cmd.Flags().GetString("reference-version")
	component, _ := cmd.Flags().GetString("component")
	template, _ := cmd.Flags().GetBool("template")
	rawParams, _ := cmd.Flags().GetString("params")

	var params map[string]any
	if err := json.Unmarshal([]byte(rawParams), &params); err != nil {
		return fmt.Errorf("invalid --params: %w", err)
	}

	req := models.ComponentRequest(component, params)
	if template {
		req = models.TemplateRequest(params)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	provider, err := newProvider(cfg, logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel))
	if err != nil {
		return err
	}
	b, err := provider.Ensure(cmd.Context(), version, bundle.EnsureOptions{})
	if err != nil {
		return err
	}

	out, err := reference.New(b).Render(cmd.Context(), req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
