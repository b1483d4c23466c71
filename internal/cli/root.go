package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// Execute runs the openapi-xt CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// ExecuteContext runs the CLI; ctx cancels in-flight document fetches.
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "openapi-xt",
		Short: "Inspect OpenAPI 3.x documents and their x-route-aliases, x-custom-tags and x-permissions extensions",
		Long: "openapi-xt loads OpenAPI 3.x documents, lists their operations together with the route-alias, " +
			"custom-tag and permission extensions, builds alias-aware route maps and expands $ref schemas.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	cmd.SetFlagErrorFunc(flagError)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")

	for _, sub := range []*cobra.Command{
		newOpsCmd(),
		newRoutesCmd(),
		newSchemaCmd(),
		newExportCmd(),
		newValidateCmd(),
		newInitCmd(),
	} {
		sub.SetFlagErrorFunc(flagError)
		cmd.AddCommand(sub)
	}

	return cmd
}

func flagError(c *cobra.Command, err error) error {
	return usageErrorf("%v\n\n%s", err, c.UsageString())
}
