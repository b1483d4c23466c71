package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/openapi-xt/internal/resolver"
)

var schemaRunner = runSchema

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema <ref>",
		Short: "Resolve a $ref and print the fully expanded schema",
		Long: "Resolve a document-local $ref such as #/components/schemas/User (or just User) and print the schema " +
			"with every nested reference expanded. Cycles are cut and marked with x-circular, " +
			"unresolvable pointers with x-missing.",
		Example: strings.TrimSpace(`  openapi-xt schema User --input openapi.yaml
  openapi-xt schema '#/components/schemas/User' -i openapi.yaml --max-depth 4 -f json`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, "yaml", "json")
			if err != nil {
				return err
			}
			cfg.Ref = schemaPointer(args[0])
			return schemaRunner(cmd.Context(), cfg, streamsFor(cmd))
		},
	}

	addInputFlags(cmd.Flags())
	addFormatFlag(cmd.Flags(), "yaml", "json")
	cmd.Flags().Int("max-depth", resolver.DefaultMaxDepth, "Maximum nesting depth to expand")
	return cmd
}

// schemaPointer expands a bare component name into its pointer.
func schemaPointer(arg string) string {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "#") {
		return arg
	}
	return "#/components/schemas/" + arg
}

func runSchema(ctx context.Context, cfg *Config, s streams) error {
	logger := newLogger(s.err, cfg.Verbose)
	doc, err := loadDocument(ctx, cfg, s, logger)
	if err != nil {
		return err
	}

	r, err := resolver.New(doc)
	if err != nil {
		return err
	}
	if _, ok := r.Resolve(cfg.Ref); !ok {
		return usageErrorf("schema: %s does not resolve to a schema", cfg.Ref)
	}

	node := r.ExpandRef(cfg.Ref, resolver.WithMaxDepth(cfg.MaxDepth))
	logger.Debug("expanded schema", "ref", cfg.Ref, "maxDepth", cfg.MaxDepth)
	return writeStructured(s.out, cfg.Format, node.Value())
}
