package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/openapi-xt/internal/extensions"
	"github.com/mark3labs/openapi-xt/internal/spec"
)

var opsRunner = runOps

func newOpsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ops",
		Aliases: []string{"operations"},
		Short:   "List the operations of an OpenAPI document",
		Long: "List every declared operation with its route aliases, custom tags and permission flags. " +
			"Operations can be narrowed by method, path pattern, tag or custom tag category.",
		Example: strings.TrimSpace(`  openapi-xt ops --input openapi.yaml
  openapi-xt ops -i openapi.yaml --methods get,post --category visibility -f json`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, "table", "json", "yaml")
			if err != nil {
				return err
			}
			return opsRunner(cmd.Context(), cfg, streamsFor(cmd))
		},
	}

	addInputFlags(cmd.Flags())
	addFormatFlag(cmd.Flags(), "table", "json", "yaml")
	addFilterFlags(cmd.Flags())
	return cmd
}

type operationView struct {
	Method      string                `json:"method" yaml:"method"`
	Path        string                `json:"path" yaml:"path"`
	OperationID string                `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Summary     string                `json:"summary,omitempty" yaml:"summary,omitempty"`
	Tags        []string              `json:"tags,omitempty" yaml:"tags,omitempty"`
	Aliases     []string              `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	CustomTags  []spec.CustomTag      `json:"customTags,omitempty" yaml:"customTags,omitempty"`
	Permissions *spec.PermissionFlags `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Deprecated  bool                  `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
}

func runOps(ctx context.Context, cfg *Config, s streams) error {
	logger := newLogger(s.err, cfg.Verbose)
	doc, err := loadDocument(ctx, cfg, s, logger)
	if err != nil {
		return err
	}

	selected := selectOperations(doc, cfg)
	logger.Debug("selected operations", "total", len(doc.Operations()), "selected", len(selected))

	views := make([]operationView, 0, len(selected))
	for _, ep := range selected {
		op := ep.Operation
		views = append(views, operationView{
			Method:      ep.Method.Upper(),
			Path:        ep.Path,
			OperationID: op.OperationID,
			Summary:     op.Summary,
			Tags:        op.Tags,
			Aliases:     extensions.Aliases(op),
			CustomTags:  extensions.CustomTags(op),
			Permissions: extensions.Permissions(op),
			Deprecated:  op.Deprecated,
		})
	}

	if cfg.Format != "table" {
		return writeStructured(s.out, cfg.Format, views)
	}
	tw := newTable(s.out)
	fmt.Fprintln(tw, "METHOD\tPATH\tOPERATION\tALIASES\tCUSTOM TAGS\tPERMISSIONS\tROLES")
	for i, v := range views {
		op := selected[i].Operation
		var tags []string
		for _, t := range v.CustomTags {
			tags = append(tags, t.Name)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.Method,
			v.Path,
			orDash(v.OperationID),
			cell(v.Aliases),
			cell(tags),
			cell(extensions.RequiredPermissions(op)),
			cell(extensions.RequiredRoles(op)),
		)
	}
	return tw.Flush()
}

// selectOperations applies the configured filters in document order.
func selectOperations(doc *spec.Document, cfg *Config) []spec.Endpoint {
	opts := []spec.FilterOption{
		spec.WithMethods(cfg.Methods),
		spec.WithPathPatterns(cfg.Paths),
		spec.WithIncludeTags(cfg.IncludeTags),
		spec.WithExcludeTags(cfg.ExcludeTags),
	}
	if cfg.Category != "" {
		category := cfg.Category
		opts = append(opts, spec.WithPredicate(func(ep spec.Endpoint) bool {
			return len(extensions.TagsByCategory(ep.Operation, category)) > 0
		}))
	}
	return spec.FilterEndpoints(doc.Operations(), opts...)
}
