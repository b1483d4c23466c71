package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	invyaml "github.com/invopop/yaml"
	"github.com/spf13/cobra"

	"github.com/mark3labs/openapi-xt/internal/spec"
)

var exportRunner = runExport

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Re-emit a document through kin-openapi",
		Long: "Load a document, hand it to kin-openapi and print the result. Vendor extensions such as " +
			"x-route-aliases, x-custom-tags and x-permissions are carried through unchanged. " +
			"With --validate the document must also pass kin-openapi's validation.",
		Example: strings.TrimSpace(`  openapi-xt export --input openapi.yaml --validate
  openapi-xt export -i https://example.com/openapi.json -f yaml`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, "json", "yaml")
			if err != nil {
				return err
			}
			return exportRunner(cmd.Context(), cfg, streamsFor(cmd))
		},
	}

	addInputFlags(cmd.Flags())
	addFormatFlag(cmd.Flags(), "json", "yaml")
	cmd.Flags().Bool("validate", false, "Run kin-openapi validation before exporting")
	return cmd
}

func runExport(ctx context.Context, cfg *Config, s streams) error {
	logger := newLogger(s.err, cfg.Verbose)
	doc, err := loadDocument(ctx, cfg, s, logger)
	if err != nil {
		return err
	}

	t, err := spec.ToOpenAPI3(ctx, doc)
	if err != nil {
		return specFailure(err)
	}
	if cfg.Validate {
		if err := t.Validate(ctx); err != nil {
			return usageErrorf("export: document failed validation: %v", err)
		}
		logger.Debug("document passed validation")
	}

	var out []byte
	switch cfg.Format {
	case "yaml":
		out, err = invyaml.Marshal(t)
	default:
		var raw []byte
		raw, err = t.MarshalJSON()
		if err == nil {
			var buf bytes.Buffer
			err = json.Indent(&buf, raw, "", "  ")
			buf.WriteByte('\n')
			out = buf.Bytes()
		}
	}
	if err != nil {
		return fmt.Errorf("export: encode: %w", err)
	}
	_, err = s.out.Write(out)
	return err
}
