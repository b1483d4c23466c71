package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	// Input, when set, is written as an active input key instead of the
	// commented placeholder.
	Input   string
	Force   bool
	Verbose bool
}

const defaultConfigName = "openapi-xt.yaml"

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample openapi-xt configuration file",
		Long:  "Scaffold a commented openapi-xt configuration file that documents available options.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			input, err := cmd.Flags().GetString("input")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				Input:      input,
				Force:      force,
				Verbose:    verbose,
			}
			return initRunner(cmd.Context(), cfg, streamsFor(cmd))
		},
	}

	cmd.Flags().String("out", defaultConfigName, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")
	cmd.Flags().StringP("input", "i", "", "Document to record as the config's input")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig, s streams) error {
	logger := newLogger(s.err, cfg.Verbose)
	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigName
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return usageErrorf("init: %q already exists (use --force to overwrite)", absPath)
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return usageErrorf("init: cannot create parent directory: %v", err)
	}

	content := sampleConfig(cfg.Input)
	if err := ctx.Err(); err != nil {
		return err
	}

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return usageErrorf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err)
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return usageErrorf("init: cannot place file at %s: %v", absPath, err)
	}
	logger.Debug("sample config written", "path", absPath, "bytes", len(content))
	fmt.Fprintf(s.out, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfig renders sampleConfigYAML, activating the input key when one
// is given.
func sampleConfig(input string) string {
	content := strings.TrimSpace(sampleConfigYAML) + "\n"
	input = strings.TrimSpace(input)
	if input == "" {
		return content
	}
	return strings.Replace(content, "# input: ./openapi.yaml", "input: "+strconv.Quote(input), 1)
}

// sampleConfigYAML documents every key accepted by --config.
const sampleConfigYAML = `# openapi-xt configuration (YAML or JSON)
# All fields are optional. Command-line flags override config values.
# Keys are case-insensitive; dashes and underscores are ignored.

# Path or http(s) URL of the OpenAPI 3.x document. "-" reads stdin.
# input: ./openapi.yaml

# Output format. ops/routes/validate: table|json|yaml, schema: yaml|json,
# export: json|yaml.
# format: table

# Only include these HTTP methods (comma-separated or list).
# methods: [get, post]

# Only include paths matching one of these regular expressions.
# paths: ["^/users"]

# Only include operations with these tags (comma-separated or list).
# includeTags: [public]

# Exclude operations with these tags (comma-separated or list).
# excludeTags: [internal]

# Only include operations with an x-custom-tags entry of this category.
# category: visibility

# Maximum nesting depth for schema expansion.
# maxDepth: 32

# routes: fail on route collisions. validate: treat warnings as errors.
# strict: false

# export/validate: run kin-openapi validation.
# validate: false

# HTTP timeout (Go duration or seconds) and attempts for URL inputs.
# timeout: 10s
# retries: 3

# Enable verbose logging.
# verbose: false
`
