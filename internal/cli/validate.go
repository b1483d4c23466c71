package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/openapi-xt/internal/extensions"
	"github.com/mark3labs/openapi-xt/internal/resolver"
	"github.com/mark3labs/openapi-xt/internal/routes"
	"github.com/mark3labs/openapi-xt/internal/spec"
)

var validateRunner = runValidate

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a document and its vendor extensions",
		Long: "Check the minimal OpenAPI 3.x contract, the shape of x-route-aliases, x-custom-tags and x-permissions, " +
			"dangling $ref pointers and route collisions. Errors fail the command; warnings only fail it with --strict. " +
			"--validate adds kin-openapi's full validation.",
		Example: strings.TrimSpace(`  openapi-xt validate --input openapi.yaml
  openapi-xt validate -i openapi.yaml --strict --validate -f json`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, "table", "json", "yaml")
			if err != nil {
				return err
			}
			return validateRunner(cmd.Context(), cfg, streamsFor(cmd))
		},
	}

	addInputFlags(cmd.Flags())
	addFormatFlag(cmd.Flags(), "table", "json", "yaml")
	cmd.Flags().Bool("strict", false, "Treat warnings as errors")
	cmd.Flags().Bool("validate", false, "Also run kin-openapi validation")
	return cmd
}

const (
	levelError   = "error"
	levelWarning = "warning"
)

type issue struct {
	Level    string `json:"level" yaml:"level"`
	Location string `json:"location" yaml:"location"`
	Message  string `json:"message" yaml:"message"`
}

type report struct {
	Title      string  `json:"title" yaml:"title"`
	Version    string  `json:"version" yaml:"version"`
	OpenAPI    string  `json:"openapi" yaml:"openapi"`
	Paths      int     `json:"paths" yaml:"paths"`
	Operations int     `json:"operations" yaml:"operations"`
	Issues     []issue `json:"issues" yaml:"issues"`
}

func runValidate(ctx context.Context, cfg *Config, s streams) error {
	logger := newLogger(s.err, cfg.Verbose)
	doc, err := loadDocument(ctx, cfg, s, logger)
	if err != nil {
		return err
	}

	rep := report{
		Title:      doc.Info.Title,
		Version:    doc.Info.Version,
		OpenAPI:    doc.Version(),
		Paths:      doc.Paths.Len(),
		Operations: len(doc.Operations()),
		Issues:     []issue{},
	}
	rep.Issues = append(rep.Issues, checkExtensions(doc)...)

	refIssues, err := checkRefs(doc)
	if err != nil {
		return err
	}
	rep.Issues = append(rep.Issues, refIssues...)

	rm, err := routes.Build(doc, routes.WithLogger(logger))
	if err != nil {
		return specFailure(err)
	}
	for _, c := range rm.Conflicts() {
		rep.Issues = append(rep.Issues, issue{
			Level:    levelWarning,
			Location: c.Key,
			Message: fmt.Sprintf("%s %s shadows %s %s",
				c.Current.Method.Upper(), c.Current.Canonical, c.Previous.Method.Upper(), c.Previous.Canonical),
		})
	}

	if cfg.Validate {
		t, err := spec.ToOpenAPI3(ctx, doc)
		if err == nil {
			err = t.Validate(ctx)
		}
		if err != nil {
			rep.Issues = append(rep.Issues, issue{Level: levelError, Location: "#", Message: err.Error()})
		}
	}

	if err := printReport(s, cfg.Format, rep); err != nil {
		return err
	}

	errs, warns := 0, 0
	for _, is := range rep.Issues {
		if is.Level == levelError {
			errs++
		} else {
			warns++
		}
	}
	logger.Debug("validation finished", "errors", errs, "warnings", warns)
	if errs > 0 || (cfg.Strict && warns > 0) {
		return fmt.Errorf("validate: %d error(s), %d warning(s)", errs, warns)
	}
	return nil
}

// checkExtensions reports extension values that were kept raw or whose
// content is not usable.
func checkExtensions(doc *spec.Document) []issue {
	var out []issue
	for _, key := range sortedKeys(doc.Unparsed) {
		out = append(out, issue{levelWarning, "#", fmt.Sprintf("%s has an unexpected shape and is kept verbatim", key)})
	}
	for _, ep := range doc.Operations() {
		op := ep.Operation
		loc := ep.ID()
		if raw, ok := extensions.RawExtension(op, spec.ExtRouteAliases); ok && !extensions.ValidateAliasesValue(raw) {
			out = append(out, issue{levelError, loc, spec.ExtRouteAliases + " must be a list of absolute path templates"})
		}
		if raw, ok := extensions.RawExtension(op, spec.ExtCustomTags); ok {
			if problem := describeTagProblem(raw); problem != "" {
				out = append(out, issue{levelError, loc, spec.ExtCustomTags + " " + problem})
			} else {
				out = append(out, issue{levelWarning, loc, spec.ExtCustomTags + " carries unknown attributes and is kept verbatim"})
			}
		}
		if raw, ok := extensions.RawExtension(op, spec.ExtPermissions); ok {
			if !extensions.ValidatePermissions(raw) {
				out = append(out, issue{levelError, loc, spec.ExtPermissions + " fields must be lists of strings"})
			} else {
				out = append(out, issue{levelWarning, loc, spec.ExtPermissions + " carries unknown fields and is kept verbatim"})
			}
		}
		for _, key := range sortedKeys(op.Unparsed) {
			out = append(out, issue{levelWarning, loc, fmt.Sprintf("%s has an unexpected shape and is kept verbatim", key)})
		}
		for _, alias := range extensions.Aliases(op) {
			if !extensions.ValidateAlias(alias) {
				out = append(out, issue{levelError, loc, fmt.Sprintf("route alias %q is not an absolute path template", alias)})
			}
		}
		for _, tag := range extensions.CustomTags(op) {
			if !extensions.ValidateCustomTag(tag) {
				out = append(out, issue{levelError, loc, "custom tag without a name"})
			}
		}
	}
	return out
}

func describeTagProblem(raw any) string {
	list, ok := raw.([]any)
	if !ok {
		return "must be a list of tag objects"
	}
	for i, item := range list {
		if !extensions.ValidateCustomTagValue(item) {
			return fmt.Sprintf("entry %d needs a non-empty string name and string attributes", i)
		}
	}
	return ""
}


// checkRefs expands every component schema and every operation body
// schema and reports pointers that do not resolve.
func checkRefs(doc *spec.Document) ([]issue, error) {
	r, err := resolver.New(doc)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []issue
	check := func(loc string, s *spec.SchemaOrRef) {
		for _, ref := range missingRefs(r.Expand(s)) {
			key := loc + " " + ref
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, issue{levelError, loc, fmt.Sprintf("$ref %s does not resolve", ref)})
		}
	}

	if doc.Components != nil {
		for _, name := range sortedKeys(doc.Components.Schemas) {
			check("#/components/schemas/"+name, doc.Components.Schemas[name])
		}
	}
	for _, ep := range doc.Operations() {
		op := ep.Operation
		for _, p := range op.Parameters {
			if p != nil {
				check(ep.ID(), p.Schema)
			}
		}
		if op.RequestBody != nil {
			checkContent(ep.ID(), op.RequestBody.Content, check)
		}
		for _, code := range sortedKeys(op.Responses) {
			if resp := op.Responses[code]; resp != nil {
				checkContent(ep.ID(), resp.Content, check)
			}
		}
	}
	return out, nil
}

func checkContent(loc string, content map[string]*spec.MediaType, check func(string, *spec.SchemaOrRef)) {
	for _, mime := range sortedKeys(content) {
		if mt := content[mime]; mt != nil {
			check(loc, mt.Schema)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func missingRefs(n *resolver.Node) []string {
	if n == nil {
		return nil
	}
	if n.Missing {
		return []string{n.Ref}
	}
	var out []string
	for _, name := range n.PropertyNames() {
		out = append(out, missingRefs(n.Properties[name])...)
	}
	out = append(out, missingRefs(n.Items)...)
	out = append(out, missingRefs(n.AdditionalProperties)...)
	for _, group := range [][]*resolver.Node{n.AllOf, n.AnyOf, n.OneOf} {
		for _, child := range group {
			out = append(out, missingRefs(child)...)
		}
	}
	return out
}

func printReport(s streams, format string, rep report) error {
	if format != "table" {
		return writeStructured(s.out, format, rep)
	}
	fmt.Fprintf(s.out, "%s %s (openapi %s): %d paths, %d operations\n",
		rep.Title, rep.Version, rep.OpenAPI, rep.Paths, rep.Operations)
	if len(rep.Issues) == 0 {
		fmt.Fprintln(s.out, "no issues found")
		return nil
	}
	tw := newTable(s.out)
	fmt.Fprintln(tw, "LEVEL\tLOCATION\tMESSAGE")
	for _, is := range rep.Issues {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", is.Level, is.Location, is.Message)
	}
	return tw.Flush()
}
