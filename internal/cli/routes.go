package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/openapi-xt/internal/routes"
	"github.com/mark3labs/openapi-xt/internal/spec"
)

var routesRunner = runRoutes

func newRoutesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the alias-aware route map of an OpenAPI document",
		Long: "Print every METHOD:path key served by the document, canonical paths first and then x-route-aliases. " +
			"A key claimed by two operations is won by the later one unless --strict is set.",
		Example: strings.TrimSpace(`  openapi-xt routes --input openapi.yaml
  openapi-xt routes -i openapi.yaml --strict
  openapi-xt routes -i openapi.yaml --match "GET /members/42"`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, "table", "json", "yaml")
			if err != nil {
				return err
			}
			return routesRunner(cmd.Context(), cfg, streamsFor(cmd))
		},
	}

	addInputFlags(cmd.Flags())
	addFormatFlag(cmd.Flags(), "table", "json", "yaml")
	cmd.Flags().Bool("strict", false, "Fail when two operations claim the same route")
	cmd.Flags().String("match", "", `Resolve a concrete request such as "GET /users/42" against the map`)
	return cmd
}

type routeView struct {
	Key         string `json:"key" yaml:"key"`
	Method      string `json:"method" yaml:"method"`
	Path        string `json:"path" yaml:"path"`
	Canonical   string `json:"canonical" yaml:"canonical"`
	Alias       bool   `json:"alias" yaml:"alias"`
	OperationID string `json:"operationId,omitempty" yaml:"operationId,omitempty"`
}

type conflictView struct {
	Key      string    `json:"key" yaml:"key"`
	Previous routeView `json:"previous" yaml:"previous"`
	Current  routeView `json:"current" yaml:"current"`
}

type routeMapView struct {
	Routes    []routeView    `json:"routes" yaml:"routes"`
	Conflicts []conflictView `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
}

type matchView struct {
	Request string            `json:"request" yaml:"request"`
	Route   routeView         `json:"route" yaml:"route"`
	Params  map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

func toRouteView(r routes.Route) routeView {
	v := routeView{
		Key:       r.Key,
		Method:    r.Method.Upper(),
		Path:      r.Path,
		Canonical: r.Canonical,
		Alias:     r.Alias,
	}
	if r.Operation != nil {
		v.OperationID = r.Operation.OperationID
	}
	return v
}

func runRoutes(ctx context.Context, cfg *Config, s streams) error {
	logger := newLogger(s.err, cfg.Verbose)
	doc, err := loadDocument(ctx, cfg, s, logger)
	if err != nil {
		return err
	}

	opts := []routes.Option{routes.WithLogger(logger)}
	if cfg.Strict {
		opts = append(opts, routes.WithStrictConflicts())
	}
	rm, err := routes.Build(doc, opts...)
	if err != nil {
		return specFailure(err)
	}
	logger.Debug("built route map", "routes", rm.Len(), "conflicts", len(rm.Conflicts()))

	if cfg.Match != "" {
		return printMatch(s, cfg, rm)
	}

	view := routeMapView{Routes: []routeView{}}
	for _, r := range rm.Routes() {
		view.Routes = append(view.Routes, toRouteView(r))
	}
	for _, c := range rm.Conflicts() {
		view.Conflicts = append(view.Conflicts, conflictView{
			Key:      c.Key,
			Previous: toRouteView(c.Previous),
			Current:  toRouteView(c.Current),
		})
	}

	if cfg.Format != "table" {
		return writeStructured(s.out, cfg.Format, view)
	}
	tw := newTable(s.out)
	fmt.Fprintln(tw, "KEY\tCANONICAL\tALIAS\tOPERATION")
	for _, r := range view.Routes {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", r.Key, r.Canonical, r.Alias, orDash(r.OperationID))
	}
	return tw.Flush()
}

func printMatch(s streams, cfg *Config, rm *routes.RouteMap) error {
	method, path, err := parseRequest(cfg.Match)
	if err != nil {
		return err
	}
	r, params, ok := rm.Match(method, path)
	if !ok {
		return usageErrorf("routes: no route matches %s %s", method.Upper(), path)
	}

	view := matchView{Request: method.Upper() + " " + path, Route: toRouteView(r), Params: params}
	if cfg.Format != "table" {
		return writeStructured(s.out, cfg.Format, view)
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	bound := make([]string, 0, len(names))
	for _, name := range names {
		bound = append(bound, name+"="+params[name])
	}
	tw := newTable(s.out)
	fmt.Fprintln(tw, "REQUEST\tKEY\tCANONICAL\tOPERATION\tPARAMS")
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", view.Request, r.Key, r.Canonical, orDash(view.Route.OperationID), cell(bound))
	return tw.Flush()
}

// parseRequest splits "GET /users/42" (or "GET:/users/42").
func parseRequest(raw string) (spec.HttpMethod, string, error) {
	i := strings.IndexAny(raw, " :")
	if i < 0 {
		return "", "", usageErrorf("routes: --match wants \"METHOD /path\", got %q", raw)
	}
	path := strings.TrimSpace(raw[i+1:])
	m, ok := spec.ParseMethod(raw[:i])
	if !ok || !strings.HasPrefix(path, "/") {
		return "", "", usageErrorf("routes: --match wants \"METHOD /path\", got %q", raw)
	}
	return m, path, nil
}
