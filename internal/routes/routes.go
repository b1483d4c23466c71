// Package routes builds an alias-aware lookup of a document's operations.
package routes

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/openapi-xt/internal/extensions"
	"github.com/mark3labs/openapi-xt/internal/spec"
)

// Route is one entry of a RouteMap. For alias entries Path is the alias
// and Canonical the path the operation is declared under.
type Route struct {
	Key       string
	Method    spec.HttpMethod
	Path      string
	Canonical string
	Alias     bool
	Operation *spec.Operation
}

// Conflict records a key claimed by two different operations. Current
// replaced Previous.
type Conflict struct {
	Key      string
	Previous Route
	Current  Route
}

// RouteMap maps "METHOD:path" keys to routes. Keys keep the position of
// their first insertion.
type RouteMap struct {
	keys      []string
	routes    map[string]Route
	conflicts []Conflict
}

// Key builds the lookup key for method and path, e.g. "GET:/users".
func Key(method spec.HttpMethod, path string) string {
	return method.Upper() + ":" + path
}

type Option func(*config)

type config struct {
	logger *slog.Logger
	strict bool
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStrictConflicts makes Build fail with a ConflictError on the first
// key claimed by two operations instead of letting the later one win.
func WithStrictConflicts() Option {
	return func(c *config) { c.strict = true }
}

// Build indexes every operation under its canonical path and then under
// each of its aliases, in declaration order. A later entry replaces an
// earlier one with the same key.
func Build(doc *spec.Document, opts ...Option) (*RouteMap, error) {
	cfg := config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}
	rm := &RouteMap{routes: make(map[string]Route)}
	for _, ep := range doc.Operations() {
		canonical := Route{
			Key:       Key(ep.Method, ep.Path),
			Method:    ep.Method,
			Path:      ep.Path,
			Canonical: ep.Path,
			Operation: ep.Operation,
		}
		if err := rm.insert(canonical, cfg); err != nil {
			return nil, err
		}
		for _, alias := range extensions.Aliases(ep.Operation) {
			r := canonical
			r.Key = Key(ep.Method, alias)
			r.Path = alias
			r.Alias = true
			if err := rm.insert(r, cfg); err != nil {
				return nil, err
			}
		}
	}
	return rm, nil
}

func (rm *RouteMap) insert(r Route, cfg config) error {
	prev, exists := rm.routes[r.Key]
	if !exists {
		rm.keys = append(rm.keys, r.Key)
		rm.routes[r.Key] = r
		return nil
	}
	if prev.Operation != r.Operation {
		if cfg.strict {
			return &spec.SpecError{
				Code:    spec.ConflictError,
				Message: fmt.Sprintf("routes: %s declared by %s and %s", r.Key, describe(prev), describe(r)),
				Field:   r.Key,
			}
		}
		rm.conflicts = append(rm.conflicts, Conflict{Key: r.Key, Previous: prev, Current: r})
		cfg.logger.Warn("route shadowed", "key", r.Key, "previous", describe(prev), "current", describe(r))
	}
	rm.routes[r.Key] = r
	return nil
}

func describe(r Route) string {
	s := r.Method.Upper() + " " + r.Canonical
	if r.Alias {
		s += " (alias " + r.Path + ")"
	}
	return s
}

func (rm *RouteMap) Len() int { return len(rm.keys) }

// Keys returns the keys in first-insertion order.
func (rm *RouteMap) Keys() []string { return append([]string(nil), rm.keys...) }

// Routes returns the routes in key order.
func (rm *RouteMap) Routes() []Route {
	out := make([]Route, 0, len(rm.keys))
	for _, k := range rm.keys {
		out = append(out, rm.routes[k])
	}
	return out
}

// Lookup returns the route stored under key.
func (rm *RouteMap) Lookup(key string) (Route, bool) {
	r, ok := rm.routes[key]
	return r, ok
}

// Get returns the route for method and a path template or alias.
func (rm *RouteMap) Get(method spec.HttpMethod, path string) (Route, bool) {
	return rm.Lookup(Key(method, path))
}

// Conflicts lists every replacement of one operation by another.
func (rm *RouteMap) Conflicts() []Conflict { return append([]Conflict(nil), rm.conflicts...) }

// Match finds the route serving a concrete request path such as
// "/users/42". An exact key wins; otherwise the template with the most
// literal segments is chosen, earlier keys breaking ties. The returned map
// holds the values bound to {placeholders}.
func (rm *RouteMap) Match(method spec.HttpMethod, path string) (Route, map[string]string, bool) {
	if r, ok := rm.Get(method, path); ok {
		return r, map[string]string{}, true
	}
	prefix := method.Upper() + ":"
	segments := splitPath(path)
	var (
		best       Route
		bestParams map[string]string
		bestScore  = -1
	)
	for _, key := range rm.keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		r := rm.routes[key]
		params, score, ok := matchTemplate(splitPath(r.Path), segments)
		if ok && score > bestScore {
			best, bestParams, bestScore = r, params, score
		}
	}
	if bestScore < 0 {
		return Route{}, nil, false
	}
	return best, bestParams, true
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

func matchTemplate(template, segments []string) (map[string]string, int, bool) {
	if len(template) != len(segments) {
		return nil, 0, false
	}
	params := make(map[string]string)
	literals := 0
	for i, t := range template {
		if name, ok := placeholder(t); ok {
			if segments[i] == "" {
				return nil, 0, false
			}
			params[name] = segments[i]
			continue
		}
		if t != segments[i] {
			return nil, 0, false
		}
		literals++
	}
	return params, literals, true
}

func placeholder(segment string) (string, bool) {
	if len(segment) > 2 && strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
		return segment[1 : len(segment)-1], true
	}
	return "", false
}
