package resolver

import (
	"sort"

	"github.com/mark3labs/openapi-xt/internal/spec"
)

// DefaultMaxDepth bounds schema nesting during expansion.
const DefaultMaxDepth = 32

// Node is one position of an expanded schema tree. When the position was
// reached through a $ref, Ref holds the first pointer followed.
type Node struct {
	Ref string
	// Circular: Ref is already being expanded higher up this branch.
	Circular bool
	// Missing: Ref (or a pointer it led to) does not resolve.
	Missing bool
	// Truncated: the depth bound was reached before this position.
	Truncated bool

	Schema *spec.Schema
	Bool   *bool

	Properties           map[string]*Node
	Items                *Node
	AllOf                []*Node
	AnyOf                []*Node
	OneOf                []*Node
	AdditionalProperties *Node
}

type ExpandOption func(*expandConfig)

type expandConfig struct {
	maxDepth int
}

// WithMaxDepth sets the nesting bound. Values <= 0 keep the default.
func WithMaxDepth(n int) ExpandOption {
	return func(c *expandConfig) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

type expander struct {
	r        *Resolver
	maxDepth int
	active   map[string]bool
}

// Expand realizes s into a tree with every reachable $ref replaced by the
// schema it points at.
func (r *Resolver) Expand(s *spec.SchemaOrRef, opts ...ExpandOption) *Node {
	cfg := expandConfig{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}
	e := &expander{r: r, maxDepth: cfg.maxDepth, active: make(map[string]bool)}
	return e.expand(s, 0)
}

// ExpandRef expands the schema a pointer refers to.
func (r *Resolver) ExpandRef(ref string, opts ...ExpandOption) *Node {
	return r.Expand(&spec.SchemaOrRef{Ref: &spec.SchemaRef{Ref: ref}}, opts...)
}

func (e *expander) expand(s *spec.SchemaOrRef, depth int) *Node {
	if s == nil {
		return nil
	}
	n := &Node{Ref: s.Pointer()}
	if depth > e.maxDepth {
		n.Truncated = true
		return n
	}

	var chain []string
	defer func() {
		for _, ref := range chain {
			delete(e.active, ref)
		}
	}()
	for s.Ref != nil {
		ref := s.Ref.Ref
		if e.active[ref] {
			n.Circular = true
			return n
		}
		next, ok := e.r.Resolve(ref)
		if !ok {
			n.Missing = true
			return n
		}
		e.active[ref] = true
		chain = append(chain, ref)
		s = next
	}

	if s.Bool != nil {
		n.Bool = s.Bool
		return n
	}
	if s.Schema == nil {
		return n
	}
	n.Schema = s.Schema
	if len(s.Schema.Properties) > 0 {
		n.Properties = make(map[string]*Node, len(s.Schema.Properties))
		for name, prop := range s.Schema.Properties {
			n.Properties[name] = e.expand(prop, depth+1)
		}
	}
	n.Items = e.expand(s.Schema.Items, depth+1)
	n.AdditionalProperties = e.expand(s.Schema.AdditionalProperties, depth+1)
	n.AllOf = e.expandAll(s.Schema.AllOf, depth+1)
	n.AnyOf = e.expandAll(s.Schema.AnyOf, depth+1)
	n.OneOf = e.expandAll(s.Schema.OneOf, depth+1)
	return n
}

func (e *expander) expandAll(list []*spec.SchemaOrRef, depth int) []*Node {
	if len(list) == 0 {
		return nil
	}
	out := make([]*Node, 0, len(list))
	for _, s := range list {
		out = append(out, e.expand(s, depth))
	}
	return out
}

// PropertyNames returns the node's property names sorted.
func (n *Node) PropertyNames() []string {
	if n == nil {
		return nil
	}
	names := make([]string, 0, len(n.Properties))
	for name := range n.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Value renders the expanded tree as plain maps for serialization.
// Circular, missing and truncated positions keep their $ref and carry an
// x-circular, x-missing or x-truncated marker.
func (n *Node) Value() any {
	if n == nil {
		return nil
	}
	switch {
	case n.Circular:
		return map[string]any{"$ref": n.Ref, "x-circular": true}
	case n.Missing:
		return map[string]any{"$ref": n.Ref, "x-missing": true}
	case n.Truncated:
		return map[string]any{"$ref": n.Ref, "x-truncated": true}
	case n.Bool != nil:
		return *n.Bool
	case n.Schema == nil:
		return map[string]any{}
	}

	s := n.Schema
	out := make(map[string]any)
	for k, v := range s.Extensions {
		out[k] = v
	}
	if n.Ref != "" {
		out["x-ref"] = n.Ref
	}
	setIf(out, "type", len(s.Type) > 0, typeValue(s.Type))
	setIf(out, "format", s.Format != "", s.Format)
	setIf(out, "title", s.Title != "", s.Title)
	setIf(out, "description", s.Description != "", s.Description)
	setIf(out, "required", len(s.Required) > 0, s.Required)
	setIf(out, "enum", len(s.Enum) > 0, s.Enum)
	setIf(out, "nullable", s.Nullable, true)
	setIf(out, "example", s.Example != nil, s.Example)
	setIf(out, "default", s.Default != nil, s.Default)
	if len(n.Properties) > 0 {
		props := make(map[string]any, len(n.Properties))
		for name, child := range n.Properties {
			props[name] = child.Value()
		}
		out["properties"] = props
	}
	setIf(out, "items", n.Items != nil, n.Items.Value())
	setIf(out, "additionalProperties", n.AdditionalProperties != nil, n.AdditionalProperties.Value())
	setIf(out, "allOf", len(n.AllOf) > 0, values(n.AllOf))
	setIf(out, "anyOf", len(n.AnyOf) > 0, values(n.AnyOf))
	setIf(out, "oneOf", len(n.OneOf) > 0, values(n.OneOf))
	return out
}

func setIf(m map[string]any, key string, cond bool, v any) {
	if cond {
		m[key] = v
	}
}

func typeValue(t spec.SchemaType) any {
	if len(t) == 1 {
		return t[0]
	}
	return []string(t)
}

func values(nodes []*Node) []any {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Value())
	}
	return out
}
