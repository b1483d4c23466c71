package spec

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Endpoint is one flattened (path, method, operation) triple.
type Endpoint struct {
	Path      string
	Method    HttpMethod
	Operation *Operation
}

// ID returns "METHOD path", e.g. "GET /pets".
func (e Endpoint) ID() string { return e.Method.Upper() + " " + e.Path }

func (d *Document) Version() string {
	if d == nil {
		return ""
	}
	return d.OpenAPI
}

func (d *Document) GetInfo() *Info {
	if d == nil {
		return nil
	}
	return d.Info
}

func (d *Document) GetPaths() *Paths {
	if d == nil {
		return nil
	}
	return d.Paths
}

// Path returns the PathItem declared for path.
func (d *Document) Path(path string) (*PathItem, bool) {
	if d == nil || !d.Paths.Has(path) {
		return nil, false
	}
	return d.Paths.Get(path), true
}

// Operations flattens every declared operation: paths in document order,
// and within a path the verbs in Methods order.
func (d *Document) Operations() []Endpoint {
	if d == nil || d.Paths == nil {
		return nil
	}
	var out []Endpoint
	for _, p := range d.Paths.Keys() {
		item := d.Paths.Get(p)
		for _, m := range Methods {
			op := item.Operation(m)
			if op == nil {
				continue
			}
			out = append(out, Endpoint{Path: p, Method: m, Operation: op})
		}
	}
	return out
}

// ReplaceOperation returns a new Document in which the operation at
// (path, m) is op. Only the Document, its Paths and the touched PathItem
// are copied; d itself is left unchanged.
func (d *Document) ReplaceOperation(path string, m HttpMethod, op *Operation) (*Document, error) {
	item, ok := d.Path(path)
	if !ok {
		return nil, fmt.Errorf("spec: path %q: %w", path, ErrNotFound)
	}
	if item.Operation(m) == nil {
		return nil, fmt.Errorf("spec: %s %s: %w", m.Upper(), path, ErrNotFound)
	}
	out := *d
	out.Paths = d.Paths.clone()
	out.Paths.Set(path, item.WithOperation(m, op))
	return &out, nil
}

// Tree renders the document as generic maps and slices, the shape a
// JSON decoder would produce.
func (d *Document) Tree() (map[string]any, error) {
	var node yaml.Node
	if err := node.Encode(d); err != nil {
		return nil, fmt.Errorf("spec: encode document: %w", err)
	}
	var tree map[string]any
	if err := node.Decode(&tree); err != nil {
		return nil, fmt.Errorf("spec: encode document: %w", err)
	}
	return tree, nil
}

// MarshalYAMLBytes serializes the document as YAML, preserving path order.
func (d *Document) MarshalYAMLBytes() ([]byte, error) {
	return yaml.Marshal(d)
}

// MarshalJSONBytes serializes the document as JSON. Object keys are sorted.
func (d *Document) MarshalJSONBytes() ([]byte, error) {
	tree, err := d.Tree()
	if err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}
