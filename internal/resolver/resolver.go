// Package resolver follows document-local $ref pointers.
//
// Resolve performs a single hop and never detects cycles. Expand is the
// recursive consumer: it tracks the pointers on the current descent path
// and stops at re-entry, so self- and mutually-referential schemas
// terminate.
package resolver

import (
	"strings"
	"sync"

	"github.com/go-openapi/jsonpointer"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/openapi-xt/internal/spec"
)

const localPrefix = "#/"

// Resolver resolves pointers against a snapshot of one document.
type Resolver struct {
	tree map[string]any

	mu    sync.Mutex
	cache map[string]*spec.SchemaOrRef
}

// New snapshots doc. Later edits to doc are not seen by the Resolver.
func New(doc *spec.Document) (*Resolver, error) {
	tree, err := doc.Tree()
	if err != nil {
		return nil, err
	}
	return &Resolver{tree: tree, cache: make(map[string]*spec.SchemaOrRef)}, nil
}

// Resolve is a one-off lookup of ref in doc. Every call snapshots the
// whole document, so following a chain of pointers with repeated calls
// costs a full re-encode per hop. Callers that resolve more than once
// should build a Resolver with New and use its Resolve or Expand.
func Resolve(ref string, doc *spec.Document) (*spec.SchemaOrRef, bool) {
	if doc == nil {
		return nil, false
	}
	r, err := New(doc)
	if err != nil {
		return nil, false
	}
	return r.Resolve(ref)
}

// Lookup returns the raw value ref points at. Only "#/..." pointers are
// accepted; each segment is matched as an object key or sequence index.
func (r *Resolver) Lookup(ref string) (any, bool) {
	if !strings.HasPrefix(ref, localPrefix) {
		return nil, false
	}
	var node any = r.tree
	for _, segment := range strings.Split(ref[len(localPrefix):], "/") {
		next, _, err := jsonpointer.GetForToken(node, jsonpointer.Unescape(segment))
		if err != nil || next == nil {
			return nil, false
		}
		node = next
	}
	return node, true
}

// Resolve returns the schema ref points at. The result may itself be a
// reference; callers wanting a concrete schema keep hopping (see Expand).
func (r *Resolver) Resolve(ref string) (*spec.SchemaOrRef, bool) {
	r.mu.Lock()
	cached, hit := r.cache[ref]
	r.mu.Unlock()
	if hit {
		return cached, cached != nil
	}

	s := r.decode(ref)
	r.mu.Lock()
	r.cache[ref] = s
	r.mu.Unlock()
	return s, s != nil
}

func (r *Resolver) decode(ref string) *spec.SchemaOrRef {
	v, ok := r.Lookup(ref)
	if !ok {
		return nil
	}
	switch v.(type) {
	case map[string]any, bool:
	default:
		return nil
	}
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return nil
	}
	var s spec.SchemaOrRef
	if err := node.Decode(&s); err != nil {
		return nil
	}
	return &s
}
