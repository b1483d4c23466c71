package spec

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// ToOpenAPI3 hands the document to kin-openapi. Vendor extensions travel
// as plain x-* keys and end up in the Extensions maps of the kin types.
func ToOpenAPI3(ctx context.Context, doc *Document) (*openapi3.T, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	data, err := doc.MarshalJSONBytes()
	if err != nil {
		return nil, err
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	t, err := loader.LoadFromData(data)
	if err != nil {
		return nil, &SpecError{Code: ValidationError, Message: fmt.Sprintf("openapi3: %v", err), Cause: err}
	}
	return t, nil
}

// FromOpenAPI3 converts a kin-openapi document back into a Document. The
// usual minimal-contract checks apply.
func FromOpenAPI3(t *openapi3.T) (*Document, error) {
	if t == nil {
		return nil, fmt.Errorf("nil document")
	}
	data, err := t.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("openapi3: marshal: %w", err)
	}
	return Parse(data)
}
