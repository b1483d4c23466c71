package spec

import (
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Parse decodes YAML or JSON text into a Document after checking the
// minimal structural contract (see ParseObject). Text that cannot be
// decoded at all fails with a FormatError.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &SpecError{Code: FormatError, Message: fmt.Sprintf("spec: malformed document: %v", err), Cause: err}
	}
	if root.Kind == 0 || (root.Kind == yaml.DocumentNode && len(root.Content) == 0) {
		return nil, &SpecError{Code: FormatError, Message: "spec: malformed document: empty input"}
	}
	var candidate any
	if err := root.Decode(&candidate); err != nil {
		return nil, &SpecError{Code: FormatError, Message: fmt.Sprintf("spec: malformed document: %v", err), Cause: err}
	}
	obj, _ := asStringMap(candidate)
	if err := validate(obj); err != nil {
		return nil, err
	}
	return decode(&root)
}

// ParseObject validates an already-decoded document and converts it into
// a Document. Checks run in a fixed order and stop at the first failure:
// openapi present, openapi is 3.x, info present, info.title present,
// info.version present, paths present.
//
// Go maps carry no order, so paths built from candidate are sorted.
func ParseObject(candidate map[string]any) (*Document, error) {
	if err := validate(candidate); err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := node.Encode(candidate); err != nil {
		return nil, &SpecError{Code: FormatError, Message: fmt.Sprintf("spec: malformed document: %v", err), Cause: err}
	}
	return decode(&node)
}

func validate(obj map[string]any) error {
	version, ok := obj["openapi"]
	if !ok || version == nil {
		return missingField("openapi", "#/openapi")
	}
	if s, isStr := version.(string); !isStr || !strings.HasPrefix(s, "3.") {
		return &SpecError{
			Code:        ValidationError,
			Message:     fmt.Sprintf("spec: unsupported openapi version %v (expected 3.x)", version),
			Field:       "openapi",
			JSONPointer: "#/openapi",
		}
	}
	info, ok := asStringMap(obj["info"])
	if !ok {
		return missingField("info", "#/info")
	}
	if !present(info["title"]) {
		return missingField("info.title", "#/info/title")
	}
	if !present(info["version"]) {
		return missingField("info.version", "#/info/version")
	}
	if _, ok := asStringMap(obj["paths"]); !ok {
		return missingField("paths", "#/paths")
	}
	return nil
}

func present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	default:
		return true
	}
}

func asStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func decode(node *yaml.Node) (*Document, error) {
	var doc Document
	if err := node.Decode(&doc); err != nil {
		return nil, &SpecError{Code: ValidationError, Message: fmt.Sprintf("spec: decode document: %v", err), Cause: err}
	}
	if doc.Paths == nil {
		doc.Paths = NewPaths()
	}
	return &doc, nil
}

// Parser keeps the last successfully parsed Document. A failed parse
// leaves the previous Document in place.
type Parser struct {
	mu  sync.RWMutex
	doc *Document
}

func NewParser() *Parser { return &Parser{} }

func (p *Parser) Parse(data []byte) (*Document, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	p.install(doc)
	return doc, nil
}

func (p *Parser) ParseObject(candidate map[string]any) (*Document, error) {
	doc, err := ParseObject(candidate)
	if err != nil {
		return nil, err
	}
	p.install(doc)
	return doc, nil
}

func (p *Parser) install(doc *Document) {
	p.mu.Lock()
	p.doc = doc
	p.mu.Unlock()
}

// Spec returns the last parsed Document.
func (p *Parser) Spec() (*Document, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.doc, p.doc != nil
}

func (p *Parser) loaded() (*Document, error) {
	doc, ok := p.Spec()
	if !ok {
		return nil, errNoDocument()
	}
	return doc, nil
}

func (p *Parser) Paths() (*Paths, error) {
	doc, err := p.loaded()
	if err != nil {
		return nil, err
	}
	return doc.Paths, nil
}

// Path looks up a single declared path.
func (p *Parser) Path(path string) (*PathItem, bool, error) {
	doc, err := p.loaded()
	if err != nil {
		return nil, false, err
	}
	item, ok := doc.Path(path)
	return item, ok, nil
}

func (p *Parser) Operations() ([]Endpoint, error) {
	doc, err := p.loaded()
	if err != nil {
		return nil, err
	}
	return doc.Operations(), nil
}

func (p *Parser) Info() (*Info, error) {
	doc, err := p.loaded()
	if err != nil {
		return nil, err
	}
	return doc.Info, nil
}

func (p *Parser) Version() (string, error) {
	doc, err := p.loaded()
	if err != nil {
		return "", err
	}
	return doc.OpenAPI, nil
}
