package spec

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Document model for OpenAPI v3 documents. Only the fields the rest of the
// tool reads are typed; everything else is captured in Extensions maps and
// re-emitted unchanged. A typed member whose value has the wrong shape is
// kept in Unparsed instead of failing the decode (see lenient.go).

type HttpMethod string

const (
	GET     HttpMethod = "get"
	PUT     HttpMethod = "put"
	POST    HttpMethod = "post"
	DELETE  HttpMethod = "delete"
	OPTIONS HttpMethod = "options"
	HEAD    HttpMethod = "head"
	PATCH   HttpMethod = "patch"
	TRACE   HttpMethod = "trace"
)

// Methods lists the recognized verbs in flattening order.
var Methods = []HttpMethod{GET, PUT, POST, DELETE, OPTIONS, HEAD, PATCH, TRACE}

// ParseMethod maps a case-insensitive verb to a HttpMethod.
func ParseMethod(s string) (HttpMethod, bool) {
	m := HttpMethod(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, true
		}
	}
	return "", false
}

// Upper returns the verb as it appears on the wire, e.g. "GET".
func (m HttpMethod) Upper() string { return strings.ToUpper(string(m)) }

// Wire names of the vendor extensions lifted into typed Operation fields.
const (
	ExtRouteAliases = "x-route-aliases"
	ExtCustomTags   = "x-custom-tags"
	ExtPermissions  = "x-permissions"
)

type Document struct {
	OpenAPI      string                `yaml:"openapi"`
	Info         *Info                 `yaml:"info,omitempty"`
	Servers      []Server              `yaml:"servers,omitempty"`
	Paths        *Paths                `yaml:"paths,omitempty"`
	Components   *Components           `yaml:"components,omitempty"`
	Security     []SecurityRequirement `yaml:"security,omitempty"`
	Tags         []Tag                 `yaml:"tags,omitempty"`
	ExternalDocs *ExternalDocs         `yaml:"externalDocs,omitempty"`
	Extensions   map[string]any        `yaml:",inline"`
	Unparsed     map[string]any        `yaml:"-"`
}

type Info struct {
	Title          string         `yaml:"title"`
	Version        string         `yaml:"version"`
	Description    string         `yaml:"description,omitempty"`
	TermsOfService string         `yaml:"termsOfService,omitempty"`
	Contact        *Contact       `yaml:"contact,omitempty"`
	License        *License       `yaml:"license,omitempty"`
	Extensions     map[string]any `yaml:",inline"`
	Unparsed       map[string]any `yaml:"-"`
}

type Contact struct {
	Name       string         `yaml:"name,omitempty"`
	URL        string         `yaml:"url,omitempty"`
	Email      string         `yaml:"email,omitempty"`
	Extensions map[string]any `yaml:",inline"`
	Unparsed   map[string]any `yaml:"-"`
}

type License struct {
	Name       string         `yaml:"name"`
	URL        string         `yaml:"url,omitempty"`
	Extensions map[string]any `yaml:",inline"`
	Unparsed   map[string]any `yaml:"-"`
}

type Server struct {
	URL         string         `yaml:"url"`
	Description string         `yaml:"description,omitempty"`
	Variables   map[string]any `yaml:"variables,omitempty"`
	Extensions  map[string]any `yaml:",inline"`
	Unparsed    map[string]any `yaml:"-"`
}

type Tag struct {
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description,omitempty"`
	ExternalDocs *ExternalDocs  `yaml:"externalDocs,omitempty"`
	Extensions   map[string]any `yaml:",inline"`
	Unparsed     map[string]any `yaml:"-"`
}

type ExternalDocs struct {
	URL         string         `yaml:"url"`
	Description string         `yaml:"description,omitempty"`
	Extensions  map[string]any `yaml:",inline"`
	Unparsed    map[string]any `yaml:"-"`
}

// SecurityRequirement maps a security scheme name to the scopes it needs.
type SecurityRequirement map[string][]string

type Components struct {
	Schemas         map[string]*SchemaOrRef    `yaml:"schemas,omitempty"`
	Parameters      map[string]*Parameter      `yaml:"parameters,omitempty"`
	Responses       map[string]*Response       `yaml:"responses,omitempty"`
	RequestBodies   map[string]*RequestBody    `yaml:"requestBodies,omitempty"`
	SecuritySchemes map[string]*SecurityScheme `yaml:"securitySchemes,omitempty"`
	Extensions      map[string]any             `yaml:",inline"`
	Unparsed        map[string]any             `yaml:"-"`
}

type SecurityScheme struct {
	Type             string         `yaml:"type,omitempty"`
	Description      string         `yaml:"description,omitempty"`
	Name             string         `yaml:"name,omitempty"`
	In               string         `yaml:"in,omitempty"`
	Scheme           string         `yaml:"scheme,omitempty"`
	BearerFormat     string         `yaml:"bearerFormat,omitempty"`
	OpenIDConnectURL string         `yaml:"openIdConnectUrl,omitempty"`
	Ref              string         `yaml:"$ref,omitempty"`
	Extensions       map[string]any `yaml:",inline"`
	Unparsed         map[string]any `yaml:"-"`
}

// PathItem holds the operations declared under one path template.
type PathItem struct {
	Summary     string         `yaml:"summary,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Get         *Operation     `yaml:"get,omitempty"`
	Put         *Operation     `yaml:"put,omitempty"`
	Post        *Operation     `yaml:"post,omitempty"`
	Delete      *Operation     `yaml:"delete,omitempty"`
	Options     *Operation     `yaml:"options,omitempty"`
	Head        *Operation     `yaml:"head,omitempty"`
	Patch       *Operation     `yaml:"patch,omitempty"`
	Trace       *Operation     `yaml:"trace,omitempty"`
	Servers     []Server       `yaml:"servers,omitempty"`
	Parameters  []*Parameter   `yaml:"parameters,omitempty"`
	Extensions  map[string]any `yaml:",inline"`
	Unparsed    map[string]any `yaml:"-"`
}

// Operation returns the operation declared for m, or nil.
func (p *PathItem) Operation(m HttpMethod) *Operation {
	if p == nil {
		return nil
	}
	switch m {
	case GET:
		return p.Get
	case PUT:
		return p.Put
	case POST:
		return p.Post
	case DELETE:
		return p.Delete
	case OPTIONS:
		return p.Options
	case HEAD:
		return p.Head
	case PATCH:
		return p.Patch
	case TRACE:
		return p.Trace
	}
	return nil
}

// WithOperation returns a copy of p with the operation for m replaced.
func (p *PathItem) WithOperation(m HttpMethod, op *Operation) *PathItem {
	var out PathItem
	if p != nil {
		out = *p
	}
	switch m {
	case GET:
		out.Get = op
	case PUT:
		out.Put = op
	case POST:
		out.Post = op
	case DELETE:
		out.Delete = op
	case OPTIONS:
		out.Options = op
	case HEAD:
		out.Head = op
	case PATCH:
		out.Patch = op
	case TRACE:
		out.Trace = op
	}
	return &out
}

// Operation is one verb-specific entry of the API surface. The three
// vendor-extension facets are lifted out of Extensions into typed fields
// when their wire value has the expected shape; otherwise the raw value
// stays in Extensions and the typed field is left empty.
type Operation struct {
	Tags        []string              `yaml:"tags,omitempty"`
	Summary     string                `yaml:"summary,omitempty"`
	Description string                `yaml:"description,omitempty"`
	OperationID string                `yaml:"operationId,omitempty"`
	Parameters  []*Parameter          `yaml:"parameters,omitempty"`
	RequestBody *RequestBody          `yaml:"requestBody,omitempty"`
	Responses   map[string]*Response  `yaml:"responses,omitempty"`
	Deprecated  bool                  `yaml:"deprecated,omitempty"`
	Security    []SecurityRequirement `yaml:"security,omitempty"`
	Servers     []Server              `yaml:"servers,omitempty"`

	RouteAliases []string         `yaml:"-"`
	CustomTags   []CustomTag      `yaml:"-"`
	Permissions  *PermissionFlags `yaml:"-"`

	Extensions map[string]any `yaml:",inline"`
	Unparsed   map[string]any `yaml:"-"`
}

// CustomTag is an entry of x-custom-tags. Name is its identity.
type CustomTag struct {
	Name        string `yaml:"name" json:"name"`
	Category    string `yaml:"category,omitempty" json:"category,omitempty"`
	Color       string `yaml:"color,omitempty" json:"color,omitempty"`
	Icon        string `yaml:"icon,omitempty" json:"icon,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// PermissionFlags is the value of x-permissions.
type PermissionFlags struct {
	Required []string `yaml:"required,omitempty" json:"required,omitempty"`
	Optional []string `yaml:"optional,omitempty" json:"optional,omitempty"`
	Roles    []string `yaml:"roles,omitempty" json:"roles,omitempty"`
	Scopes   []string `yaml:"scopes,omitempty" json:"scopes,omitempty"`
}

type Parameter struct {
	Name        string         `yaml:"name,omitempty"`
	In          string         `yaml:"in,omitempty"` // path|query|header|cookie
	Description string         `yaml:"description,omitempty"`
	Required    bool           `yaml:"required,omitempty"`
	Deprecated  bool           `yaml:"deprecated,omitempty"`
	Schema      *SchemaOrRef   `yaml:"schema,omitempty"`
	Example     any            `yaml:"example,omitempty"`
	Ref         string         `yaml:"$ref,omitempty"`
	Extensions  map[string]any `yaml:",inline"`
	Unparsed    map[string]any `yaml:"-"`
}

type RequestBody struct {
	Description string                `yaml:"description,omitempty"`
	Required    bool                  `yaml:"required,omitempty"`
	Content     map[string]*MediaType `yaml:"content,omitempty"`
	Ref         string                `yaml:"$ref,omitempty"`
	Extensions  map[string]any        `yaml:",inline"`
	Unparsed    map[string]any        `yaml:"-"`
}

type Response struct {
	Description string                `yaml:"description,omitempty"`
	Content     map[string]*MediaType `yaml:"content,omitempty"`
	Headers     map[string]any        `yaml:"headers,omitempty"`
	Ref         string                `yaml:"$ref,omitempty"`
	Extensions  map[string]any        `yaml:",inline"`
	Unparsed    map[string]any        `yaml:"-"`
}

type MediaType struct {
	Schema     *SchemaOrRef   `yaml:"schema,omitempty"`
	Example    any            `yaml:"example,omitempty"`
	Examples   map[string]any `yaml:"examples,omitempty"`
	Extensions map[string]any `yaml:",inline"`
	Unparsed   map[string]any `yaml:"-"`
}

type Schema struct {
	Type                 SchemaType              `yaml:"type,omitempty"`
	Format               string                  `yaml:"format,omitempty"`
	Title                string                  `yaml:"title,omitempty"`
	Description          string                  `yaml:"description,omitempty"`
	Properties           map[string]*SchemaOrRef `yaml:"properties,omitempty"`
	Items                *SchemaOrRef            `yaml:"items,omitempty"`
	Required             []string                `yaml:"required,omitempty"`
	AllOf                []*SchemaOrRef          `yaml:"allOf,omitempty"`
	AnyOf                []*SchemaOrRef          `yaml:"anyOf,omitempty"`
	OneOf                []*SchemaOrRef          `yaml:"oneOf,omitempty"`
	AdditionalProperties *SchemaOrRef            `yaml:"additionalProperties,omitempty"`
	Enum                 []any                   `yaml:"enum,omitempty"`
	Nullable             bool                    `yaml:"nullable,omitempty"`
	Example              any                     `yaml:"example,omitempty"`
	Default              any                     `yaml:"default,omitempty"`
	Extensions           map[string]any          `yaml:",inline"`
	Unparsed             map[string]any          `yaml:"-"`
}

// SchemaType is the schema "type" keyword. OpenAPI 3.1 allows a list.
type SchemaType []string

// Is reports whether t includes typ.
func (t SchemaType) Is(typ string) bool {
	for _, v := range t {
		if v == typ {
			return true
		}
	}
	return false
}

func (t SchemaType) String() string { return strings.Join(t, "|") }

func (t *SchemaType) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "" {
			*t = nil
			return nil
		}
		*t = SchemaType{node.Value}
		return nil
	default:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*t = list
		return nil
	}
}

func (t SchemaType) MarshalYAML() (any, error) {
	switch len(t) {
	case 0:
		return nil, nil
	case 1:
		return t[0], nil
	default:
		return []string(t), nil
	}
}

type SchemaRef struct {
	Ref string `yaml:"$ref"`
}

// SchemaOrRef is a schema position in the document: exactly one of Ref,
// Schema or Bool is set. Bool covers JSON Schema boolean schemas such as
// `additionalProperties: false`.
type SchemaOrRef struct {
	Schema *Schema
	Ref    *SchemaRef
	Bool   *bool
}

// Pointer returns the $ref value, or "" for inline schemas.
func (s *SchemaOrRef) Pointer() string {
	if s == nil || s.Ref == nil {
		return ""
	}
	return s.Ref.Ref
}

func (s *SchemaOrRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if ref, ok := refOf(node); ok {
		s.Ref = &SchemaRef{Ref: ref}
		return nil
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!bool" {
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		s.Bool = &b
		return nil
	}
	var schema Schema
	if err := node.Decode(&schema); err != nil {
		return err
	}
	s.Schema = &schema
	return nil
}

func (s SchemaOrRef) MarshalYAML() (any, error) {
	switch {
	case s.Ref != nil:
		return s.Ref, nil
	case s.Bool != nil:
		return *s.Bool, nil
	case s.Schema != nil:
		return s.Schema, nil
	}
	return map[string]any{}, nil
}

// refOf returns the $ref value of a mapping node.
func refOf(node *yaml.Node) (string, bool) {
	if node.Kind != yaml.MappingNode {
		return "", false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Value == "$ref" && v.Kind == yaml.ScalarNode {
			return v.Value, true
		}
	}
	return "", false
}
