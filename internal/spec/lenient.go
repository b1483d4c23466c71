package spec

import (
	"sort"

	"gopkg.in/yaml.v3"
)

// Model types decode leniently: a member whose value does not fit its
// typed field is dropped from the typed view and kept verbatim in the
// type's Unparsed map, which is written back on marshal.

// decodeLenient decodes node into out. When the whole mapping does not
// decode, each member is tried on its own and the ones that fail are
// returned raw instead of failing the decode.
func decodeLenient[T any](node *yaml.Node, out *T) (map[string]any, error) {
	err := node.Decode(out)
	if err == nil {
		return nil, nil
	}
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return nil, err
	}

	kept := *node
	kept.Content = make([]*yaml.Node, 0, len(node.Content))
	var unparsed map[string]any
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		single := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: []*yaml.Node{key, value}}
		var trial T
		if single.Decode(&trial) == nil {
			kept.Content = append(kept.Content, key, value)
			continue
		}
		var raw any
		if err := value.Decode(&raw); err != nil {
			return nil, err
		}
		if unparsed == nil {
			unparsed = make(map[string]any)
		}
		unparsed[key.Value] = raw
	}

	var zero T
	*out = zero
	if err := kept.Decode(out); err != nil {
		return nil, err
	}
	return unparsed, nil
}

// withUnparsed encodes v and appends the unparsed members in key order,
// replacing any zero value the typed field wrote under the same key.
func withUnparsed(v any, unparsed map[string]any) (any, error) {
	if len(unparsed) == 0 {
		return v, nil
	}
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return nil, err
	}
	content := node.Content[:0]
	for i := 0; i+1 < len(node.Content); i += 2 {
		if _, shadowed := unparsed[node.Content[i].Value]; shadowed {
			continue
		}
		content = append(content, node.Content[i], node.Content[i+1])
	}
	node.Content = content

	keys := make([]string, 0, len(unparsed))
	for k := range unparsed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var value yaml.Node
		if err := value.Encode(unparsed[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&value,
		)
	}
	return &node, nil
}

type (
	documentFields       Document
	infoFields           Info
	contactFields        Contact
	licenseFields        License
	serverFields         Server
	tagFields            Tag
	externalDocsFields   ExternalDocs
	componentsFields     Components
	securitySchemeFields SecurityScheme
	pathItemFields       PathItem
	parameterFields      Parameter
	requestBodyFields    RequestBody
	responseFields       Response
	mediaTypeFields      MediaType
	schemaFields         Schema
)

func (d *Document) UnmarshalYAML(node *yaml.Node) error {
	var raw documentFields
	unparsed, err := decodeLenient(node, &raw)
	if err != nil {
		return err
	}
	*d = Document(raw)
	d.Unparsed = unparsed
	return nil
}

func (d Document) MarshalYAML() (any, error) { return withUnparsed(documentFields(d), d.Unparsed) }

func (i *Info) UnmarshalYAML(node *yaml.Node) error {
	var raw infoFields
	unparsed, err := decodeLenient(node, &raw)
	if err != nil {
		return err
	}
	*i = Info(raw)
	i.Unparsed = unparsed
	return nil
}

func (i Info) MarshalYAML() (any, error) { return withUnparsed(infoFields(i), i.Unparsed) }

func (c *Contact) UnmarshalYAML(node *yaml.Node) error {
	var raw contactFields
	unparsed, err := decodeLenient(node, &raw)
	if err != nil {
		return err
	}
	*c = Contact(raw)
	c.Unparsed = unparsed
	return nil
}

func (c Contact) MarshalYAML() (any, error) { return withUnparsed(contactFields(c), c.Unparsed) }

func (l *License) UnmarshalYAML(node *yaml.Node) error {
	var raw licenseFields
	unparsed, err := decodeLenient(node, &raw)
	if err != nil {
		return err
	}
	*l = License(raw)
	l.Unparsed = unparsed
	return nil
}

func (l License) MarshalYAML() (any, error) { return withUnparsed(licenseFields(l), l.Unparsed) }

func (s *Server) UnmarshalYAML(node *yaml.Node) error {
	var raw serverFields
	unparsed, err := decodeLenient(node, &raw)
	if err != nil {
		return err
	}
	*s = Server(raw)
	s.Unparsed = unparsed
	return nil
}

func (s Server) MarshalYAML() (any, error) { return withUnparsed(serverFields(s), s.Unparsed) }

func (t *Tag) UnmarshalYAML(node *yaml.Node) error {
	var raw tagFields
	unparsed, err := decodeLenient(node, &raw)
	if err != nil {
		return err
	}
	*t = Tag(raw)
	t.Unparsed = unparsed
	return nil
}

func (t Tag) MarshalYAML() (any, error) { return withUnparsed(tagFields(t), t.Unparsed) }

func (e *ExternalDocs) UnmarshalYAML(node *yaml.Node) error {
	var raw externalDocsFields
	unparsed, err := decodeLenient(node, &raw)
	if err != nil {
		return err
	}
	*e = ExternalDocs(raw)
	e.Unparsed = unparsed
	return nil
}

func (e ExternalDocs) MarshalYAML() (any, error) {
	return withUnparsed(externalDocsFields(e), e.Unparsed)
}

func (c *Components) UnmarshalYAML(node *yaml.Node) error {
	var raw componentsFields
	unparsed, err := decodeLenient(node, &raw)
	if err != nil {
		return err
	}
	*c = Components(raw)
	c.Unparsed = unparsed
	return nil
}

func (c Components) MarshalYAML() (any, error) {
	return withUnparsed(componentsFields(c), c.Unparsed)
}

func (s *SecurityScheme) UnmarshalYAML(node *yaml.Node) error {
	var raw securitySchemeFields
	unparsed, err := decodeLenient(node, &raw)
	if err != nil {
		return err
	}
	*s = SecurityScheme(raw)
	s.Unparsed = unparsed
	return nil
}

func (s SecurityScheme) MarshalYAML() (any, error) {
	return withUnparsed(securitySchemeFields(s), s.Unparsed)
}

func (p *PathItem) UnmarshalYAML(node *yaml.Node) error {
	var raw pathItemFields
	unparsed, err := decodeLenient(node, &raw)
	if err != nil {
		return err
	}
	*p = PathItem(raw)
	p.Unparsed = unparsed
	return nil
}

func (p PathItem) MarshalYAML() (any, error) { return withUnparsed(pathItemFields(p), p.Unparsed) }

func (p *Parameter) UnmarshalYAML(node *yaml.Node) error {
	var raw parameterFields
	unparsed, err := decodeLenient(node, &raw)
	if err != nil {
		return err
	}
	*p = Parameter(raw)
	p.Unparsed = unparsed
	return nil
}

func (p Parameter) MarshalYAML() (any, error) { return withUnparsed(parameterFields(p), p.Unparsed) }

func (r *RequestBody) UnmarshalYAML(node *yaml.Node) error {
	var raw requestBodyFields
	unparsed, err := decodeLenient(node, &raw)
	if err != nil {
		return err
	}
	*r = RequestBody(raw)
	r.Unparsed = unparsed
	return nil
}

func (r RequestBody) MarshalYAML() (any, error) {
	return withUnparsed(requestBodyFields(r), r.Unparsed)
}

func (r *Response) UnmarshalYAML(node *yaml.Node) error {
	var raw responseFields
	unparsed, err := decodeLenient(node, &raw)
	if err != nil {
		return err
	}
	*r = Response(raw)
	r.Unparsed = unparsed
	return nil
}

func (r Response) MarshalYAML() (any, error) { return withUnparsed(responseFields(r), r.Unparsed) }

func (m *MediaType) UnmarshalYAML(node *yaml.Node) error {
	var raw mediaTypeFields
	unparsed, err := decodeLenient(node, &raw)
	if err != nil {
		return err
	}
	*m = MediaType(raw)
	m.Unparsed = unparsed
	return nil
}

func (m MediaType) MarshalYAML() (any, error) { return withUnparsed(mediaTypeFields(m), m.Unparsed) }

func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	var raw schemaFields
	unparsed, err := decodeLenient(node, &raw)
	if err != nil {
		return err
	}
	*s = Schema(raw)
	s.Unparsed = unparsed
	return nil
}

func (s Schema) MarshalYAML() (any, error) { return withUnparsed(schemaFields(s), s.Unparsed) }
