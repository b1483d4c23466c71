package spec

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Paths maps path templates to PathItems and remembers declaration order.
// Entries whose value is not a path item object are kept aside verbatim
// and written back after the path items.
type Paths struct {
	keys     []string
	items    map[string]*PathItem
	unparsed []rawEntry
}

type rawEntry struct {
	key   string
	value any
}

func NewPaths() *Paths {
	return &Paths{items: make(map[string]*PathItem)}
}

// Set adds or replaces the item for path. New paths are appended.
func (p *Paths) Set(path string, item *PathItem) {
	if p.items == nil {
		p.items = make(map[string]*PathItem)
	}
	if _, exists := p.items[path]; !exists {
		p.keys = append(p.keys, path)
	}
	p.items[path] = item
}

// Get returns the item declared for path, or nil.
func (p *Paths) Get(path string) *PathItem {
	if p == nil {
		return nil
	}
	return p.items[path]
}

// Has reports whether path is declared.
func (p *Paths) Has(path string) bool {
	if p == nil {
		return false
	}
	_, ok := p.items[path]
	return ok
}

// Keys returns the declared paths in document order.
func (p *Paths) Keys() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.keys...)
}

func (p *Paths) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

func (p *Paths) clone() *Paths {
	out := &Paths{
		keys:     append([]string(nil), p.keys...),
		items:    make(map[string]*PathItem, len(p.items)),
		unparsed: append([]rawEntry(nil), p.unparsed...),
	}
	for k, v := range p.items {
		out.items[k] = v
	}
	return out
}

func (p *Paths) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: paths must be a mapping", node.Line)
	}
	*p = Paths{items: make(map[string]*PathItem, len(node.Content)/2)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		item := &PathItem{}
		if value.Tag != "!!null" {
			if err := value.Decode(item); err != nil {
				var raw any
				if rerr := value.Decode(&raw); rerr != nil {
					return fmt.Errorf("path %q: %w", key.Value, err)
				}
				p.unparsed = append(p.unparsed, rawEntry{key: key.Value, value: raw})
				continue
			}
		}
		p.Set(key.Value, item)
	}
	return nil
}

func (p *Paths) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range p.keys {
		value := &yaml.Node{}
		if err := value.Encode(p.items[key]); err != nil {
			return nil, fmt.Errorf("path %q: %w", key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			value,
		)
	}
	for _, entry := range p.unparsed {
		if p.Has(entry.key) {
			continue
		}
		value := &yaml.Node{}
		if err := value.Encode(entry.value); err != nil {
			return nil, fmt.Errorf("path %q: %w", entry.key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: entry.key},
			value,
		)
	}
	return node, nil
}
