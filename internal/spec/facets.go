package spec

import (
	"gopkg.in/yaml.v3"
)

// operationFields has Operation's layout without its YAML methods.
type operationFields Operation

func (op *Operation) UnmarshalYAML(node *yaml.Node) error {
	var raw operationFields
	unparsed, err := decodeLenient(node, &raw)
	if err != nil {
		return err
	}
	*op = Operation(raw)
	op.Unparsed = unparsed
	op.liftFacets()
	return nil
}

func (op Operation) MarshalYAML() (any, error) {
	out := operationFields(op)
	out.Extensions = op.wireExtensions()
	return withUnparsed(out, op.Unparsed)
}

// liftFacets moves well-formed extension values from Extensions into the
// typed fields. Malformed values, and values carrying members the typed
// fields have no room for, are left where they are.
func (op *Operation) liftFacets() {
	if len(op.Extensions) == 0 {
		return
	}
	if v, ok := op.Extensions[ExtRouteAliases]; ok {
		if aliases, ok := stringList(v); ok {
			op.RouteAliases = aliases
			delete(op.Extensions, ExtRouteAliases)
		}
	}
	if v, ok := op.Extensions[ExtCustomTags]; ok {
		if tags, ok := customTagList(v); ok {
			op.CustomTags = tags
			delete(op.Extensions, ExtCustomTags)
		}
	}
	if v, ok := op.Extensions[ExtPermissions]; ok {
		if flags, ok := permissionFlags(v); ok {
			op.Permissions = flags
			delete(op.Extensions, ExtPermissions)
		}
	}
	if len(op.Extensions) == 0 {
		op.Extensions = nil
	}
}

// wireExtensions merges the typed facets back into a fresh extension map.
func (op Operation) wireExtensions() map[string]any {
	if op.RouteAliases == nil && op.CustomTags == nil && op.Permissions == nil {
		return op.Extensions
	}
	out := make(map[string]any, len(op.Extensions)+3)
	for k, v := range op.Extensions {
		out[k] = v
	}
	if op.RouteAliases != nil {
		out[ExtRouteAliases] = op.RouteAliases
	}
	if op.CustomTags != nil {
		out[ExtCustomTags] = op.CustomTags
	}
	if op.Permissions != nil {
		out[ExtPermissions] = op.Permissions
	}
	return out
}

func stringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return append([]string{}, list...), true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func customTagList(v any) ([]CustomTag, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]CustomTag, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		name, ok := m["name"].(string)
		if !ok || name == "" || !onlyKeys(m, "name", "category", "color", "icon", "description") {
			return nil, false
		}
		tag := CustomTag{Name: name}
		for key, dst := range map[string]*string{
			"category":    &tag.Category,
			"color":       &tag.Color,
			"icon":        &tag.Icon,
			"description": &tag.Description,
		} {
			raw, present := m[key]
			if !present || raw == nil {
				continue
			}
			s, ok := raw.(string)
			if !ok {
				return nil, false
			}
			*dst = s
		}
		out = append(out, tag)
	}
	return out, true
}

func permissionFlags(v any) (*PermissionFlags, bool) {
	m, ok := v.(map[string]any)
	if !ok || !onlyKeys(m, "required", "optional", "roles", "scopes") {
		return nil, false
	}
	flags := &PermissionFlags{}
	for key, dst := range map[string]*[]string{
		"required": &flags.Required,
		"optional": &flags.Optional,
		"roles":    &flags.Roles,
		"scopes":   &flags.Scopes,
	} {
		raw, present := m[key]
		if !present || raw == nil {
			continue
		}
		list, ok := stringList(raw)
		if !ok {
			return nil, false
		}
		*dst = list
	}
	return flags, true
}

// onlyKeys reports whether every key of m is one of allowed.
func onlyKeys(m map[string]any, allowed ...string) bool {
	for key := range m {
		known := false
		for _, a := range allowed {
			if key == a {
				known = true
				break
			}
		}
		if !known {
			return false
		}
	}
	return true
}
