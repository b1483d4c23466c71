package extensions

import (
	"github.com/mark3labs/openapi-xt/internal/spec"
)

// CustomTags returns a copy of the operation's custom tags, or an empty
// slice.
func CustomTags(op *spec.Operation) []spec.CustomTag {
	if op == nil || op.CustomTags == nil {
		return []spec.CustomTag{}
	}
	return append([]spec.CustomTag{}, op.CustomTags...)
}

func HasCustomTags(op *spec.Operation) bool {
	return op != nil && len(op.CustomTags) > 0
}

// TagsByCategory returns the tags whose category equals category exactly.
func TagsByCategory(op *spec.Operation, category string) []spec.CustomTag {
	out := []spec.CustomTag{}
	for _, tag := range CustomTags(op) {
		if tag.Category == category {
			out = append(out, tag)
		}
	}
	return out
}

// Categories returns each non-empty category once, in first-seen order.
func Categories(op *spec.Operation) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, tag := range CustomTags(op) {
		if tag.Category == "" {
			continue
		}
		if _, dup := seen[tag.Category]; dup {
			continue
		}
		seen[tag.Category] = struct{}{}
		out = append(out, tag.Category)
	}
	return out
}

// AddCustomTag appends tag unless a tag with the same name exists. The
// existing tag is kept as is.
func AddCustomTag(op *spec.Operation, tag spec.CustomTag) *spec.Operation {
	current := CustomTags(op)
	for _, existing := range current {
		if existing.Name == tag.Name {
			return op
		}
	}
	out := clone(op)
	tags := make([]spec.CustomTag, 0, len(current)+1)
	tags = append(tags, current...)
	out.CustomTags = append(tags, tag)
	return out
}

// RemoveCustomTag drops every tag named name.
func RemoveCustomTag(op *spec.Operation, name string) *spec.Operation {
	current := CustomTags(op)
	tags := make([]spec.CustomTag, 0, len(current))
	for _, existing := range current {
		if existing.Name != name {
			tags = append(tags, existing)
		}
	}
	if len(tags) == len(current) {
		return op
	}
	out := clone(op)
	out.CustomTags = tags
	return out
}

// ValidateCustomTag reports whether tag has a name.
func ValidateCustomTag(tag spec.CustomTag) bool {
	return tag.Name != ""
}

// ValidateCustomTagValue checks the wire shape of one x-custom-tags entry:
// an object with a non-empty string name whose optional category, color,
// icon and description are strings when present.
func ValidateCustomTagValue(raw any) bool {
	m, ok := raw.(map[string]any)
	if !ok {
		return false
	}
	name, ok := m["name"].(string)
	if !ok || name == "" {
		return false
	}
	for _, key := range []string{"category", "color", "icon", "description"} {
		v, present := m[key]
		if !present || v == nil {
			continue
		}
		if _, ok := v.(string); !ok {
			return false
		}
	}
	return true
}
