package extensions

import "github.com/mark3labs/openapi-xt/internal/spec"

// RawExtension returns the verbatim value of an x-* key that was kept in
// op.Extensions, typically because it did not have the expected shape.
func RawExtension(op *spec.Operation, key string) (any, bool) {
	if op == nil || op.Extensions == nil {
		return nil, false
	}
	v, ok := op.Extensions[key]
	return v, ok
}

// Malformed lists the facet keys whose wire value was not lifted into the
// typed fields.
func Malformed(op *spec.Operation) []string {
	var out []string
	for _, key := range []string{spec.ExtRouteAliases, spec.ExtCustomTags, spec.ExtPermissions} {
		if _, ok := RawExtension(op, key); ok {
			out = append(out, key)
		}
	}
	return out
}
