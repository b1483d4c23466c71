package extensions

import (
	"github.com/mark3labs/openapi-xt/internal/spec"
)

// Permissions returns a copy of the operation's x-permissions value, or
// nil.
func Permissions(op *spec.Operation) *spec.PermissionFlags {
	if op == nil || op.Permissions == nil {
		return nil
	}
	p := op.Permissions
	return &spec.PermissionFlags{
		Required: copyList(p.Required),
		Optional: copyList(p.Optional),
		Roles:    copyList(p.Roles),
		Scopes:   copyList(p.Scopes),
	}
}

func HasPermissions(op *spec.Operation) bool {
	return op != nil && op.Permissions != nil
}

func RequiredPermissions(op *spec.Operation) []string {
	if p := Permissions(op); p != nil && p.Required != nil {
		return p.Required
	}
	return []string{}
}

func OptionalPermissions(op *spec.Operation) []string {
	if p := Permissions(op); p != nil && p.Optional != nil {
		return p.Optional
	}
	return []string{}
}

func RequiredRoles(op *spec.Operation) []string {
	if p := Permissions(op); p != nil && p.Roles != nil {
		return p.Roles
	}
	return []string{}
}

func RequiredScopes(op *spec.Operation) []string {
	if p := Permissions(op); p != nil && p.Scopes != nil {
		return p.Scopes
	}
	return []string{}
}

// copyList copies list, keeping nil as nil.
func copyList(list []string) []string {
	if list == nil {
		return nil
	}
	return append([]string{}, list...)
}

// SetPermissions replaces the whole x-permissions value. A nil flags
// removes it.
func SetPermissions(op *spec.Operation, flags *spec.PermissionFlags) *spec.Operation {
	out := clone(op)
	if flags == nil {
		out.Permissions = nil
		return out
	}
	cp := *flags
	out.Permissions = &cp
	return out
}

// AddRequiredPermission adds permission to the required list, creating
// x-permissions when absent.
func AddRequiredPermission(op *spec.Operation, permission string) *spec.Operation {
	current := RequiredPermissions(op)
	if contains(current, permission) {
		return op
	}
	out := clone(op)
	flags := copyFlags(op)
	flags.Required = appendCopy(current, permission)
	out.Permissions = flags
	return out
}

// AddRequiredRole adds role to the roles list, creating x-permissions when
// absent.
func AddRequiredRole(op *spec.Operation, role string) *spec.Operation {
	current := RequiredRoles(op)
	if contains(current, role) {
		return op
	}
	out := clone(op)
	flags := copyFlags(op)
	flags.Roles = appendCopy(current, role)
	out.Permissions = flags
	return out
}

func RequiresPermission(op *spec.Operation, permission string) bool {
	return contains(RequiredPermissions(op), permission)
}

func RequiresRole(op *spec.Operation, role string) bool {
	return contains(RequiredRoles(op), role)
}

// ValidatePermissions checks the wire shape of x-permissions: every
// defined field among required, optional, roles and scopes must be a list
// of strings. A typed *spec.PermissionFlags is always well-formed.
func ValidatePermissions(raw any) bool {
	switch v := raw.(type) {
	case spec.PermissionFlags:
		return true
	case *spec.PermissionFlags:
		return v != nil
	case map[string]any:
		for _, key := range []string{"required", "optional", "roles", "scopes"} {
			field, present := v[key]
			if !present || field == nil {
				continue
			}
			if !isStringList(field) {
				return false
			}
		}
		return true
	}
	return false
}

func isStringList(v any) bool {
	switch list := v.(type) {
	case []string:
		return true
	case []any:
		for _, item := range list {
			if _, ok := item.(string); !ok {
				return false
			}
		}
		return true
	}
	return false
}

func copyFlags(op *spec.Operation) *spec.PermissionFlags {
	if p := Permissions(op); p != nil {
		return p
	}
	return &spec.PermissionFlags{}
}
