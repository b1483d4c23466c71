package extensions

import (
	"regexp"

	"github.com/mark3labs/openapi-xt/internal/spec"
)

// aliasRe accepts absolute path templates: RFC 3986 pchar plus "/" and
// the braces used by path-parameter placeholders.
var aliasRe = regexp.MustCompile(`^/[A-Za-z0-9\-._~!$&'()*+,;=:@%/{}]*$`)

// Aliases returns a copy of the operation's route aliases, or an empty
// slice.
func Aliases(op *spec.Operation) []string {
	if op == nil || op.RouteAliases == nil {
		return []string{}
	}
	return append([]string{}, op.RouteAliases...)
}

func HasAliases(op *spec.Operation) bool {
	return op != nil && len(op.RouteAliases) > 0
}

// AddAlias appends alias unless it is already present.
func AddAlias(op *spec.Operation, alias string) *spec.Operation {
	current := Aliases(op)
	if contains(current, alias) {
		return op
	}
	out := clone(op)
	out.RouteAliases = appendCopy(current, alias)
	return out
}

// RemoveAlias drops every occurrence of alias.
func RemoveAlias(op *spec.Operation, alias string) *spec.Operation {
	current := Aliases(op)
	if !contains(current, alias) {
		return op
	}
	out := clone(op)
	out.RouteAliases = without(current, alias)
	return out
}

// ValidateAlias reports whether alias is an absolute path template.
func ValidateAlias(alias string) bool {
	return aliasRe.MatchString(alias)
}

// ValidateAliasesValue checks the wire shape of x-route-aliases: a list of
// valid alias strings.
func ValidateAliasesValue(raw any) bool {
	var list []any
	switch v := raw.(type) {
	case []string:
		for _, s := range v {
			list = append(list, s)
		}
	case []any:
		list = v
	default:
		return false
	}
	for _, item := range list {
		s, ok := item.(string)
		if !ok || !ValidateAlias(s) {
			return false
		}
	}
	return true
}

func clone(op *spec.Operation) *spec.Operation {
	if op == nil {
		return &spec.Operation{}
	}
	out := *op
	return &out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func appendCopy(list []string, v string) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, list...)
	return append(out, v)
}

func without(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}
