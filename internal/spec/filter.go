package spec

import (
	"regexp"
	"strings"
)

// FilterOption narrows a list of endpoints.
type FilterOption func(*filterConfig)

type filterConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	methods     map[HttpMethod]struct{}
	pathRes     []*regexp.Regexp
	predicates  []func(Endpoint) bool
}

// WithIncludeTags keeps only endpoints that have at least one of the given tags.
func WithIncludeTags(tags []string) FilterOption {
	return func(c *filterConfig) {
		c.includeTags = addTags(c.includeTags, tags)
	}
}

// WithExcludeTags removes endpoints that have any of the given tags.
func WithExcludeTags(tags []string) FilterOption {
	return func(c *filterConfig) {
		c.excludeTags = addTags(c.excludeTags, tags)
	}
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(tags))
		}
		set[t] = struct{}{}
	}
	return set
}

// WithMethods keeps only endpoints using one of the provided HTTP methods.
func WithMethods(methods []HttpMethod) FilterOption {
	return func(c *filterConfig) {
		if len(methods) == 0 {
			return
		}
		if c.methods == nil {
			c.methods = make(map[HttpMethod]struct{}, len(methods))
		}
		for _, m := range methods {
			c.methods[m] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only endpoints whose path matches at least one of
// the provided regular expressions. An invalid pattern matches nothing.
func WithPathPatterns(patterns []string) FilterOption {
	return func(c *filterConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				re = regexp.MustCompile("a^$")
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

// WithPredicate keeps only endpoints for which keep returns true.
func WithPredicate(keep func(Endpoint) bool) FilterOption {
	return func(c *filterConfig) {
		if keep != nil {
			c.predicates = append(c.predicates, keep)
		}
	}
}

// FilterEndpoints applies opts to endpoints, keeping their order.
func FilterEndpoints(endpoints []Endpoint, opts ...FilterOption) []Endpoint {
	cfg := &filterConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	out := make([]Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		if cfg.allow(ep) {
			out = append(out, ep)
		}
	}
	return out
}

func (c *filterConfig) allow(ep Endpoint) bool {
	if len(c.methods) > 0 {
		if _, ok := c.methods[ep.Method]; !ok {
			return false
		}
	}
	if len(c.pathRes) > 0 {
		matched := false
		for _, re := range c.pathRes {
			if re.MatchString(ep.Path) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	var tags []string
	if ep.Operation != nil {
		tags = ep.Operation.Tags
	}
	if !allowByTags(tags, c) {
		return false
	}
	for _, keep := range c.predicates {
		if !keep(ep) {
			return false
		}
	}
	return true
}

func allowByTags(tags []string, cfg *filterConfig) bool {
	if len(cfg.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := cfg.includeTags[strings.TrimSpace(t)]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := cfg.excludeTags[strings.TrimSpace(t)]; blocked {
			return false
		}
	}
	return true
}
