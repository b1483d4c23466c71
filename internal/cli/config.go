package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/openapi-xt/internal/spec"
)

// Config captures all inputs that influence a command after merging
// defaults, config file values, and CLI overrides. Each command only
// registers the flags it uses; the config file may set any field.
type Config struct {
	Input       string
	Format      string
	Methods     []spec.HttpMethod
	Paths       []string
	IncludeTags []string
	ExcludeTags []string
	Category    string
	MaxDepth    int
	Strict      bool
	Validate    bool
	Timeout     time.Duration
	Retries     int
	ConfigPath  string
	Verbose     bool

	// Match is a "METHOD /path" request for the routes command. It is
	// only read from the command line.
	Match string
	// Ref is the schema pointer argument of the schema command.
	Ref string

	rawMethods []string
}

func defaultConfig(format string) Config {
	settings := spec.DefaultSettings()
	return Config{
		Format:  format,
		Timeout: settings.HTTPTimeout,
		Retries: settings.MaxRetries,
	}
}

// loadOptions turns the network settings into spec.Load options.
func (c *Config) loadOptions() []spec.Option {
	return []spec.Option{
		spec.WithHTTPTimeout(c.Timeout),
		spec.WithMaxRetries(c.Retries),
	}
}

func addInputFlags(flags *pflag.FlagSet) {
	flags.StringP("input", "i", "", "Path or http(s) URL of the OpenAPI 3.x document (- for stdin)")
	flags.Duration("timeout", 0, "HTTP timeout when the input is a URL")
	flags.Int("retries", 0, "Attempts for transient HTTP failures")
}

func addFormatFlag(flags *pflag.FlagSet, formats ...string) {
	flags.StringP("format", "f", "", fmt.Sprintf("Output format (%s); defaults to %s", strings.Join(formats, "|"), formats[0]))
}

func addFilterFlags(flags *pflag.FlagSet) {
	flags.StringSlice("methods", nil, "Only include these HTTP methods")
	flags.StringSlice("paths", nil, "Only include paths matching one of these regular expressions")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.String("category", "", "Only include operations carrying a custom tag of this category")
}

// resolveConfig merges the config file and flags of cmd. formats lists the
// output formats the command supports; the first is the default.
func resolveConfig(cmd *cobra.Command, formats ...string) (*Config, error) {
	cfg := defaultConfig(formats[0])

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(cmd.Name(), formats); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func changed(flags *pflag.FlagSet, name string) bool {
	return flags.Lookup(name) != nil && flags.Changed(name)
}

func applyFlagOverrides(flags *pflag.FlagSet, cfg *Config) error {
	for _, name := range []string{"input", "format", "category", "match"} {
		if !changed(flags, name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		switch name {
		case "input":
			cfg.Input = value
		case "format":
			cfg.Format = value
		case "category":
			cfg.Category = value
		case "match":
			cfg.Match = value
		}
	}
	for _, name := range []string{"methods", "paths", "include-tags", "exclude-tags"} {
		if !changed(flags, name) {
			continue
		}
		value, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		switch name {
		case "methods":
			cfg.rawMethods = value
		case "paths":
			cfg.Paths = value
		case "include-tags":
			cfg.IncludeTags = value
		case "exclude-tags":
			cfg.ExcludeTags = value
		}
	}
	for _, name := range []string{"strict", "validate", "verbose"} {
		if !changed(flags, name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		switch name {
		case "strict":
			cfg.Strict = value
		case "validate":
			cfg.Validate = value
		case "verbose":
			cfg.Verbose = value
		}
	}
	if changed(flags, "max-depth") {
		value, err := flags.GetInt("max-depth")
		if err != nil {
			return err
		}
		cfg.MaxDepth = value
	}
	if changed(flags, "retries") {
		value, err := flags.GetInt("retries")
		if err != nil {
			return err
		}
		cfg.Retries = value
	}
	if changed(flags, "timeout") {
		value, err := flags.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = value
	}
	return nil
}

func (c *Config) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.Category = strings.TrimSpace(c.Category)
	c.Match = strings.TrimSpace(c.Match)
	c.Paths = sanitizeList(c.Paths)
	c.IncludeTags = sanitizeList(c.IncludeTags)
	c.ExcludeTags = sanitizeList(c.ExcludeTags)
	c.rawMethods = sanitizeList(c.rawMethods)
}

func (c *Config) validate(command string, formats []string) error {
	if c.Input == "" {
		return usageErrorf("%s: --input is required (set via flag or config file)", command)
	}

	allowed := false
	for _, f := range formats {
		if c.Format == f {
			allowed = true
		}
	}
	if !allowed {
		return usageErrorf("%s: unsupported --format %q (allowed: %s)", command, c.Format, strings.Join(formats, ", "))
	}

	c.Methods = nil
	for _, raw := range c.rawMethods {
		m, ok := spec.ParseMethod(raw)
		if !ok {
			return usageErrorf("%s: unknown HTTP method %q", command, raw)
		}
		c.Methods = append(c.Methods, m)
	}

	if overlap := intersect(c.IncludeTags, c.ExcludeTags); len(overlap) > 0 {
		return usageErrorf("%s: include/exclude tags overlap: %s", command, strings.Join(overlap, ", "))
	}
	if c.MaxDepth < 0 {
		return usageErrorf("%s: --max-depth must not be negative", command)
	}
	if c.Retries < 0 {
		return usageErrorf("%s: --retries must not be negative", command)
	}
	if c.Timeout < 0 {
		return usageErrorf("%s: --timeout must not be negative", command)
	}
	return nil
}

func applyConfigFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return usageErrorf("read config file %q: %v", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return usageErrorf("parse config file %q: %v", path, err)
	}

	for key, value := range raw {
		var err error
		switch normalizeKey(key) {
		case "input":
			cfg.Input, err = valueAsString(value)
		case "format":
			cfg.Format, err = valueAsString(value)
		case "category":
			cfg.Category, err = valueAsString(value)
		case "methods":
			cfg.rawMethods, err = valueAsStringSlice(value)
		case "paths":
			cfg.Paths, err = valueAsStringSlice(value)
		case "includetags":
			cfg.IncludeTags, err = valueAsStringSlice(value)
		case "excludetags":
			cfg.ExcludeTags, err = valueAsStringSlice(value)
		case "maxdepth":
			cfg.MaxDepth, err = valueAsInt(value)
		case "retries":
			cfg.Retries, err = valueAsInt(value)
		case "timeout":
			cfg.Timeout, err = valueAsDuration(value)
		case "strict":
			cfg.Strict, err = valueAsBool(value)
		case "validate":
			cfg.Validate, err = valueAsBool(value)
		case "verbose":
			cfg.Verbose, err = valueAsBool(value)
		default:
			return usageErrorf("config file %q: unknown field %q", path, key)
		}
		if err != nil {
			return usageErrorf("config field %q: %v", key, err)
		}
	}
	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n", "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func valueAsInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

// valueAsDuration accepts Go duration strings ("5s") or whole seconds.
func valueAsDuration(v any) (time.Duration, error) {
	switch val := v.(type) {
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(val))
		if err != nil {
			return 0, err
		}
		return d, nil
	case int:
		return time.Duration(val) * time.Second, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected duration, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

// sanitizeList trims entries and drops blanks and duplicates.
func sanitizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}
