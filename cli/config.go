package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// loadYAML is a [kong.ConfigurationLoader] for YAML files. Nested mappings
// flatten into hyphenated flag names, so
//
//	max-steps: 100000
//	log:
//	  level: debug
//	  pretty: true
//
// sets --max-steps, --log-level and --log-pretty. Underscores may stand in
// for hyphens. Command-line flags override file values.
func loadYAML(r io.Reader) (kong.Resolver, error) {
	var doc map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return config{}, nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := config{}
	cfg.flatten("", doc)
	return cfg, nil
}

// config implements [kong.Resolver] over flattened YAML keys.
type config map[string]string

func (c config) flatten(prefix string, m map[string]any) {
	for k, v := range m {
		key := strings.ReplaceAll(k, "_", "-")
		if prefix != "" {
			key = prefix + "-" + key
		}
		switch v := v.(type) {
		case map[string]any:
			c.flatten(key, v)
		case []any:
			parts := make([]string, len(v))
			for i, e := range v {
				parts[i] = fmt.Sprint(e)
			}
			c[key] = strings.Join(parts, ",")
		case nil:
		default:
			// kong maps every flag type from its string form.
			c[key] = fmt.Sprint(v)
		}
	}
}

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if v, ok := c[flag.Name]; ok {
		return v, nil
	}
	return nil, nil
}
