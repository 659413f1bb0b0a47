package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

func substituteUpstream(u *UpstreamConfig, lookup func(string) (string, bool)) error {
	var err error
	if u.BaseURL, err = expand(u.BaseURL, lookup); err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	for k, v := range u.Headers {
		if u.Headers[k], err = expand(v, lookup); err != nil {
			return fmt.Errorf("headers.%s: %w", k, err)
		}
	}
	for k, v := range u.Params {
		if u.Params[k], err = expand(v, lookup); err != nil {
			return fmt.Errorf("params.%s: %w", k, err)
		}
	}
	for k, v := range u.JSON {
		if u.JSON[k], err = expandValue(v, lookup); err != nil {
			return fmt.Errorf("json.%s: %w", k, err)
		}
	}
	return nil
}

// expandValue walks decoded YAML/JSON values and expands every string.
func expandValue(v any, lookup func(string) (string, bool)) (any, error) {
	switch t := v.(type) {
	case string:
		return expand(t, lookup)
	case map[string]any:
		for k, child := range t {
			expanded, err := expandValue(child, lookup)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			t[k] = expanded
		}
		return t, nil
	case []any:
		for i, child := range t {
			expanded, err := expandValue(child, lookup)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			t[i] = expanded
		}
		return t, nil
	default:
		return v, nil
	}
}

// expand replaces $VAR and ${VAR} references. Every referenced variable
// must be set.
func expand(s string, lookup func(string) (string, bool)) (string, error) {
	var missing []string
	out := os.Expand(s, func(name string) string {
		v, ok := lookup(name)
		if !ok {
			missing = append(missing, name)
		}
		return v
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("unset environment variable(s): %s", strings.Join(missing, ", "))
	}
	return out, nil
}
