package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const envPrefix = "ORDERLENS"

// FileLookup parses a YAML config file into a LookupFunc over the same key
// space as the environment. Nested mappings flatten by joining path segments
// with underscores, so
//
//	ai:
//	  api_key: sk-...
//	  model: gpt-4o-mini
//
// yields ORDERLENS_AI_API_KEY and ORDERLENS_AI_MODEL.
func FileLookup(path string) (LookupFunc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	values := map[string]string{}
	if err := flatten(envPrefix, doc, values); err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}

	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) error {
	for key, value := range node {
		envKey := prefix + "_" + normalizeKey(key)
		switch typed := value.(type) {
		case map[string]any:
			if err := flatten(envKey, typed, out); err != nil {
				return err
			}
		case nil:
			// skip explicit nulls
		case string:
			out[envKey] = typed
		case bool:
			out[envKey] = strconv.FormatBool(typed)
		case int:
			out[envKey] = strconv.Itoa(typed)
		case int64:
			out[envKey] = strconv.FormatInt(typed, 10)
		case float64:
			out[envKey] = strconv.FormatFloat(typed, 'f', -1, 64)
		default:
			return fmt.Errorf("unsupported value type %T at %s", value, envKey)
		}
	}
	return nil
}

func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.ReplaceAll(key, "-", "_")
	return strings.ToUpper(key)
}
