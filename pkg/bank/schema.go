package bank

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Top-level keys of a challenge definition.
var (
	requiredKeys = []string{
		"id", "name", "description", "category",
		"difficulty", "score", "concepts", "validation",
	}
	optionalKeys = []string{"setup", "hints", "tags"}
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// BankFile is a file holding several challenge definitions. A
// file without a "challenges" key is a single definition.
type BankFile struct {
	Version    string           `json:"version" yaml:"version"`
	Name       string           `json:"name" yaml:"name"`
	Challenges []map[string]any `json:"challenges" yaml:"challenges"`
	Metadata   map[string]any   `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// isBankFile reports whether a decoded document is a bank file.
func isBankFile(raw map[string]any) bool {
	_, ok := raw["challenges"]
	return ok
}

// format selects a decoder from the file extension.
func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}

// Parse decodes a JSON or YAML document into its raw mapping.
// format is "json" or "yaml".
func Parse(data []byte, format string) (map[string]any, error) {
	var raw map[string]any
	switch format {
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if raw == nil {
		return nil, fmt.Errorf("document is empty or not a mapping")
	}
	return raw, nil
}

// decodeBankFile extracts the envelope of a raw bank mapping.
func decodeBankFile(raw map[string]any) (BankFile, error) {
	var f BankFile
	f.Version, _ = raw["version"].(string)
	f.Name, _ = raw["name"].(string)
	f.Metadata, _ = raw["metadata"].(map[string]any)
	list, ok := raw["challenges"].([]any)
	if !ok {
		return f, fmt.Errorf(
			"\"challenges\" must be a list, got %s", typeName(raw["challenges"]),
		)
	}
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return f, fmt.Errorf(
				"challenges[%d] must be a mapping, got %s", i, typeName(item),
			)
		}
		f.Challenges = append(f.Challenges, m)
	}
	return f, nil
}
