package bank

import (
	"fmt"
	"os"

	"digital.vasic.labcheck/pkg/challenge"
)

// Decode validates a raw definition and converts it into a typed
// Definition. Violations are returned as a *StructuralError.
func Decode(
	raw map[string]any, steps StepValidator, source string,
) (*challenge.Definition, error) {
	if errs := ValidateStructure(raw, steps); len(errs) > 0 {
		return nil, &StructuralError{Source: source, Violations: errs}
	}
	return toDefinition(raw)
}

// Load reads, validates and decodes a single definition file.
// .json files are decoded as JSON, everything else as YAML.
func Load(path string, steps StepValidator) (*challenge.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read challenge file %s: %w", path, err)
	}
	f := format(path)
	if f == "" {
		f = "yaml"
	}
	raw, err := Parse(data, f)
	if err != nil {
		return nil, &StructuralError{
			Source:     path,
			Violations: []ValidationError{{Field: f, Message: err.Error(), Index: -1}},
		}
	}
	if isBankFile(raw) {
		return nil, fmt.Errorf(
			"%s is a bank file with several challenges; load it with a Bank", path,
		)
	}
	return Decode(raw, steps, path)
}

// toDefinition assumes raw passed ValidateStructure.
func toDefinition(raw map[string]any) (*challenge.Definition, error) {
	score, err := toScore(raw["score"])
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	def := &challenge.Definition{
		ID:          challenge.ID(str(raw["id"])),
		Name:        str(raw["name"]),
		Description: str(raw["description"]),
		Category:    str(raw["category"]),
		Difficulty:  str(raw["difficulty"]),
		Score:       score,
		Concepts:    strs(raw["concepts"]),
		Hints:       strs(raw["hints"]),
		Tags:        strs(raw["tags"]),
	}
	if def.Setup, err = stepList(raw["setup"]); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	if def.Validation, err = stepList(raw["validation"]); err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}
	return def, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func strs(v any) []string {
	list, _ := v.([]any)
	if list == nil {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, str(item))
	}
	return out
}

func stepList(v any) ([]challenge.Step, error) {
	list, _ := v.([]any)
	if list == nil {
		return nil, nil
	}
	out := make([]challenge.Step, 0, len(list))
	for i, item := range list {
		m, _ := item.(map[string]any)
		step, err := challenge.StepFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		out = append(out, step)
	}
	return out, nil
}
