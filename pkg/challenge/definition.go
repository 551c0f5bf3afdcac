package challenge

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Definition describes a practice exercise: its metadata, the
// setup steps that establish preconditions and the validation
// steps that grade the learner's work.
type Definition struct {
	ID          ID       `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Category    string   `json:"category" yaml:"category"`
	Difficulty  string   `json:"difficulty" yaml:"difficulty"`
	Score       int      `json:"score" yaml:"score"`
	Concepts    []string `json:"concepts" yaml:"concepts"`
	Setup       []Step   `json:"setup,omitempty" yaml:"setup,omitempty"`
	Validation  []Step   `json:"validation" yaml:"validation"`
	Hints       []string `json:"hints,omitempty" yaml:"hints,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Steps returns setup steps followed by validation steps, each
// tagged with its phase and index within that phase.
func (d *Definition) Steps() []PlannedStep {
	out := make([]PlannedStep, 0, len(d.Setup)+len(d.Validation))
	for i, s := range d.Setup {
		out = append(out, PlannedStep{
			Phase: PhaseSetup, Index: i, Step: s,
		})
	}
	for i, s := range d.Validation {
		out = append(out, PlannedStep{
			Phase: PhaseValidation, Index: i, Step: s,
		})
	}
	return out
}

// PlannedStep is a Step positioned within a run.
type PlannedStep struct {
	Phase Phase
	Index int
	Step  Step
}

// Label renders e.g. "validation[2] check_port_listening".
func (p PlannedStep) Label() string {
	return fmt.Sprintf("%s[%d] %s", p.Phase, p.Index, p.Step.Type)
}

// Step is one check descriptor: a registered check kind and its
// kind-specific parameters. In challenge files it is written as a
// flat mapping whose "type" key names the kind.
type Step struct {
	Type   string
	Params map[string]any
}

// StepFromMap builds a Step from its flat mapping form. The
// "type" key is required and must be a non-empty string.
func StepFromMap(raw map[string]any) (Step, error) {
	t, ok := raw["type"]
	if !ok {
		return Step{}, fmt.Errorf("step is missing required key \"type\"")
	}
	kind, ok := t.(string)
	if !ok || kind == "" {
		return Step{}, fmt.Errorf("step \"type\" must be a non-empty string")
	}
	params := make(map[string]any, len(raw)-1)
	for k, v := range raw {
		if k == "type" {
			continue
		}
		params[k] = v
	}
	return Step{Type: kind, Params: params}, nil
}

// NewStep builds a Step from alternating key/value arguments.
func NewStep(kind string, kv ...any) Step {
	params := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			params[k] = kv[i+1]
		}
	}
	return Step{Type: kind, Params: params}
}

// ParamKeys returns the parameter names in sorted order.
func (s Step) ParamKeys() []string {
	keys := make([]string, 0, len(s.Params))
	for k := range s.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON writes the flat mapping form.
func (s Step) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(s.Params)+1)
	for k, v := range s.Params {
		flat[k] = v
	}
	flat["type"] = s.Type
	return json.Marshal(flat)
}

// UnmarshalJSON reads the flat mapping form.
func (s *Step) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	step, err := StepFromMap(raw)
	if err != nil {
		return err
	}
	*s = step
	return nil
}

// MarshalYAML writes the flat mapping form.
func (s Step) MarshalYAML() (any, error) {
	flat := make(map[string]any, len(s.Params)+1)
	for k, v := range s.Params {
		flat[k] = v
	}
	flat["type"] = s.Type
	return flat, nil
}

// UnmarshalYAML reads the flat mapping form.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	step, err := StepFromMap(raw)
	if err != nil {
		return err
	}
	*s = step
	return nil
}
