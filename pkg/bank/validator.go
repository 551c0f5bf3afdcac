package bank

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"sort"
	"strings"

	"digital.vasic.labcheck/pkg/challenge"
)

// StepValidator checks that a step names a registered kind and
// carries well-formed parameters. *registry.Registry implements
// it.
type StepValidator interface {
	Has(kind string) bool
	ValidateStep(step challenge.Step) error
}

// ValidationError represents one structural violation.
type ValidationError struct {
	Field   string
	Message string
	Index   int // position in a bank file, -1 if not applicable
}

func (e ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("challenges[%d].%s: %s", e.Index, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrStructural is matched by every StructuralError.
var ErrStructural = errors.New("structural error")

// StructuralError reports a definition rejected before any
// network I/O.
type StructuralError struct {
	Source     string
	Violations []ValidationError
}

func (e *StructuralError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Error()
	}
	prefix := "invalid challenge definition"
	if e.Source != "" {
		prefix += " " + e.Source
	}
	return fmt.Sprintf("%s: %s", prefix, strings.Join(msgs, "; "))
}

// Is makes errors.Is(err, ErrStructural) true.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

// Reasons returns the violations as strings.
func (e *StructuralError) Reasons() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Error()
	}
	return out
}

type violations struct {
	index int
	list  []ValidationError
}

func (v *violations) add(field, format string, args ...any) {
	v.list = append(v.list, ValidationError{
		Field: field, Message: fmt.Sprintf(format, args...), Index: v.index,
	})
}

// ValidateStructure checks a decoded challenge definition and
// returns every violation found, in a stable order. An empty
// result means the definition is well formed.
func ValidateStructure(
	raw map[string]any, steps StepValidator,
) []ValidationError {
	return validateRaw(raw, steps, -1)
}

func validateRaw(
	raw map[string]any, steps StepValidator, index int,
) []ValidationError {
	errs := &violations{index: index}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !slices.Contains(requiredKeys, k) && !slices.Contains(optionalKeys, k) {
			errs.add(k, "unknown key")
		}
	}
	for _, k := range requiredKeys {
		if _, ok := raw[k]; !ok {
			errs.add(k, "is required")
		}
	}

	if id, ok := stringField(raw, "id", errs); ok {
		checkID(id, errs)
	}
	if name, ok := stringField(raw, "name", errs); ok {
		checkName(name, errs)
	}
	for _, k := range []string{"description", "category", "difficulty"} {
		stringField(raw, k, errs)
	}
	if v, ok := raw["score"]; ok {
		if _, err := toScore(v); err != nil {
			errs.add("score", "%v", err)
		}
	}
	for _, k := range []string{"concepts", "hints", "tags"} {
		stringListField(raw, k, errs)
	}
	for _, phase := range []challenge.Phase{
		challenge.PhaseSetup, challenge.PhaseValidation,
	} {
		list, ok := stepListField(raw, string(phase), steps, errs)
		if ok && phase == challenge.PhaseValidation && list == 0 {
			errs.add(string(phase), "must contain at least one step")
		}
	}
	return errs.list
}

// ValidateDefinition checks a typed definition, such as one built
// in code, for the violations its types cannot rule out.
func ValidateDefinition(
	def *challenge.Definition, steps StepValidator,
) []ValidationError {
	errs := &violations{index: -1}
	if def == nil {
		errs.add("definition", "is required")
		return errs.list
	}
	checkID(string(def.ID), errs)
	checkName(def.Name, errs)
	if def.Score < 0 {
		errs.add("score", "must not be negative, got %d", def.Score)
	}
	if len(def.Validation) == 0 {
		errs.add(string(challenge.PhaseValidation), "must contain at least one step")
	}
	for _, ps := range def.Steps() {
		checkStep(fmt.Sprintf("%s[%d]", ps.Phase, ps.Index), ps.Step, steps, errs)
	}
	return errs.list
}

func checkID(id string, errs *violations) {
	if !idPattern.MatchString(id) {
		errs.add("id", "%q must match %s", id, idPattern.String())
	}
}

func checkName(name string, errs *violations) {
	if strings.TrimSpace(name) == "" {
		errs.add("name", "must not be empty")
	}
}

func checkStep(
	field string, step challenge.Step, steps StepValidator, errs *violations,
) {
	if step.Type == "" {
		errs.add(field+".type", "is required")
		return
	}
	if !steps.Has(step.Type) {
		errs.add(field+".type", "unregistered check kind %q", step.Type)
		return
	}
	if err := steps.ValidateStep(step); err != nil {
		errs.add(field, "%v", err)
	}
}

// stringField type-checks an optional string key. ok is false
// when the key is absent or mistyped.
func stringField(raw map[string]any, key string, errs *violations) (string, bool) {
	v, present := raw[key]
	if !present {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		errs.add(key, "must be a string, got %s", typeName(v))
		return "", false
	}
	return s, true
}

func stringListField(raw map[string]any, key string, errs *violations) {
	v, present := raw[key]
	if !present || (v == nil && slices.Contains(optionalKeys, key)) {
		return
	}
	list, ok := v.([]any)
	if !ok {
		errs.add(key, "must be a list of strings, got %s", typeName(v))
		return
	}
	for i, item := range list {
		if _, ok := item.(string); !ok {
			errs.add(fmt.Sprintf("%s[%d]", key, i), "must be a string, got %s", typeName(item))
		}
	}
}

// stepListField validates a list of step mappings and returns
// its length.
func stepListField(
	raw map[string]any, key string, steps StepValidator, errs *violations,
) (int, bool) {
	v, present := raw[key]
	if !present || (v == nil && slices.Contains(optionalKeys, key)) {
		return 0, false
	}
	list, ok := v.([]any)
	if !ok {
		errs.add(key, "must be a list of steps, got %s", typeName(v))
		return 0, false
	}
	for i, item := range list {
		field := fmt.Sprintf("%s[%d]", key, i)
		m, ok := item.(map[string]any)
		if !ok {
			errs.add(field, "must be a mapping, got %s", typeName(item))
			continue
		}
		t, hasType := m["type"]
		if !hasType {
			errs.add(field+".type", "is required")
			continue
		}
		if _, ok := t.(string); !ok {
			errs.add(field+".type", "must be a string, got %s", typeName(t))
			continue
		}
		step, err := challenge.StepFromMap(m)
		if err != nil {
			errs.add(field, "%v", err)
			continue
		}
		checkStep(field, step, steps, errs)
	}
	return len(list), true
}

// toScore accepts integers as decoded from YAML or JSON.
func toScore(v any) (int, error) {
	var n int
	switch t := v.(type) {
	case int:
		n = t
	case int64:
		n = int(t)
	case uint64:
		if t > math.MaxInt32 {
			return 0, fmt.Errorf("%d is out of range", t)
		}
		n = int(t)
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.Abs(t) > math.MaxInt32 {
			return 0, fmt.Errorf("must be an integer, got %v", t)
		}
		n = int(t)
	default:
		return 0, fmt.Errorf("must be an integer, got %s", typeName(v))
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative, got %d", n)
	}
	return n, nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64:
		return "integer"
	case float64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "mapping"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// ValidateFile validates a definition file or a bank file and
// returns all violations found.
func ValidateFile(path string, steps StepValidator) []ValidationError {
	data, err := os.ReadFile(path)
	if err != nil {
		return []ValidationError{{Field: "file", Message: err.Error(), Index: -1}}
	}
	f := format(path)
	if f == "" {
		f = "yaml"
	}
	raw, err := Parse(data, f)
	if err != nil {
		return []ValidationError{{Field: f, Message: err.Error(), Index: -1}}
	}
	if !isBankFile(raw) {
		return ValidateStructure(raw, steps)
	}
	return validateBank(raw, steps)
}

func validateBank(raw map[string]any, steps StepValidator) []ValidationError {
	file, err := decodeBankFile(raw)
	if err != nil {
		return []ValidationError{{Field: "challenges", Message: err.Error(), Index: -1}}
	}

	var out []ValidationError
	if file.Version == "" {
		out = append(out, ValidationError{
			Field: "version", Message: "is required", Index: -1,
		})
	}
	ids := make(map[string]bool)
	for i, ch := range file.Challenges {
		out = append(out, validateRaw(ch, steps, i)...)
		id, ok := ch["id"].(string)
		if !ok {
			continue
		}
		if ids[id] {
			out = append(out, ValidationError{
				Field: "id", Message: fmt.Sprintf("duplicate ID: %s", id), Index: i,
			})
		}
		ids[id] = true
	}
	return out
}
