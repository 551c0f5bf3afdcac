package check

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Params holds the kind-specific fields of a step.
type Params map[string]any

// Has reports whether key is present with a non-nil value.
func (p Params) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// reader reads typed parameters and reports problems as
// MalformedStepErrors for one kind.
type reader struct {
	kind string
	p    Params
}

func read(kind string, p Params) reader {
	return reader{kind: kind, p: p}
}

func (r reader) str(key string, required bool, def string) (string, error) {
	v, ok := r.p[key]
	if !ok || v == nil {
		if required {
			return "", malformed(r.kind, key, "is required")
		}
		return def, nil
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case int, int64, uint64, float64, bool:
		s = fmt.Sprint(t)
	default:
		return "", malformed(r.kind, key, "must be a string, got %T", v)
	}
	if required && strings.TrimSpace(s) == "" {
		return "", malformed(r.kind, key, "must not be empty")
	}
	return s, nil
}

func (r reader) requireString(key string) (string, error) {
	return r.str(key, true, "")
}

func (r reader) optString(key, def string) (string, error) {
	return r.str(key, false, def)
}

// grepPattern reads a value handed to grep -e. grep treats every
// line of a pattern as a pattern of its own, and an empty one
// matches anything, so the single trailing newline of a YAML block
// scalar is dropped and any other line break is rejected. Extended
// patterns must be POSIX ERE, the dialect grep -E runs.
func (r reader) grepPattern(key string, extended bool) (string, error) {
	s, err := r.requireString(key)
	if err != nil {
		return "", err
	}
	s = strings.TrimSuffix(strings.TrimSuffix(s, "\n"), "\r")
	if strings.ContainsAny(s, "\r\n") {
		return "", malformed(r.kind, key, "must be a single line")
	}
	if extended {
		if _, cerr := regexp.CompilePOSIX(s); cerr != nil {
			return "", malformed(
				r.kind, key, "is not a valid extended regular expression: %v", cerr,
			)
		}
	}
	return s, nil
}

func (r reader) integer(key string, required bool, def int) (int, error) {
	v, ok := r.p[key]
	if !ok || v == nil {
		if required {
			return 0, malformed(r.kind, key, "is required")
		}
		return def, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, malformed(r.kind, key, "must be an integer: %v", err)
	}
	return n, nil
}

func (r reader) requireInt(key string) (int, error) {
	return r.integer(key, true, 0)
}

func (r reader) optInt(key string, def int) (int, error) {
	return r.integer(key, false, def)
}

func (r reader) optBool(key string, def bool) (bool, error) {
	v, ok := r.p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0":
			return false, nil
		}
	}
	return false, malformed(r.kind, key, "must be a boolean, got %v", v)
}

// toInt accepts integer values as produced by YAML and JSON
// decoders, and decimal strings.
func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case uint64:
		if t > math.MaxInt32 {
			return 0, fmt.Errorf("%d out of range", t)
		}
		return int(t), nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return 0, fmt.Errorf("%v is not a whole number", t)
		}
		return int(t), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(t))
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
