// Package registry resolves check kinds to implementations. A
// Registry is built once and never changes afterwards, so it is
// safe for concurrent use without locking.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"digital.vasic.labcheck/pkg/challenge"
	"digital.vasic.labcheck/pkg/check"
)

// ErrUnknownKind is returned for a kind with no registered check.
var ErrUnknownKind = errors.New("unknown check kind")

// Registry is a closed set of check kinds.
type Registry struct {
	checks map[string]check.Check
	kinds  []string
}

// New builds a Registry from checks. Returns an error if two
// checks share a kind or a kind is empty.
func New(checks ...check.Check) (*Registry, error) {
	r := &Registry{
		checks: make(map[string]check.Check, len(checks)),
		kinds:  make([]string, 0, len(checks)),
	}
	for _, c := range checks {
		kind := c.Kind()
		if kind == "" {
			return nil, fmt.Errorf("check %T has an empty kind", c)
		}
		if _, exists := r.checks[kind]; exists {
			return nil, fmt.Errorf(
				"check kind already registered: %s", kind,
			)
		}
		r.checks[kind] = c
		r.kinds = append(r.kinds, kind)
	}
	sort.Strings(r.kinds)
	return r, nil
}

// Builtin returns a Registry holding every built-in check.
func Builtin() *Registry {
	r, err := New(check.Builtin()...)
	if err != nil {
		panic(fmt.Sprintf("registry: builtin checks: %v", err))
	}
	return r
}

// Get retrieves the check for kind.
func (r *Registry) Get(kind string) (check.Check, error) {
	c, ok := r.checks[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return c, nil
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind string) bool {
	_, ok := r.checks[kind]
	return ok
}

// Kinds returns the registered kinds sorted by name.
func (r *Registry) Kinds() []string {
	out := make([]string, len(r.kinds))
	copy(out, r.kinds)
	return out
}

// Count returns the number of registered kinds.
func (r *Registry) Count() int {
	return len(r.checks)
}

// ValidateStep resolves the step's kind and validates its
// parameters without touching the network.
func (r *Registry) ValidateStep(step challenge.Step) error {
	c, err := r.Get(step.Type)
	if err != nil {
		return err
	}
	return c.Validate(check.Params(step.Params))
}
