package runner

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by the engine's error types.
var (
	ErrValidation    = errors.New("validation failed")
	ErrConfiguration = errors.New("configuration error")
)

// ValidationError carries the ordered reasons a run did not
// pass. Cause holds the channel error(s), if any, so callers can
// test errors.Is(err, remote.ErrTimeout).
type ValidationError struct {
	Reasons []string
	Cause   error
}

func (e *ValidationError) Error() string {
	if len(e.Reasons) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Reasons, "; "))
}

// Unwrap exposes the sentinel and the cause.
func (e *ValidationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Cause}
}

// ConfigurationError reports an internal inconsistency, such as
// a kind that passed structural validation but cannot be
// resolved, or a check that panicked. It is always fatal.
type ConfigurationError struct {
	Step string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("%s: %v", ErrConfiguration, e.Err)
	}
	return fmt.Sprintf("%s in %s: %v", ErrConfiguration, e.Step, e.Err)
}

// Unwrap exposes the sentinel and the cause.
func (e *ConfigurationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Err}
}
