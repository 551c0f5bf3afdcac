// Package check implements the library of remote-state checks.
// Each check validates its own parameters, issues the minimum
// remote commands through a remote.Executor and compares the
// observed state with the expected one.
package check

import (
	"context"
	"errors"
	"fmt"
	"time"

	"digital.vasic.labcheck/pkg/challenge"
	"digital.vasic.labcheck/pkg/remote"
)

// Check is one registered check kind.
type Check interface {
	// Kind returns the registered type name, e.g.
	// "check_port_listening".
	Kind() string

	// Validate checks the step parameters without touching the
	// network. It returns a *MalformedStepError on failure.
	Validate(p Params) error

	// Run executes the check. The returned error is non-nil only
	// for channel failures (a *remote.CommandError) or malformed
	// parameters; a remote state mismatch is a failing Outcome
	// with a nil error.
	Run(ctx context.Context, env Env, p Params) (challenge.Outcome, error)
}

// Env carries what a check needs to reach the target.
type Env struct {
	Executor remote.Executor
	Target   remote.Target

	// Timeout applies to each remote command. Zero defers to the
	// executor and target defaults.
	Timeout time.Duration
}

func (e Env) exec(ctx context.Context, command string) remote.Result {
	return e.Executor.Run(ctx, e.Target, command, e.Timeout)
}

// ErrMalformedStep is matched by every MalformedStepError.
var ErrMalformedStep = errors.New("malformed step")

// MalformedStepError reports a missing or invalid parameter.
type MalformedStepError struct {
	Kind   string
	Param  string
	Reason string
}

func (e *MalformedStepError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("malformed %s step: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf(
		"malformed %s step: parameter %q %s",
		e.Kind, e.Param, e.Reason,
	)
}

// Is makes errors.Is(err, ErrMalformedStep) true.
func (e *MalformedStepError) Is(target error) bool {
	return target == ErrMalformedStep
}

func malformed(kind, param, format string, args ...any) error {
	return &MalformedStepError{
		Kind:   kind,
		Param:  param,
		Reason: fmt.Sprintf(format, args...),
	}
}

// invalid turns a parse error into a failing Outcome so reports
// still carry a reason.
func invalid(err error) (challenge.Outcome, error) {
	return challenge.Fail(err.Error()), err
}

// channelFailure reports a command that never produced a usable
// exit status.
func channelFailure(
	command string, res remote.Result,
) (challenge.Outcome, error) {
	return challenge.Failf(
		"could not run %q: %v", command, res.Err,
	), res.Err
}

// unexpectedExit describes a query that exited with a status the
// check does not interpret.
func unexpectedExit(what string, res remote.Result) challenge.Outcome {
	reason := fmt.Sprintf(
		"could not %s: exit status %d", what, res.ExitStatus,
	)
	if msg := res.TrimmedStderr(); msg != "" {
		reason += ": " + msg
	}
	return challenge.Fail(reason)
}

// Builtin returns one instance of every check kind.
func Builtin() []Check {
	return []Check{
		RunCommand{},
		ServiceStatus{},
		PortListening{},
		FileExists{},
		FileContains{},
		UserGroup{},
		History{},
		EnsureGroupExists{},
		EnsureUserExists{},
	}
}
