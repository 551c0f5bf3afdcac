package remote

import (
	"errors"
	"fmt"
)

// Sentinel errors for the channel failure taxonomy. Every
// *CommandError matches exactly one of them with errors.Is.
var (
	ErrAuthentication = errors.New("authentication failure")
	ErrConnection     = errors.New("connection error")
	ErrTimeout        = errors.New("timeout")
	ErrUnexpected     = errors.New("unexpected error")
)

// ErrorKind classifies a channel failure.
type ErrorKind int

const (
	// KindUnexpected is the catch-all class.
	KindUnexpected ErrorKind = iota
	// KindAuthentication covers key parsing and rejected keys.
	KindAuthentication
	// KindConnection covers unreachable, refused and DNS
	// failures, and connections dropped mid-command.
	KindConnection
	// KindTimeout covers handshake and command deadlines.
	KindTimeout
)

// String returns the taxonomy name.
func (k ErrorKind) String() string {
	switch k {
	case KindAuthentication:
		return "AuthenticationFailure"
	case KindConnection:
		return "ConnectionError"
	case KindTimeout:
		return "Timeout"
	default:
		return "UnexpectedError"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindAuthentication:
		return ErrAuthentication
	case KindConnection:
		return ErrConnection
	case KindTimeout:
		return ErrTimeout
	default:
		return ErrUnexpected
	}
}

// CommandError is a channel-level failure for one command.
type CommandError struct {
	Kind    ErrorKind
	Host    string
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s on %s", e.Kind, e.Host)
	if e.Command != "" {
		msg += fmt.Sprintf(" running %q", e.Command)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the taxonomy sentinel and the cause.
func (e *CommandError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// KindOf returns the ErrorKind of err, and false when err is not
// a channel error.
func KindOf(err error) (ErrorKind, bool) {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return KindUnexpected, false
}

func newCommandError(
	kind ErrorKind, target Target, command string, cause error,
) *CommandError {
	return &CommandError{
		Kind:    kind,
		Host:    target.Addr(),
		Command: command,
		Err:     cause,
	}
}
