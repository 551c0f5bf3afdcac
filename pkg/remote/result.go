package remote

import (
	"strings"
	"time"
)

// Result is the captured outcome of one remote command.
type Result struct {
	// Success is true exactly when the command ran and exited 0.
	Success bool `json:"success"`

	// ExitStatus is the remote exit code, or -1 when the command
	// never produced one.
	ExitStatus int `json:"exit_status"`

	// Stdout and Stderr are decoded as UTF-8 with invalid
	// sequences replaced by U+FFFD.
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`

	// Err is a *CommandError when the channel itself failed.
	// A non-zero exit status alone is not an error.
	Err error `json:"-"`

	// Duration is the wall-clock time of the whole call.
	Duration time.Duration `json:"execution_time"`
}

// ErrorString returns the channel error text, or "".
func (r Result) ErrorString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// TrimmedStdout returns Stdout without surrounding whitespace.
func (r Result) TrimmedStdout() string {
	return strings.TrimSpace(r.Stdout)
}

// TrimmedStderr returns Stderr without surrounding whitespace.
func (r Result) TrimmedStderr() string {
	return strings.TrimSpace(r.Stderr)
}

// failed builds a Result for a call that never produced an exit
// status.
func failed(err error) Result {
	return Result{ExitStatus: -1, Err: err}
}

// decodeText converts captured bytes to text, replacing invalid
// UTF-8 sequences rather than dropping them.
func decodeText(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
