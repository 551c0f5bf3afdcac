package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"digital.vasic.labcheck/pkg/bank"
	"digital.vasic.labcheck/pkg/challenge"
	"digital.vasic.labcheck/pkg/keyguard"
)

// Process exit codes.
const (
	exitPassed     = 0
	exitFailed     = 1
	exitStructural = 2
	exitSecurity   = 3
	exitAborted    = 4
)

// verdictError carries the exit code of a finished run. Its
// message has already been rendered by the report.
type verdictError struct {
	code int
	err  error
}

func (e *verdictError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *verdictError) Unwrap() error { return e.err }

// verdict maps a report status and run error to an exit code.
// Runs worse than previous ones win, so a batch exits with the
// most severe outcome.
func verdict(status string, err error) int {
	switch status {
	case challenge.StatusPassed:
		return exitPassed
	case challenge.StatusFailed:
		return exitFailed
	case challenge.StatusRejected:
		return exitStructural
	}
	return exitCode(err)
}

// exitCode classifies errors that did not come with a report.
func exitCode(err error) int {
	var ve *verdictError
	switch {
	case err == nil:
		return exitPassed
	case errors.As(err, &ve):
		return ve.code
	case errors.Is(err, bank.ErrStructural):
		return exitStructural
	case errors.Is(err, keyguard.ErrInsecureKey):
		return exitSecurity
	}
	return exitAborted
}

func worst(a, b int) int {
	if severity(b) > severity(a) {
		return b
	}
	return a
}

func severity(code int) int {
	switch code {
	case exitFailed:
		return 1
	case exitStructural:
		return 2
	case exitAborted:
		return 3
	case exitSecurity:
		return 4
	}
	return 0
}

// execute runs the root command and returns the process exit
// code. Errors other than verdicts are printed to stderr.
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := root.ExecuteContext(ctx)
	var ve *verdictError
	if err != nil && !errors.As(err, &ve) {
		fmt.Fprintln(stderr, colorError("Error:"), err)
	}
	return exitCode(err)
}
