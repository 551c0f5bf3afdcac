package remote

import (
	"context"
	"time"
)

// Executor runs one command on a target and returns its captured
// result. Implementations must never block longer than the
// effective timeout plus a small grace period.
type Executor interface {
	Run(
		ctx context.Context,
		target Target,
		command string,
		timeout time.Duration,
	) Result
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(
	ctx context.Context,
	target Target,
	command string,
	timeout time.Duration,
) Result

// Run calls f.
func (f ExecutorFunc) Run(
	ctx context.Context,
	target Target,
	command string,
	timeout time.Duration,
) Result {
	return f(ctx, target, command, timeout)
}
