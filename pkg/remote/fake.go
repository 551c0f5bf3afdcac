package remote

import (
	"context"
	"strings"
	"sync"
	"time"
)

// FakeExecutor is an in-memory Executor that replays scripted
// results. Commands are matched first exactly, then by the
// longest registered substring. Unmatched commands return the
// fallback result. It records every call and is safe for
// concurrent use.
type FakeExecutor struct {
	mu       sync.Mutex
	exact    map[string]Result
	contains map[string]Result
	fallback Result
	calls    []string
}

// NewFakeExecutor creates a FakeExecutor whose fallback is a
// command that exits 127 with "command not found".
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{
		exact:    make(map[string]Result),
		contains: make(map[string]Result),
		fallback: Result{
			ExitStatus: 127,
			Stderr:     "command not found",
		},
	}
}

// On scripts the result for an exact command line.
func (f *FakeExecutor) On(command string, r Result) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exact[command] = normalize(r)
	return f
}

// OnContains scripts the result for any command containing
// fragment.
func (f *FakeExecutor) OnContains(fragment string, r Result) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contains[fragment] = normalize(r)
	return f
}

// Fallback sets the result for unmatched commands.
func (f *FakeExecutor) Fallback(r Result) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = normalize(r)
	return f
}

// Run implements Executor.
func (f *FakeExecutor) Run(
	_ context.Context,
	target Target,
	command string,
	_ time.Duration,
) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, command)

	if r, ok := f.exact[command]; ok {
		return bind(r, target, command)
	}
	best := ""
	for frag := range f.contains {
		if strings.Contains(command, frag) && len(frag) > len(best) {
			best = frag
		}
	}
	if best != "" {
		return bind(f.contains[best], target, command)
	}
	return bind(normalize(f.fallback), target, command)
}

// Calls returns the commands run so far, in order.
func (f *FakeExecutor) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// Reset clears the call log.
func (f *FakeExecutor) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// Exit builds a scripted result with the given status and
// stdout.
func Exit(status int, stdout string) Result {
	return Result{ExitStatus: status, Stdout: stdout}
}

// Fail builds a scripted channel failure of the given kind.
func Fail(kind ErrorKind, cause error) Result {
	return Result{
		ExitStatus: -1,
		Err:        &CommandError{Kind: kind, Err: cause},
	}
}

func normalize(r Result) Result {
	r.Success = r.Err == nil && r.ExitStatus == 0
	return r
}

// bind fills in the target and command on scripted errors so
// they read like real channel failures.
func bind(r Result, target Target, command string) Result {
	if ce, ok := r.Err.(*CommandError); ok {
		cp := *ce
		cp.Host = target.Addr()
		cp.Command = command
		r.Err = &cp
	}
	return r
}
