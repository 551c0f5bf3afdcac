// Package challenge defines the data model of the validation
// engine: challenge definitions, check steps, per-check outcomes
// and the aggregate run report.
package challenge

// ID uniquely identifies a challenge.
type ID string

// Phase names the list a step was declared in.
type Phase string

const (
	// PhaseSetup steps establish preconditions.
	PhaseSetup Phase = "setup"
	// PhaseValidation steps grade the learner's work.
	PhaseValidation Phase = "validation"
)

// Run statuses. A run moves Pending -> Running and ends in one
// of Rejected, Passed, Failed or Aborted.
const (
	StatusPending  = "pending"
	StatusRunning  = "running"
	StatusRejected = "rejected"
	StatusPassed   = "passed"
	StatusFailed   = "failed"
	StatusAborted  = "aborted"
)

// Step statuses. StatusPassed and StatusFailed are shared with
// runs.
const (
	StatusSkipped = "skipped"
	StatusError   = "error"
)
