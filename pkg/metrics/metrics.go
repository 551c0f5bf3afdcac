// Package metrics records counters about validation runs.
package metrics

import "time"

// RunMetrics defines the interface for recording run metrics.
type RunMetrics interface {
	// RecordRun records a finished run with its terminal status.
	RecordRun(challengeID, status string, duration time.Duration)
	// RecordStep records one step with its final status.
	RecordStep(kind, status string, duration time.Duration)
	// RecordChannelError records a remote channel failure by
	// taxonomy name, e.g. "Timeout".
	RecordChannelError(kind string)
	// SetActiveRuns sets the gauge of runs in progress.
	SetActiveRuns(count int)
}

// NoopMetrics is a no-op implementation of RunMetrics useful for
// testing or when metrics collection is disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordRun(_, _ string, _ time.Duration)  {}
func (NoopMetrics) RecordStep(_, _ string, _ time.Duration) {}
func (NoopMetrics) RecordChannelError(_ string)             {}
func (NoopMetrics) SetActiveRuns(_ int)                     {}
