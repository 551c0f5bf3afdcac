package monitor

import (
	"time"

	"digital.vasic.labcheck/pkg/challenge"
)

// EventType represents the type of run event.
type EventType string

const (
	EventRunStarted  EventType = "run_started"
	EventStepPassed  EventType = "step_passed"
	EventStepFailed  EventType = "step_failed"
	EventStepSkipped EventType = "step_skipped"
	EventStepError   EventType = "step_error"
	EventRunFinished EventType = "run_finished"
)

// RunEvent represents a lifecycle event during a validation run.
type RunEvent struct {
	Type        EventType     `json:"type"`
	ChallengeID challenge.ID  `json:"challenge_id"`
	Name        string        `json:"name,omitempty"`
	Target      string        `json:"target,omitempty"`
	Step        string        `json:"step,omitempty"`
	Kind        string        `json:"kind,omitempty"`
	Status      string        `json:"status,omitempty"`
	Message     string        `json:"message,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}

// stepEventType maps a step status to its event type.
func stepEventType(status string) EventType {
	switch status {
	case challenge.StatusPassed:
		return EventStepPassed
	case challenge.StatusSkipped:
		return EventStepSkipped
	case challenge.StatusError:
		return EventStepError
	default:
		return EventStepFailed
	}
}
