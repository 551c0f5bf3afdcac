// Package monitor collects lifecycle events of validation runs
// and fans them out to registered handlers.
package monitor

import (
	"strings"
	"sync"
	"time"

	"digital.vasic.labcheck/pkg/challenge"
)

// EventCollector captures run events and timing data. It is safe
// for concurrent use.
type EventCollector struct {
	mu       sync.RWMutex
	events   []RunEvent
	handlers []func(RunEvent)
	stats    CollectorStats
}

// CollectorStats holds aggregate statistics over finished runs
// and executed steps.
type CollectorStats struct {
	Runs      int           `json:"runs"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Rejected  int           `json:"rejected"`
	Aborted   int           `json:"aborted"`
	Steps     int           `json:"steps"`
	Skipped   int           `json:"skipped"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
}

// NewEventCollector creates a new event collector.
func NewEventCollector() *EventCollector {
	return &EventCollector{
		events: make([]RunEvent, 0, 64),
		stats:  CollectorStats{StartTime: time.Now()},
	}
}

// OnEvent registers a handler to be called for each event.
// Handlers run synchronously on the emitting goroutine.
func (c *EventCollector) OnEvent(handler func(RunEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Emit records an event and notifies all handlers.
func (c *EventCollector) Emit(event RunEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	c.mu.Lock()
	c.events = append(c.events, event)
	switch event.Type {
	case EventRunFinished:
		c.stats.Runs++
		switch event.Status {
		case challenge.StatusPassed:
			c.stats.Passed++
		case challenge.StatusFailed:
			c.stats.Failed++
		case challenge.StatusRejected:
			c.stats.Rejected++
		case challenge.StatusAborted:
			c.stats.Aborted++
		}
	case EventStepSkipped:
		c.stats.Skipped++
	case EventStepPassed, EventStepFailed, EventStepError:
		c.stats.Steps++
	}
	c.stats.Duration = time.Since(c.stats.StartTime)
	handlers := make([]func(RunEvent), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

// EmitRunStarted emits a run started event.
func (c *EventCollector) EmitRunStarted(def *challenge.Definition, target string) {
	c.Emit(RunEvent{
		Type:        EventRunStarted,
		ChallengeID: def.ID,
		Name:        def.Name,
		Target:      target,
		Status:      challenge.StatusRunning,
	})
}

// EmitStep emits the event matching a finished step.
func (c *EventCollector) EmitStep(id challenge.ID, step challenge.StepReport) {
	c.Emit(RunEvent{
		Type:        stepEventType(step.Status),
		ChallengeID: id,
		Step:        stepLabel(step),
		Kind:        step.Kind,
		Status:      step.Status,
		Message:     strings.Join(step.Reasons, "; "),
		Duration:    step.Duration,
	})
}

// EmitRunFinished emits the terminal event of a run.
func (c *EventCollector) EmitRunFinished(r *challenge.Report) {
	msg := r.Error
	if msg == "" {
		msg = strings.Join(r.Reasons, "; ")
	}
	c.Emit(RunEvent{
		Type:        EventRunFinished,
		ChallengeID: r.ChallengeID,
		Name:        r.ChallengeName,
		Target:      r.Target,
		Status:      r.Status,
		Message:     msg,
		Duration:    r.Duration,
	})
}

func stepLabel(s challenge.StepReport) string {
	return challenge.PlannedStep{
		Phase: s.Phase, Index: s.Index, Step: challenge.Step{Type: s.Kind},
	}.Label()
}

// Events returns a copy of all collected events.
func (c *EventCollector) Events() []RunEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]RunEvent, len(c.events))
	copy(result, c.events)
	return result
}

// Stats returns the current aggregate statistics.
func (c *EventCollector) Stats() CollectorStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Duration = time.Since(s.StartTime)
	return s
}

// Reset clears all collected events and statistics.
func (c *EventCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
	c.stats = CollectorStats{StartTime: time.Now()}
}
