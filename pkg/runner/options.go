package runner

import (
	"time"

	"digital.vasic.labcheck/pkg/logging"
	"digital.vasic.labcheck/pkg/metrics"
	"digital.vasic.labcheck/pkg/monitor"
)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used by the engine.
func WithLogger(logger logging.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.RunMetrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithCollector sets the event collector notified of run and
// step events.
func WithCollector(c *monitor.EventCollector) EngineOption {
	return func(e *Engine) {
		e.collector = c
	}
}

// WithContinueOnFailure runs every step even after one fails and
// concatenates the reasons. Intended for non-gating diagnostics.
func WithContinueOnFailure(enabled bool) EngineOption {
	return func(e *Engine) {
		e.continueOnFailure = enabled
	}
}

// WithCommandTimeout sets the timeout applied to each remote
// command. Zero defers to the target's timeout.
func WithCommandTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) {
		e.commandTimeout = timeout
	}
}

// WithKeyGuard replaces the private key check run before the
// first command of each run.
func WithKeyGuard(guard func(path string) error) EngineOption {
	return func(e *Engine) {
		e.keyGuard = guard
	}
}
