// Package runner provides the validation engine. A run checks the
// challenge definition structurally, guards the private key, and
// then executes setup and validation steps one at a time in
// declaration order against a single target.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"digital.vasic.labcheck/pkg/bank"
	"digital.vasic.labcheck/pkg/challenge"
	"digital.vasic.labcheck/pkg/check"
	"digital.vasic.labcheck/pkg/keyguard"
	"digital.vasic.labcheck/pkg/logging"
	"digital.vasic.labcheck/pkg/metrics"
	"digital.vasic.labcheck/pkg/monitor"
	"digital.vasic.labcheck/pkg/registry"
	"digital.vasic.labcheck/pkg/remote"
)

// Engine grades challenges against remote targets. It holds no
// per-run state, so one Engine may serve concurrent runs.
type Engine struct {
	registry          *registry.Registry
	executor          remote.Executor
	logger            logging.Logger
	metrics           metrics.RunMetrics
	collector         *monitor.EventCollector
	continueOnFailure bool
	commandTimeout    time.Duration
	keyGuard          func(path string) error
	active            atomic.Int64
}

// NewEngine creates an Engine resolving kinds through reg and
// running commands through exec.
func NewEngine(
	reg *registry.Registry,
	exec remote.Executor,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		registry: reg,
		executor: exec,
		logger:   logging.NullLogger{},
		metrics:  metrics.NoopMetrics{},
		keyGuard: keyguard.Check,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine resolves kinds with.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Run grades def against target. The returned report is never
// nil. The error is nil only when the run passed; otherwise it is
// a *bank.StructuralError (rejected), a *keyguard.SecurityError,
// a *ConfigurationError or a cancellation (aborted), or a
// *ValidationError (failed, or aborted by a channel error).
func (e *Engine) Run(
	ctx context.Context,
	def *challenge.Definition,
	target remote.Target,
) (*challenge.Report, error) {
	report := &challenge.Report{
		Status:    challenge.StatusPending,
		StartTime: time.Now(),
	}
	if def != nil {
		report.ChallengeID = def.ID
		report.ChallengeName = def.Name
	}
	if target.Host != "" {
		report.Target = target.String()
	}
	log := e.logger.WithFields(
		logging.StringField("challenge_id", string(report.ChallengeID)),
		logging.StringField("target", report.Target),
	)

	if errs := bank.ValidateDefinition(def, e.registry); len(errs) > 0 {
		serr := &bank.StructuralError{
			Source: string(report.ChallengeID), Violations: errs,
		}
		report.Reasons = serr.Reasons()
		return e.finish(report, challenge.StatusRejected, serr, log)
	}

	planned := def.Steps()
	if err := target.Validate(); err != nil {
		e.skipAll(report, planned)
		return e.finish(report, challenge.StatusAborted,
			&ConfigurationError{Err: err}, log)
	}
	if err := e.keyGuard(target.PrivateKeyPath); err != nil {
		e.skipAll(report, planned)
		return e.finish(report, challenge.StatusAborted, err, log)
	}

	return e.execute(ctx, def, target, report, planned, log)
}

// RunSteps grades an ad hoc list of validation steps.
func (e *Engine) RunSteps(
	ctx context.Context,
	steps []challenge.Step,
	target remote.Target,
) (*challenge.Report, error) {
	return e.Run(ctx, &challenge.Definition{
		ID:         "ad-hoc",
		Name:       "ad hoc checks",
		Validation: steps,
	}, target)
}

func (e *Engine) execute(
	ctx context.Context,
	def *challenge.Definition,
	target remote.Target,
	report *challenge.Report,
	planned []challenge.PlannedStep,
	log logging.Logger,
) (*challenge.Report, error) {
	report.Status = challenge.StatusRunning
	report.Steps = make([]challenge.StepReport, 0, len(planned))
	e.metrics.SetActiveRuns(int(e.active.Add(1)))
	defer func() { e.metrics.SetActiveRuns(int(e.active.Add(-1))) }()
	if e.collector != nil {
		e.collector.EmitRunStarted(def, report.Target)
	}
	log.Info("run started",
		logging.IntField("steps", len(planned)),
		logging.BoolField("continue_on_failure", e.continueOnFailure),
	)

	env := check.Env{
		Executor: e.executor,
		Target:   target,
		Timeout:  e.commandTimeout,
	}

	var (
		fatal  error
		causes []error
		failed bool
	)
	for _, ps := range planned {
		if fatal != nil || (failed && !e.continueOnFailure) {
			e.record(report, skipped(ps), log)
			continue
		}
		if err := ctx.Err(); err != nil {
			fatal = fmt.Errorf("run cancelled before %s: %w", ps.Label(), err)
			e.record(report, skipped(ps), log)
			continue
		}

		sr, err := e.runStep(ctx, env, ps, log)
		e.record(report, sr, log)
		if !sr.Passed {
			report.Reasons = append(report.Reasons, sr.Reasons...)
		}

		var cfgErr *ConfigurationError
		switch {
		case err == nil:
			failed = failed || !sr.Passed
		case errors.As(err, &cfgErr):
			fatal = err
		default:
			failed = true
			causes = append(causes, err)
			if !e.continueOnFailure {
				fatal = &ValidationError{Reasons: sr.Reasons, Cause: err}
			}
		}
	}

	switch {
	case fatal != nil:
		return e.finish(report, challenge.StatusAborted, fatal, log)
	case failed:
		return e.finish(report, challenge.StatusFailed, &ValidationError{
			Reasons: report.Reasons,
			Cause:   errors.Join(causes...),
		}, log)
	default:
		return e.finish(report, challenge.StatusPassed, nil, log)
	}
}

// runStep resolves and invokes one step. A non-nil error is
// either a channel error or a *ConfigurationError.
func (e *Engine) runStep(
	ctx context.Context,
	env check.Env,
	ps challenge.PlannedStep,
	log logging.Logger,
) (challenge.StepReport, error) {
	sr := challenge.StepReport{
		Phase: ps.Phase, Index: ps.Index, Kind: ps.Step.Type,
	}
	start := time.Now()

	c, err := e.registry.Get(ps.Step.Type)
	if err != nil {
		cerr := &ConfigurationError{Step: ps.Label(), Err: err}
		sr.Status = challenge.StatusError
		sr.Reasons = []string{cerr.Error()}
		log.Error("check kind not resolvable", logging.ErrorField(cerr))
		return sr, cerr
	}

	out, err := invoke(ctx, c, env, check.Params(ps.Step.Params))
	sr.Duration = time.Since(start)
	sr.Reasons = out.Reasons

	switch {
	case err == nil && out.Passed:
		sr.Status = challenge.StatusPassed
		sr.Passed = true
		return sr, nil
	case err == nil:
		sr.Status = challenge.StatusFailed
		return sr, nil
	}

	sr.Status = challenge.StatusError
	if len(sr.Reasons) == 0 {
		sr.Reasons = []string{err.Error()}
	}
	if kind, ok := remote.KindOf(err); ok {
		e.metrics.RecordChannelError(kind.String())
		log.Warn("remote command failed",
			logging.StringField("step", ps.Label()),
			logging.StringField("failure", kind.String()),
			logging.ErrorField(err),
		)
		return sr, err
	}
	cerr := &ConfigurationError{Step: ps.Label(), Err: err}
	log.Error("check failed unexpectedly",
		logging.StringField("step", ps.Label()),
		logging.ErrorField(err),
	)
	return sr, cerr
}

// invoke runs a check, converting a panic into an error.
func invoke(
	ctx context.Context, c check.Check, env check.Env, p check.Params,
) (out challenge.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("check %s panicked: %v", c.Kind(), r)
			out = challenge.Fail(err.Error())
		}
	}()
	return c.Run(ctx, env, p)
}

func skipped(ps challenge.PlannedStep) challenge.StepReport {
	return challenge.StepReport{
		Phase:  ps.Phase,
		Index:  ps.Index,
		Kind:   ps.Step.Type,
		Status: challenge.StatusSkipped,
	}
}

func (e *Engine) skipAll(report *challenge.Report, planned []challenge.PlannedStep) {
	report.Steps = make([]challenge.StepReport, 0, len(planned))
	for _, ps := range planned {
		report.Steps = append(report.Steps, skipped(ps))
	}
}

func (e *Engine) record(
	report *challenge.Report, sr challenge.StepReport, log logging.Logger,
) {
	report.Steps = append(report.Steps, sr)
	e.metrics.RecordStep(sr.Kind, sr.Status, sr.Duration)
	if e.collector != nil {
		e.collector.EmitStep(report.ChallengeID, sr)
	}

	fields := []logging.Field{
		logging.StringField("phase", string(sr.Phase)),
		logging.IntField("index", sr.Index),
		logging.StringField("kind", sr.Kind),
		logging.StringField("status", sr.Status),
		logging.DurationField("duration", sr.Duration),
	}
	switch sr.Status {
	case challenge.StatusPassed, challenge.StatusSkipped:
		log.Debug("step finished", fields...)
	default:
		fields = append(fields, logging.LogField("reasons", sr.Reasons))
		log.Info("step finished", fields...)
	}
}

func (e *Engine) finish(
	report *challenge.Report,
	status string,
	err error,
	log logging.Logger,
) (*challenge.Report, error) {
	report.Status = status
	report.Passed = status == challenge.StatusPassed
	if err != nil && status != challenge.StatusFailed {
		report.Error = err.Error()
	}
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	report.Summary = report.BuildSummary()

	e.metrics.RecordRun(string(report.ChallengeID), status, report.Duration)
	if e.collector != nil {
		e.collector.EmitRunFinished(report)
	}

	fields := []logging.Field{
		logging.StringField("status", status),
		logging.DurationField("duration", report.Duration),
	}
	switch status {
	case challenge.StatusPassed:
		log.Info("run finished", fields...)
	case challenge.StatusFailed, challenge.StatusRejected:
		log.Warn("run finished", append(fields, logging.ErrorField(err))...)
	default:
		log.Error("run aborted", append(fields, logging.ErrorField(err))...)
	}
	return report, err
}
