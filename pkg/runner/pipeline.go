package runner

import (
	"context"
	"fmt"

	"digital.vasic.labcheck/pkg/challenge"
	"digital.vasic.labcheck/pkg/infra"
	"digital.vasic.labcheck/pkg/logging"
)

// ReportHook receives every finished report, e.g. to write it to
// disk or forward it to a UI.
type ReportHook func(
	ctx context.Context,
	report *challenge.Report,
) error

// Pipeline acquires a target from the lifecycle collaborator,
// grades a challenge against it, releases the machine and hands
// the report to post-hooks.
type Pipeline struct {
	engine    *Engine
	provider  infra.TargetProvider
	postHooks []ReportHook
}

// NewPipeline creates a Pipeline wrapping the given engine.
func NewPipeline(engine *Engine, provider infra.TargetProvider) *Pipeline {
	return &Pipeline{
		engine:   engine,
		provider: provider,
	}
}

// AddPostHook appends a post-run hook to the pipeline.
func (p *Pipeline) AddPostHook(h ReportHook) {
	p.postHooks = append(p.postHooks, h)
}

// Execute runs def through the pipeline:
// acquire -> engine.Run -> release -> post-hooks.
// Post-hook and release failures are logged, never turned into a
// different verdict.
func (p *Pipeline) Execute(
	ctx context.Context,
	def *challenge.Definition,
) (*challenge.Report, error) {
	id := string(def.ID)
	target, err := p.provider.Acquire(ctx, id)
	if err != nil {
		return nil, &ConfigurationError{
			Err: fmt.Errorf("no target for %s: %w", id, err),
		}
	}

	report, runErr := p.engine.Run(ctx, def, target)

	if err := p.provider.Release(ctx, id); err != nil {
		p.engine.logger.Warn("release failed",
			logging.StringField("challenge_id", id),
			logging.ErrorField(err),
		)
	}

	for _, hook := range p.postHooks {
		if hookErr := hook(ctx, report); hookErr != nil {
			p.engine.logger.Warn("pipeline post-hook failed",
				logging.StringField("challenge_id", id),
				logging.ErrorField(hookErr),
			)
		}
	}

	return report, runErr
}

// ExecuteSequence runs several challenges through the pipeline
// in order. Every challenge is attempted; the reports and errors
// are returned index-aligned with defs.
func (p *Pipeline) ExecuteSequence(
	ctx context.Context,
	defs []*challenge.Definition,
) ([]*challenge.Report, []error) {
	reports := make([]*challenge.Report, len(defs))
	errs := make([]error, len(defs))
	for i, def := range defs {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		reports[i], errs[i] = p.Execute(ctx, def)
	}
	return reports, errs
}
