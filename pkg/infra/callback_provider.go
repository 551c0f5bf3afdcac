package infra

import (
	"context"
	"fmt"

	"digital.vasic.labcheck/pkg/remote"
)

// CallbackProvider is a TargetProvider whose lifecycle
// operations are supplied as functions, so a host application
// can plug in its own machine manager without this module
// depending on it.
type CallbackProvider struct {
	acquireFunc func(ctx context.Context, challengeID string) (remote.Target, error)
	releaseFunc func(ctx context.Context, challengeID string) error
	healthFunc  func(ctx context.Context, target remote.Target) error
}

// CallbackOption configures the CallbackProvider.
type CallbackOption func(*CallbackProvider)

// WithAcquireFunc sets the function that starts or locates a
// machine.
func WithAcquireFunc(
	fn func(ctx context.Context, challengeID string) (remote.Target, error),
) CallbackOption {
	return func(p *CallbackProvider) { p.acquireFunc = fn }
}

// WithReleaseFunc sets the function called to release a machine.
func WithReleaseFunc(
	fn func(ctx context.Context, challengeID string) error,
) CallbackOption {
	return func(p *CallbackProvider) { p.releaseFunc = fn }
}

// WithHealthFunc sets a readiness probe run on every acquired
// target before it is handed out.
func WithHealthFunc(
	fn func(ctx context.Context, target remote.Target) error,
) CallbackOption {
	return func(p *CallbackProvider) { p.healthFunc = fn }
}

// NewCallbackProvider creates a new CallbackProvider with the
// given options.
func NewCallbackProvider(opts ...CallbackOption) *CallbackProvider {
	p := &CallbackProvider{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire implements TargetProvider.
func (p *CallbackProvider) Acquire(
	ctx context.Context, challengeID string,
) (remote.Target, error) {
	if p.acquireFunc == nil {
		return remote.Target{}, fmt.Errorf(
			"acquire function not configured for challenge %s", challengeID,
		)
	}
	target, err := p.acquireFunc(ctx, challengeID)
	if err != nil {
		return remote.Target{}, fmt.Errorf("acquire target for %s: %w", challengeID, err)
	}
	if p.healthFunc != nil {
		if err := p.healthFunc(ctx, target); err != nil {
			return remote.Target{}, fmt.Errorf(
				"target %s for %s is not ready: %w", target, challengeID, err,
			)
		}
	}
	return target, nil
}

// Release implements TargetProvider.
func (p *CallbackProvider) Release(ctx context.Context, challengeID string) error {
	if p.releaseFunc == nil {
		return nil // Release is optional
	}
	return p.releaseFunc(ctx, challengeID)
}
