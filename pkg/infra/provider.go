// Package infra connects the engine to the machine lifecycle
// collaborator that starts practice machines and hands back a
// live address.
package infra

import (
	"context"

	"digital.vasic.labcheck/pkg/remote"
)

// TargetProvider hands the engine a live target for a challenge
// and takes it back afterwards.
type TargetProvider interface {
	// Acquire returns a reachable target for challengeID,
	// starting the machine when needed.
	Acquire(ctx context.Context, challengeID string) (remote.Target, error)
	// Release hands the machine back (may trigger a stop or a
	// snapshot restore).
	Release(ctx context.Context, challengeID string) error
}

// StaticProvider always returns the same target. It suits a
// machine that is already running, e.g. one named on the command
// line.
type StaticProvider struct {
	Target remote.Target
}

// Acquire implements TargetProvider.
func (p StaticProvider) Acquire(context.Context, string) (remote.Target, error) {
	return p.Target, nil
}

// Release implements TargetProvider.
func (StaticProvider) Release(context.Context, string) error { return nil }
