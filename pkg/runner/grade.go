package runner

import (
	"context"
	"sync"

	"digital.vasic.labcheck/pkg/challenge"
	"digital.vasic.labcheck/pkg/remote"
)

// Attempt is one learner's machine to grade against a challenge.
type Attempt struct {
	Name       string
	Definition *challenge.Definition
	Target     remote.Target
}

// Graded pairs an attempt with the outcome of its run.
type Graded struct {
	Attempt Attempt
	Report  *challenge.Report
	Err     error
}

// Grade runs independent attempts concurrently using at most
// maxConcurrency goroutines. Steps within each attempt still run
// sequentially. Results are returned in the same order as the
// input. Attempts that could not start before ctx was done carry
// ctx.Err() and no report.
func (e *Engine) Grade(
	ctx context.Context,
	attempts []Attempt,
	maxConcurrency int,
) []Graded {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	sem := make(chan struct{}, maxConcurrency)
	out := make([]Graded, len(attempts))

	var wg sync.WaitGroup
	for i, a := range attempts {
		wg.Add(1)
		go func(idx int, a Attempt) {
			defer wg.Done()
			out[idx].Attempt = a

			// Acquire semaphore slot.
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				out[idx].Err = ctx.Err()
				return
			}

			out[idx].Report, out[idx].Err = e.Run(ctx, a.Definition, a.Target)
		}(i, a)
	}
	wg.Wait()

	return out
}
