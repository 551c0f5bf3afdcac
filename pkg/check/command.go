package check

import (
	"context"
	"fmt"

	"digital.vasic.labcheck/pkg/challenge"
)

// RunCommand runs an arbitrary command and compares its exit
// status with expected_exit_code (default 0).
type RunCommand struct{}

type runCommandParams struct {
	command  string
	expected int
}

// Kind implements Check.
func (RunCommand) Kind() string { return "run_command" }

func (c RunCommand) parse(p Params) (runCommandParams, error) {
	r := read(c.Kind(), p)
	cmd, err := r.requireString("command")
	if err != nil {
		return runCommandParams{}, err
	}
	code, err := r.optInt("expected_exit_code", 0)
	if err != nil {
		return runCommandParams{}, err
	}
	if code < 0 || code > 255 {
		return runCommandParams{}, malformed(
			c.Kind(), "expected_exit_code",
			"must be between 0 and 255, got %d", code,
		)
	}
	return runCommandParams{command: cmd, expected: code}, nil
}

// Validate implements Check.
func (c RunCommand) Validate(p Params) error {
	_, err := c.parse(p)
	return err
}

// Run implements Check.
func (c RunCommand) Run(
	ctx context.Context, env Env, p Params,
) (challenge.Outcome, error) {
	cfg, err := c.parse(p)
	if err != nil {
		return invalid(err)
	}
	res := env.exec(ctx, cfg.command)
	if res.Err != nil {
		return channelFailure(cfg.command, res)
	}
	if res.ExitStatus == cfg.expected {
		return challenge.Pass(), nil
	}
	reason := fmt.Sprintf(
		"command %q exited with status %d, expected %d",
		cfg.command, res.ExitStatus, cfg.expected,
	)
	if msg := res.TrimmedStderr(); msg != "" {
		reason += "; stderr: " + msg
	}
	return challenge.Fail(reason), nil
}
