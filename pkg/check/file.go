package check

import (
	"context"
	"fmt"

	"digital.vasic.labcheck/pkg/challenge"
	"digital.vasic.labcheck/pkg/remote"
)

// FileExists compares the existence of path with should_exist
// (default true).
type FileExists struct{}

// Kind implements Check.
func (FileExists) Kind() string { return "check_file_exists" }

func (c FileExists) parse(p Params) (path string, want bool, err error) {
	r := read(c.Kind(), p)
	if path, err = r.requireString("path"); err != nil {
		return "", false, err
	}
	if want, err = r.optBool("should_exist", true); err != nil {
		return "", false, err
	}
	return path, want, nil
}

// Validate implements Check.
func (c FileExists) Validate(p Params) error {
	_, _, err := c.parse(p)
	return err
}

// Run implements Check.
func (c FileExists) Run(
	ctx context.Context, env Env, p Params,
) (challenge.Outcome, error) {
	path, want, err := c.parse(p)
	if err != nil {
		return invalid(err)
	}
	cmd := "test -e " + remote.Quote(path)
	res := env.exec(ctx, cmd)
	if res.Err != nil {
		return channelFailure(cmd, res)
	}
	var exists bool
	switch res.ExitStatus {
	case 0:
		exists = true
	case 1:
		exists = false
	default:
		return unexpectedExit("test "+path, res), nil
	}
	if exists == want {
		return challenge.Pass(), nil
	}
	return challenge.Failf(
		"expected %s to %s, but it %s",
		path, existence(want, "exist", "not exist"),
		existence(exists, "exists", "does not exist"),
	), nil
}

func existence(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}

// FileContains searches a file for a literal text or an extended
// regular expression and compares the result with should_contain
// (default true).
type FileContains struct{}

type fileContainsParams struct {
	path    string
	needle  string
	isRegex bool
	want    bool
}

// Kind implements Check.
func (FileContains) Kind() string { return "check_file_contains" }

func (c FileContains) parse(p Params) (fileContainsParams, error) {
	r := read(c.Kind(), p)
	var out fileContainsParams
	var err error
	if out.path, err = r.requireString("path"); err != nil {
		return out, err
	}
	hasText, hasRegex := p.Has("text"), p.Has("matches_regex")
	switch {
	case hasText && hasRegex:
		return out, malformed(
			c.Kind(), "", "set only one of \"text\" and \"matches_regex\"",
		)
	case hasText:
		out.needle, err = r.grepPattern("text", false)
	case hasRegex:
		out.isRegex = true
		out.needle, err = r.grepPattern("matches_regex", true)
	default:
		return out, malformed(
			c.Kind(), "", "one of \"text\" or \"matches_regex\" is required",
		)
	}
	if err != nil {
		return out, err
	}
	out.want, err = r.optBool("should_contain", true)
	return out, err
}

// Validate implements Check.
func (c FileContains) Validate(p Params) error {
	_, err := c.parse(p)
	return err
}

// Run implements Check.
func (c FileContains) Run(
	ctx context.Context, env Env, p Params,
) (challenge.Outcome, error) {
	cfg, err := c.parse(p)
	if err != nil {
		return invalid(err)
	}
	mode, what := "-F", fmt.Sprintf("text %q", cfg.needle)
	if cfg.isRegex {
		mode, what = "-E", fmt.Sprintf("a match for /%s/", cfg.needle)
	}
	cmd := fmt.Sprintf(
		"grep -q %s -e %s -- %s",
		mode, remote.Quote(cfg.needle), remote.Quote(cfg.path),
	)
	res := env.exec(ctx, cmd)
	if res.Err != nil {
		return channelFailure(cmd, res)
	}
	var found bool
	switch res.ExitStatus {
	case 0:
		found = true
	case 1:
		found = false
	default:
		return unexpectedExit("read "+cfg.path, res), nil
	}
	if found == cfg.want {
		return challenge.Pass(), nil
	}
	if cfg.want {
		return challenge.Failf(
			"expected %s to contain %s, found none", cfg.path, what,
		), nil
	}
	return challenge.Failf(
		"expected %s not to contain %s, but it does", cfg.path, what,
	), nil
}
