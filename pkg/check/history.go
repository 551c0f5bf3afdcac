package check

import (
	"context"
	"fmt"
	"strings"

	"digital.vasic.labcheck/pkg/challenge"
	"digital.vasic.labcheck/pkg/remote"
)

const defaultHistoryFile = "~/.bash_history"

// History counts shell-history lines matching command_pattern (an
// extended regular expression) and compares the count with
// expected_count (default ">=1").
type History struct{}

type historyParams struct {
	pattern  string
	expected Comparator
	file     string
}

// Kind implements Check.
func (History) Kind() string { return "check_history" }

func (c History) parse(p Params) (historyParams, error) {
	r := read(c.Kind(), p)
	var out historyParams
	var err error
	if out.pattern, err = r.grepPattern("command_pattern", true); err != nil {
		return out, err
	}
	out.expected = Comparator{Op: OpGTE, Value: 1}
	if p.Has("expected_count") {
		out.expected, err = ParseComparator(p["expected_count"])
		if err != nil {
			return out, malformed(c.Kind(), "expected_count", "%v", err)
		}
	}
	out.file, err = r.optString("history_file", defaultHistoryFile)
	return out, err
}

// Validate implements Check.
func (c History) Validate(p Params) error {
	_, err := c.parse(p)
	return err
}

// historyPath renders the file argument, expanding a leading ~/
// through $HOME and quoting the rest.
func historyPath(file string) string {
	if rest, ok := strings.CutPrefix(file, "~/"); ok {
		return `"$HOME"/` + remote.Quote(rest)
	}
	return remote.Quote(file)
}

// Run implements Check. grep -c prints 0 and exits 1 when nothing
// matches, which is a valid count.
func (c History) Run(
	ctx context.Context, env Env, p Params,
) (challenge.Outcome, error) {
	cfg, err := c.parse(p)
	if err != nil {
		return invalid(err)
	}
	cmd := fmt.Sprintf(
		"grep -c -E -e %s -- %s",
		remote.Quote(cfg.pattern), historyPath(cfg.file),
	)
	res := env.exec(ctx, cmd)
	if res.Err != nil {
		return channelFailure(cmd, res)
	}
	if res.ExitStatus != 0 && res.ExitStatus != 1 {
		return unexpectedExit("read history file "+cfg.file, res), nil
	}
	count, err := ParseCount(res.Stdout)
	if err != nil {
		return challenge.Fail(err.Error()), nil
	}
	if cfg.expected.Compare(count) {
		return challenge.Pass(), nil
	}
	return challenge.Failf(
		"expected %s history lines matching %q, found %d",
		cfg.expected.Describe(), cfg.pattern, count,
	), nil
}
