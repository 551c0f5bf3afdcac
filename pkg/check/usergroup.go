package check

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"digital.vasic.labcheck/pkg/challenge"
	"digital.vasic.labcheck/pkg/remote"
)

// User/group sub-checks accepted by check_user_group.
const (
	UserExists       = "user_exists"
	UserPrimaryGroup = "user_primary_group"
	UserInGroup      = "user_in_group"
	UserShell        = "user_shell"
)

var userGroupTypes = []string{
	UserExists, UserPrimaryGroup, UserInGroup, UserShell,
}

// UserGroup dispatches on check_type to one of the user and
// group membership queries.
type UserGroup struct{}

type userGroupParams struct {
	checkType string
	username  string
	group     string
	shell     string
}

// Kind implements Check.
func (UserGroup) Kind() string { return "check_user_group" }

func (c UserGroup) parse(p Params) (userGroupParams, error) {
	r := read(c.Kind(), p)
	var out userGroupParams
	var err error
	if out.checkType, err = r.requireString("check_type"); err != nil {
		return out, err
	}
	if out.username, err = r.requireString("username"); err != nil {
		return out, err
	}
	switch out.checkType {
	case UserExists:
	case UserPrimaryGroup, UserInGroup:
		out.group, err = r.requireString("group")
	case UserShell:
		out.shell, err = r.requireString("shell")
	default:
		err = malformed(
			c.Kind(), "check_type", "must be one of %s, got %q",
			strings.Join(userGroupTypes, ", "), out.checkType,
		)
	}
	return out, err
}

// Validate implements Check.
func (c UserGroup) Validate(p Params) error {
	_, err := c.parse(p)
	return err
}

// Run implements Check.
func (c UserGroup) Run(
	ctx context.Context, env Env, p Params,
) (challenge.Outcome, error) {
	cfg, err := c.parse(p)
	if err != nil {
		return invalid(err)
	}
	switch cfg.checkType {
	case UserPrimaryGroup:
		return primaryGroup(ctx, env, cfg.username, cfg.group)
	case UserInGroup:
		return inGroup(ctx, env, cfg.username, cfg.group)
	case UserShell:
		return loginShell(ctx, env, cfg.username, cfg.shell)
	default:
		return userExists(ctx, env, cfg.username)
	}
}

func userExists(
	ctx context.Context, env Env, user string,
) (challenge.Outcome, error) {
	cmd := "id -u " + remote.Quote(user)
	res := env.exec(ctx, cmd)
	if res.Err != nil {
		return channelFailure(cmd, res)
	}
	if res.ExitStatus == 0 {
		return challenge.Pass(), nil
	}
	return challenge.Failf("expected user %s to exist, found none", user), nil
}

func primaryGroup(
	ctx context.Context, env Env, user, group string,
) (challenge.Outcome, error) {
	cmd := "id -gn " + remote.Quote(user)
	res := env.exec(ctx, cmd)
	if res.Err != nil {
		return channelFailure(cmd, res)
	}
	if res.ExitStatus != 0 {
		return challenge.Failf("expected user %s to exist, found none", user), nil
	}
	actual := res.TrimmedStdout()
	if actual == group {
		return challenge.Pass(), nil
	}
	return challenge.Failf(
		"expected primary group of %s to be %s, found %s",
		user, group, actual,
	), nil
}

func inGroup(
	ctx context.Context, env Env, user, group string,
) (challenge.Outcome, error) {
	cmd := "id -nG " + remote.Quote(user)
	res := env.exec(ctx, cmd)
	if res.Err != nil {
		return channelFailure(cmd, res)
	}
	if res.ExitStatus != 0 {
		return challenge.Failf("expected user %s to exist, found none", user), nil
	}
	groups := strings.Fields(res.Stdout)
	for _, g := range groups {
		if g == group {
			return challenge.Pass(), nil
		}
	}
	sort.Strings(groups)
	return challenge.Failf(
		"expected %s to be a member of %s, found groups: %s",
		user, group, strings.Join(groups, ", "),
	), nil
}

func loginShell(
	ctx context.Context, env Env, user, shell string,
) (challenge.Outcome, error) {
	cmd := "getent passwd " + remote.Quote(user)
	res := env.exec(ctx, cmd)
	if res.Err != nil {
		return channelFailure(cmd, res)
	}
	switch res.ExitStatus {
	case 0:
	case 2:
		return challenge.Failf("expected user %s to exist, found none", user), nil
	default:
		return unexpectedExit("look up user "+user, res), nil
	}
	actual, err := shellField(res.TrimmedStdout())
	if err != nil {
		return challenge.Failf("could not read shell of %s: %v", user, err), nil
	}
	if shellMatches(actual, shell) {
		return challenge.Pass(), nil
	}
	return challenge.Failf(
		"expected shell of %s to be %s, found %s", user, shell, actual,
	), nil
}

// shellField extracts the seventh field of a passwd entry.
func shellField(entry string) (string, error) {
	line := strings.SplitN(entry, "\n", 2)[0]
	fields := strings.Split(line, ":")
	if len(fields) != 7 {
		return "", fmt.Errorf("malformed passwd entry %q", line)
	}
	return fields[6], nil
}

// shellMatches compares exactly, or by base name when the
// expectation carries no directory (e.g. "zsh").
func shellMatches(actual, want string) bool {
	if actual == want {
		return true
	}
	if !strings.Contains(want, "/") {
		return path.Base(actual) == want
	}
	return false
}

// EnsureGroupExists is a setup precondition confirming a group
// exists.
type EnsureGroupExists struct{}

// Kind implements Check.
func (EnsureGroupExists) Kind() string { return "ensure_group_exists" }

// Validate implements Check.
func (c EnsureGroupExists) Validate(p Params) error {
	_, err := read(c.Kind(), p).requireString("group")
	return err
}

// Run implements Check.
func (c EnsureGroupExists) Run(
	ctx context.Context, env Env, p Params,
) (challenge.Outcome, error) {
	group, err := read(c.Kind(), p).requireString("group")
	if err != nil {
		return invalid(err)
	}
	cmd := "getent group " + remote.Quote(group)
	res := env.exec(ctx, cmd)
	if res.Err != nil {
		return channelFailure(cmd, res)
	}
	switch res.ExitStatus {
	case 0:
		return challenge.Pass(), nil
	case 2:
		return challenge.Failf("expected group %s to exist, found none", group), nil
	default:
		return unexpectedExit("look up group "+group, res), nil
	}
}

// EnsureUserExists is a setup precondition confirming a user
// exists.
type EnsureUserExists struct{}

// Kind implements Check.
func (EnsureUserExists) Kind() string { return "ensure_user_exists" }

// Validate implements Check.
func (c EnsureUserExists) Validate(p Params) error {
	_, err := read(c.Kind(), p).requireString("username")
	return err
}

// Run implements Check.
func (c EnsureUserExists) Run(
	ctx context.Context, env Env, p Params,
) (challenge.Outcome, error) {
	user, err := read(c.Kind(), p).requireString("username")
	if err != nil {
		return invalid(err)
	}
	return userExists(ctx, env, user)
}
