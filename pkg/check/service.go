package check

import (
	"context"
	"strings"

	"digital.vasic.labcheck/pkg/challenge"
	"digital.vasic.labcheck/pkg/remote"
)

// ServiceStatus compares the systemd state of a unit with
// expected_status (default "active").
type ServiceStatus struct{}

// Kind implements Check.
func (ServiceStatus) Kind() string { return "check_service_status" }

func (c ServiceStatus) parse(p Params) (service, expected string, err error) {
	r := read(c.Kind(), p)
	if service, err = r.requireString("service"); err != nil {
		return "", "", err
	}
	if expected, err = r.optString("expected_status", "active"); err != nil {
		return "", "", err
	}
	return service, strings.ToLower(strings.TrimSpace(expected)), nil
}

// Validate implements Check.
func (c ServiceStatus) Validate(p Params) error {
	_, _, err := c.parse(p)
	return err
}

// Run implements Check. systemctl is-active exits non-zero for
// every state except active, so only the printed state is
// compared.
func (c ServiceStatus) Run(
	ctx context.Context, env Env, p Params,
) (challenge.Outcome, error) {
	service, expected, err := c.parse(p)
	if err != nil {
		return invalid(err)
	}
	cmd := "systemctl is-active " + remote.Quote(service)
	res := env.exec(ctx, cmd)
	if res.Err != nil {
		return channelFailure(cmd, res)
	}
	actual := strings.ToLower(res.TrimmedStdout())
	if actual == expected {
		return challenge.Pass(), nil
	}
	if actual == "" {
		actual = "no status"
		if msg := res.TrimmedStderr(); msg != "" {
			actual += " (" + msg + ")"
		}
	}
	return challenge.Failf(
		"service %s: expected status %q, found %q",
		service, expected, actual,
	), nil
}
