package check

import (
	"context"
	"fmt"
	"strings"

	"digital.vasic.labcheck/pkg/challenge"
	"digital.vasic.labcheck/pkg/remote"
)

// PortListening passes when a listening socket exists for port
// and protocol (default tcp).
type PortListening struct{}

// Kind implements Check.
func (PortListening) Kind() string { return "check_port_listening" }

func (c PortListening) parse(p Params) (port int, proto string, err error) {
	r := read(c.Kind(), p)
	if port, err = r.requireInt("port"); err != nil {
		return 0, "", err
	}
	if port < 1 || port > 65535 {
		return 0, "", malformed(
			c.Kind(), "port", "must be between 1 and 65535, got %d", port,
		)
	}
	if proto, err = r.optString("protocol", "tcp"); err != nil {
		return 0, "", err
	}
	proto = strings.ToLower(strings.TrimSpace(proto))
	if proto != "tcp" && proto != "udp" {
		return 0, "", malformed(
			c.Kind(), "protocol", "must be tcp or udp, got %q", proto,
		)
	}
	return port, proto, nil
}

// Validate implements Check.
func (c PortListening) Validate(p Params) error {
	_, _, err := c.parse(p)
	return err
}

// portQuery lists listening sockets of one protocol and greps the
// local address column for the port.
func portQuery(port int, proto string) string {
	flag := "t"
	if proto == "udp" {
		flag = "u"
	}
	pattern := fmt.Sprintf(":%d([[:space:]]|$)", port)
	return fmt.Sprintf(
		"ss -H -%sln | grep -q -E -e %s", flag, remote.Quote(pattern),
	)
}

// Run implements Check.
func (c PortListening) Run(
	ctx context.Context, env Env, p Params,
) (challenge.Outcome, error) {
	port, proto, err := c.parse(p)
	if err != nil {
		return invalid(err)
	}
	cmd := portQuery(port, proto)
	res := env.exec(ctx, cmd)
	if res.Err != nil {
		return channelFailure(cmd, res)
	}
	if res.ExitStatus == 0 {
		return challenge.Pass(), nil
	}
	return challenge.Failf(
		"expected port %d/%s listening, found none", port, proto,
	), nil
}
