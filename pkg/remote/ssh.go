package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/time/rate"

	"digital.vasic.labcheck/pkg/logging"
)

// closeGrace bounds how long Run waits for a killed session to
// unwind after its timeout fired.
const closeGrace = 2 * time.Second

// SSHChannel is the production Executor. Every call dials a new
// connection, authenticates with the target's private key, runs
// one command in one session and closes everything. Host keys are
// not verified: targets are short-lived practice machines.
type SSHChannel struct {
	logger         logging.Logger
	limiter        *rate.Limiter
	defaultTimeout time.Duration
	readKey        func(path string) ([]byte, error)
	dialer         func(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error)
}

// ChannelOption configures an SSHChannel.
type ChannelOption func(*SSHChannel)

// WithChannelLogger sets the logger for command and failure
// records.
func WithChannelLogger(l logging.Logger) ChannelOption {
	return func(c *SSHChannel) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSessionRate limits how often new sessions are opened.
// Small practice machines throttle unauthenticated connections
// (sshd MaxStartups); a nil limiter disables throttling.
func WithSessionRate(l *rate.Limiter) ChannelOption {
	return func(c *SSHChannel) {
		c.limiter = l
	}
}

// WithDefaultTimeout sets the timeout used when neither the call
// nor the target carries one.
func WithDefaultTimeout(d time.Duration) ChannelOption {
	return func(c *SSHChannel) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

// NewSSHChannel creates an SSHChannel.
func NewSSHChannel(opts ...ChannelOption) *SSHChannel {
	c := &SSHChannel{
		logger:         logging.NullLogger{},
		defaultTimeout: DefaultTimeout,
		readKey:        os.ReadFile,
		dialer:         dialTCP,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func dialTCP(
	ctx context.Context, addr string, timeout time.Duration,
) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, "tcp", addr)
}

// Run executes command on target. The timeout applies separately
// to the connect+handshake phase and to the command itself. A
// command that outlives its timeout has its connection dropped
// and is reported as ErrTimeout. ctx is honoured only while
// waiting for the session rate limiter and while dialing; an
// in-flight command is never interrupted by ctx.
func (c *SSHChannel) Run(
	ctx context.Context,
	target Target,
	command string,
	timeout time.Duration,
) Result {
	if timeout <= 0 {
		timeout = target.Timeout
	}
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	start := time.Now()
	res := c.run(ctx, target, command, timeout)
	res.Duration = time.Since(start)
	res.Success = res.Err == nil && res.ExitStatus == 0

	c.logger.LogCommand(logging.CommandLog{
		Host:       target.Addr(),
		User:       target.Username,
		Command:    command,
		ExitStatus: res.ExitStatus,
		Duration:   res.Duration,
		Error:      res.ErrorString(),
	})
	if errors.Is(res.Err, ErrUnexpected) {
		c.logger.Error(
			"unexpected remote channel failure",
			logging.StringField("host", target.Addr()),
			logging.StringField("command", command),
			logging.ErrorField(res.Err),
		)
	}
	return res
}

func (c *SSHChannel) run(
	ctx context.Context,
	target Target,
	command string,
	timeout time.Duration,
) Result {
	fail := func(kind ErrorKind, cause error) Result {
		return failed(newCommandError(kind, target, command, cause))
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(KindConnection, fmt.Errorf(
				"waiting for session slot: %w", err,
			))
		}
	}

	signer, err := c.signer(target.PrivateKeyPath)
	if err != nil {
		return fail(KindAuthentication, err)
	}

	config := &ssh.ClientConfig{
		User:            target.Username,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	addr := target.Addr()
	conn, err := c.dialer(ctx, addr, timeout)
	if err != nil {
		if isTimeout(err) {
			return fail(KindTimeout, fmt.Errorf(
				"connect after %s: %w", timeout, err,
			))
		}
		return fail(KindConnection, err)
	}

	// The deadline covers the handshake only.
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		conn.Close()
		return fail(KindUnexpected, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return fail(classifyHandshake(err), err)
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		sshConn.Close()
		return fail(KindUnexpected, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return fail(KindConnection, fmt.Errorf("open session: %w", err))
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var runErr error
	select {
	case runErr = <-done:
	case <-timer.C:
		client.Close()
		res := failed(newCommandError(
			KindTimeout, target, command,
			fmt.Errorf("command did not finish within %s", timeout),
		))
		select {
		case <-done:
			res.Stdout = decodeText(stdout.Bytes())
			res.Stderr = decodeText(stderr.Bytes())
		case <-time.After(closeGrace):
		}
		return res
	}

	res := Result{
		Stdout: decodeText(stdout.Bytes()),
		Stderr: decodeText(stderr.Bytes()),
	}

	var exitErr *ssh.ExitError
	var missing *ssh.ExitMissingError
	switch {
	case runErr == nil:
		res.ExitStatus = 0
	case errors.As(runErr, &exitErr):
		res.ExitStatus = exitErr.ExitStatus()
	case errors.As(runErr, &missing):
		res.ExitStatus = -1
		res.Err = newCommandError(KindUnexpected, target, command, runErr)
	default:
		res.ExitStatus = -1
		res.Err = newCommandError(KindConnection, target, command, runErr)
	}
	return res
}

func (c *SSHChannel) signer(path string) (ssh.Signer, error) {
	pem, err := c.readKey(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(pem)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return signer, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "i/o timeout")
}

// classifyHandshake maps a failed SSH handshake to the taxonomy.
// x/crypto/ssh reports rejected credentials only as text.
func classifyHandshake(err error) ErrorKind {
	switch {
	case isTimeout(err):
		return KindTimeout
	case strings.Contains(err.Error(), "unable to authenticate"):
		return KindAuthentication
	default:
		return KindConnection
	}
}
