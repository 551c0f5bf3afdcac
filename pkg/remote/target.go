// Package remote runs single commands on a practice machine over
// SSH and reports their captured output, exit status and failure
// class.
package remote

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	// DefaultPort is used when a Target leaves Port unset.
	DefaultPort = 22

	// DefaultTimeout bounds the handshake and the command when
	// neither the caller nor the Target sets a timeout.
	DefaultTimeout = 10 * time.Second
)

// Target identifies the machine a run is graded against. It is
// supplied by the machine lifecycle collaborator and never
// persisted.
type Target struct {
	Host           string        `json:"host" yaml:"host"`
	Username       string        `json:"username" yaml:"username"`
	PrivateKeyPath string        `json:"private_key_path" yaml:"private_key_path"`
	Port           int           `json:"port,omitempty" yaml:"port,omitempty"`
	Timeout        time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// WithDefaults returns a copy with Port and Timeout filled in.
func (t Target) WithDefaults() Target {
	if t.Port <= 0 {
		t.Port = DefaultPort
	}
	if t.Timeout <= 0 {
		t.Timeout = DefaultTimeout
	}
	return t
}

// Addr returns host:port, bracketing IPv6 literals.
func (t Target) Addr() string {
	port := t.Port
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(port))
}

// Validate checks that the fields needed to open a session are
// present.
func (t Target) Validate() error {
	switch {
	case t.Host == "":
		return fmt.Errorf("target host is required")
	case t.Username == "":
		return fmt.Errorf("target username is required")
	case t.PrivateKeyPath == "":
		return fmt.Errorf("target private key path is required")
	case t.Port < 0 || t.Port > 65535:
		return fmt.Errorf("target port %d out of range", t.Port)
	}
	return nil
}

// String renders user@host:port.
func (t Target) String() string {
	return t.Username + "@" + t.Addr()
}
