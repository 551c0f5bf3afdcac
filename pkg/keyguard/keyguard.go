// Package keyguard inspects private key files before any remote
// connection is attempted. A key that is readable or writable by
// anyone other than its owner is refused.
package keyguard

import (
	"errors"
	"fmt"
	"os"
)

const (
	// OwnerReadWrite is the conventional private key mode.
	OwnerReadWrite = os.FileMode(0o600)

	// OwnerReadOnly is the stricter accepted key mode.
	OwnerReadOnly = os.FileMode(0o400)

	// groupOtherMask covers every permission bit outside the
	// owner triad.
	groupOtherMask = os.FileMode(0o077)
)

// ErrInsecureKey is matched by every SecurityError.
var ErrInsecureKey = errors.New("insecure private key")

// SecurityError reports why a private key was refused.
type SecurityError struct {
	Path   string
	Mode   os.FileMode
	Reason string
}

func (e *SecurityError) Error() string {
	if e.Mode != 0 {
		return fmt.Sprintf(
			"private key %s (mode %04o): %s",
			e.Path, e.Mode.Perm(), e.Reason,
		)
	}
	return fmt.Sprintf("private key %s: %s", e.Path, e.Reason)
}

// Is makes errors.Is(err, ErrInsecureKey) true.
func (e *SecurityError) Is(target error) bool {
	return target == ErrInsecureKey
}

// Check returns nil when the key at path exists, is a regular
// file, and grants no permissions to group or others. Otherwise
// it returns a *SecurityError.
func Check(path string) error {
	if path == "" {
		return &SecurityError{Reason: "no key path given"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &SecurityError{
				Path: path, Reason: "file does not exist",
			}
		}
		return &SecurityError{
			Path: path, Reason: fmt.Sprintf("stat failed: %v", err),
		}
	}
	if !info.Mode().IsRegular() {
		return &SecurityError{
			Path: path, Mode: info.Mode(),
			Reason: "not a regular file",
		}
	}
	perm := info.Mode().Perm()
	if perm&groupOtherMask != 0 {
		return &SecurityError{
			Path: path, Mode: perm,
			Reason: fmt.Sprintf(
				"permissions too open, expected %04o or %04o",
				OwnerReadWrite, OwnerReadOnly,
			),
		}
	}
	return nil
}

// IsSecure reports whether Check accepts the key at path.
func IsSecure(path string) bool {
	return Check(path) == nil
}
