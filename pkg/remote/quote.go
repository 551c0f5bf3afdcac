package remote

import "strings"

// Quote wraps s in single quotes for a POSIX shell, escaping
// embedded single quotes. The result is always one word.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
