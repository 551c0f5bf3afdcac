package check

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Op is a count comparison operator.
type Op int

const (
	// OpEQ requires an exact count.
	OpEQ Op = iota
	// OpGT requires a count strictly greater than Value.
	OpGT
	// OpGTE requires a count of at least Value.
	OpGTE
)

// Comparator compares an observed count against an expectation.
// It is written in challenge files as a bare integer (equality)
// or as a string ">N", ">=N", "==N" or "N".
type Comparator struct {
	Op    Op
	Value int
}

var digits = regexp.MustCompile(`^[0-9]+$`)

// ParseComparator parses a bare integer or an operator string.
func ParseComparator(v any) (Comparator, error) {
	if s, ok := v.(string); ok {
		return parseComparatorString(s)
	}
	n, err := toInt(v)
	if err != nil {
		return Comparator{}, err
	}
	if n < 0 {
		return Comparator{}, fmt.Errorf("count %d is negative", n)
	}
	return Comparator{Op: OpEQ, Value: n}, nil
}

func parseComparatorString(s string) (Comparator, error) {
	expr := strings.TrimSpace(s)
	op := OpEQ
	switch {
	case strings.HasPrefix(expr, ">="):
		op, expr = OpGTE, expr[2:]
	case strings.HasPrefix(expr, "=="):
		op, expr = OpEQ, expr[2:]
	case strings.HasPrefix(expr, ">"):
		op, expr = OpGT, expr[1:]
	}
	expr = strings.TrimSpace(expr)
	if !digits.MatchString(expr) {
		return Comparator{}, fmt.Errorf(
			"%q is not a count expression (want N, >N, >=N or ==N)", s,
		)
	}
	n, err := strconv.Atoi(expr)
	if err != nil {
		return Comparator{}, fmt.Errorf("%q: %w", s, err)
	}
	return Comparator{Op: op, Value: n}, nil
}

// Compare reports whether n satisfies the comparator.
func (c Comparator) Compare(n int) bool {
	switch c.Op {
	case OpGT:
		return n > c.Value
	case OpGTE:
		return n >= c.Value
	default:
		return n == c.Value
	}
}

// String renders the challenge-file form.
func (c Comparator) String() string {
	switch c.Op {
	case OpGT:
		return fmt.Sprintf(">%d", c.Value)
	case OpGTE:
		return fmt.Sprintf(">=%d", c.Value)
	default:
		return fmt.Sprintf("==%d", c.Value)
	}
}

// Describe renders the comparator for learners.
func (c Comparator) Describe() string {
	switch c.Op {
	case OpGT:
		return fmt.Sprintf("more than %d", c.Value)
	case OpGTE:
		return fmt.Sprintf("at least %d", c.Value)
	default:
		return fmt.Sprintf("exactly %d", c.Value)
	}
}

// ParseCount parses a count printed by a remote command. Leading
// and trailing ASCII whitespace (space, tab, CR, LF) is ignored;
// what remains must be one or more ASCII digits. Signs, thousands
// separators, locale digits and multiple lines are rejected.
func ParseCount(out string) (int, error) {
	trimmed := strings.Trim(out, " \t\r\n")
	if !digits.MatchString(trimmed) {
		return 0, fmt.Errorf("could not parse count from output %q", out)
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("could not parse count from output %q: %w", out, err)
	}
	return n, nil
}
