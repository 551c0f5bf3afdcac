package challenge

import (
	"fmt"
	"strings"
	"time"
)

// Outcome is the verdict of a single check. Reasons is empty
// exactly when Passed is true.
type Outcome struct {
	Passed  bool     `json:"passed"`
	Reasons []string `json:"reasons,omitempty"`
}

// Pass returns a passing Outcome.
func Pass() Outcome {
	return Outcome{Passed: true}
}

// Fail returns a failing Outcome. A failure always carries at
// least one reason.
func Fail(reasons ...string) Outcome {
	kept := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if strings.TrimSpace(r) != "" {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		kept = append(kept, "check failed without a reason")
	}
	return Outcome{Passed: false, Reasons: kept}
}

// Failf returns a failing Outcome with one formatted reason.
func Failf(format string, args ...any) Outcome {
	return Fail(fmt.Sprintf(format, args...))
}

// StepReport records how one step of a run ended.
type StepReport struct {
	Phase    Phase         `json:"phase"`
	Index    int           `json:"index"`
	Kind     string        `json:"kind"`
	Status   string        `json:"status"`
	Passed   bool          `json:"passed"`
	Reasons  []string      `json:"reasons,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report is the aggregate result of grading one challenge
// against one target.
type Report struct {
	ChallengeID   ID            `json:"challenge_id"`
	ChallengeName string        `json:"challenge_name"`
	Target        string        `json:"target,omitempty"`
	Status        string        `json:"status"`
	Passed        bool          `json:"passed"`
	Steps         []StepReport  `json:"steps"`
	Reasons       []string      `json:"reasons,omitempty"`
	Error         string        `json:"error,omitempty"`
	Summary       string        `json:"summary"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Duration      time.Duration `json:"duration"`
}

// Counts returns how many steps passed, failed and were skipped.
func (r *Report) Counts() (passed, failed, skipped int) {
	for _, s := range r.Steps {
		switch s.Status {
		case StatusPassed:
			passed++
		case StatusSkipped:
			skipped++
		default:
			failed++
		}
	}
	return passed, failed, skipped
}

// FailedSteps returns the steps that did not pass and were not
// skipped.
func (r *Report) FailedSteps() []StepReport {
	var out []StepReport
	for _, s := range r.Steps {
		if s.Status != StatusPassed && s.Status != StatusSkipped {
			out = append(out, s)
		}
	}
	return out
}

// IsFinal returns true if the status is a terminal state.
func (r *Report) IsFinal() bool {
	switch r.Status {
	case StatusRejected, StatusPassed, StatusFailed, StatusAborted:
		return true
	}
	return false
}

// BuildSummary renders a one-paragraph human-readable summary.
func (r *Report) BuildSummary() string {
	passed, failed, skipped := r.Counts()
	var sb strings.Builder
	name := r.ChallengeName
	if name == "" {
		name = string(r.ChallengeID)
	}
	fmt.Fprintf(&sb, "%s: %s", name, strings.ToUpper(r.Status))
	fmt.Fprintf(
		&sb, " (%d passed, %d failed, %d skipped)",
		passed, failed, skipped,
	)
	if r.Error != "" {
		fmt.Fprintf(&sb, "; %s", r.Error)
	} else if len(r.Reasons) > 0 {
		fmt.Fprintf(&sb, "; %s", r.Reasons[0])
		if len(r.Reasons) > 1 {
			fmt.Fprintf(&sb, " (+%d more)", len(r.Reasons)-1)
		}
	}
	return sb.String()
}
