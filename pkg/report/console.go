package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"digital.vasic.labcheck/pkg/challenge"
)

var (
	colorPass = color.New(color.FgGreen, color.Bold).SprintFunc()
	colorFail = color.New(color.FgRed, color.Bold).SprintFunc()
	colorWarn = color.New(color.FgYellow).SprintFunc()
	colorDim  = color.New(color.Faint).SprintFunc()
	colorHead = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// ConsoleReporter renders reports as coloured terminal text.
// Colour follows color.NoColor, which fatih/color sets when the
// output is not a terminal or NO_COLOR is present.
type ConsoleReporter struct{}

// NewConsoleReporter creates a new console reporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// GenerateReport renders a single run report.
func (r *ConsoleReporter) GenerateReport(
	report *challenge.Report,
) ([]byte, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s (%s)", colorHead(displayName(report)), report.ChallengeID)
	if report.Target != "" {
		fmt.Fprintf(&sb, " on %s", report.Target)
	}
	sb.WriteString("\n")

	for _, s := range report.Steps {
		fmt.Fprintf(
			&sb, "  %s %s[%d] %s %s\n",
			statusTag(s.Status), s.Phase, s.Index, s.Kind,
			colorDim(s.Duration.String()),
		)
		for _, reason := range s.Reasons {
			fmt.Fprintf(&sb, "       %s\n", reason)
		}
	}

	passed, failed, skipped := report.Counts()
	fmt.Fprintf(
		&sb, "Result: %s  %d passed, %d failed, %d skipped in %v\n",
		statusWord(report.Status), passed, failed, skipped,
		report.Duration,
	)
	if report.Error != "" {
		fmt.Fprintf(&sb, "Error: %s\n", colorFail(report.Error))
	}
	return []byte(sb.String()), nil
}

// GenerateMasterSummary renders one line per report followed by
// the totals.
func (r *ConsoleReporter) GenerateMasterSummary(
	reports []*challenge.Report,
) ([]byte, error) {
	summary := BuildMasterSummary(reports)
	var sb strings.Builder

	sb.WriteString(colorHead("Summary") + "\n")
	if summary.TotalChallenges == 0 {
		sb.WriteString("No runs recorded\n")
		return []byte(sb.String()), nil
	}
	for _, c := range summary.Challenges {
		fmt.Fprintf(
			&sb, "  %s %-30s %-24s %d/%d steps %v\n",
			statusTag(c.Status), c.ChallengeName, c.Target,
			c.StepsPassed, c.StepsTotal, c.Duration,
		)
	}
	fmt.Fprintf(
		&sb,
		"Runs: %d  Passed: %s  Failed: %s  Rejected: %d  Aborted: %d  Pass rate: %.0f%%\n",
		summary.TotalChallenges,
		colorPass(summary.Passed), colorFail(summary.Failed),
		summary.Rejected, summary.Aborted, summary.PassRate*100,
	)
	return []byte(sb.String()), nil
}

// WriteReport writes a console report to w.
func (r *ConsoleReporter) WriteReport(
	w io.Writer,
	report *challenge.Report,
) error {
	return write(w, func() ([]byte, error) {
		return r.GenerateReport(report)
	})
}

func statusTag(status string) string {
	switch status {
	case challenge.StatusPassed:
		return colorPass("PASS")
	case challenge.StatusFailed:
		return colorFail("FAIL")
	case challenge.StatusSkipped:
		return colorDim("SKIP")
	case challenge.StatusError:
		return colorWarn("ERR ")
	case challenge.StatusRejected:
		return colorFail("REJ ")
	case challenge.StatusAborted:
		return colorWarn("ABRT")
	}
	return strings.ToUpper(status)
}

func statusWord(status string) string {
	word := strings.ToUpper(status)
	switch status {
	case challenge.StatusPassed:
		return colorPass(word)
	case challenge.StatusAborted:
		return colorWarn(word)
	}
	return colorFail(word)
}
