package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"digital.vasic.labcheck/pkg/challenge"
)

// MarkdownReporter renders reports as Markdown.
type MarkdownReporter struct{}

// NewMarkdownReporter creates a new Markdown reporter.
func NewMarkdownReporter() *MarkdownReporter {
	return &MarkdownReporter{}
}

// GenerateReport renders a single run report.
func (r *MarkdownReporter) GenerateReport(
	report *challenge.Report,
) ([]byte, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Challenge Report: %s\n\n", displayName(report))
	fmt.Fprintf(&sb, "**Challenge ID:** %s\n\n", report.ChallengeID)
	if report.Target != "" {
		fmt.Fprintf(&sb, "**Target:** %s\n\n", report.Target)
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	fmt.Fprintf(&sb, "| Status | **%s** |\n", strings.ToUpper(report.Status))
	passed, failed, skipped := report.Counts()
	fmt.Fprintf(
		&sb, "| Steps | %d passed, %d failed, %d skipped |\n",
		passed, failed, skipped,
	)
	if !report.StartTime.IsZero() {
		fmt.Fprintf(
			&sb, "| Start Time | %s |\n",
			report.StartTime.Format(time.RFC3339),
		)
	}
	fmt.Fprintf(&sb, "| Duration | %v |\n", report.Duration)
	if report.Error != "" {
		fmt.Fprintf(&sb, "| Error | %s |\n", mdCell(report.Error))
	}

	if len(report.Steps) > 0 {
		sb.WriteString("\n## Steps\n\n")
		sb.WriteString("| Step | Kind | Status | Duration | Reasons |\n")
		sb.WriteString("|------|------|--------|----------|---------|\n")
		for _, s := range report.Steps {
			fmt.Fprintf(
				&sb, "| %s[%d] | `%s` | %s | %v | %s |\n",
				s.Phase, s.Index, s.Kind,
				strings.ToUpper(s.Status), s.Duration,
				mdCell(strings.Join(s.Reasons, "; ")),
			)
		}
	}

	if len(report.Reasons) > 0 {
		sb.WriteString("\n## Reasons\n\n")
		for _, reason := range report.Reasons {
			fmt.Fprintf(&sb, "- %s\n", reason)
		}
	}

	return []byte(sb.String()), nil
}

// GenerateMasterSummary renders the master summary of reports.
func (r *MarkdownReporter) GenerateMasterSummary(
	reports []*challenge.Report,
) ([]byte, error) {
	return []byte(
		generateSummaryMarkdown(BuildMasterSummary(reports)),
	), nil
}

// WriteReport writes a Markdown report to w.
func (r *MarkdownReporter) WriteReport(
	w io.Writer,
	report *challenge.Report,
) error {
	return write(w, func() ([]byte, error) {
		return r.GenerateReport(report)
	})
}

// mdCell keeps a value inside one Markdown table cell.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", " ")
}
