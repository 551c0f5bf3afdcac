package report

import (
	"fmt"
	"strings"
	"time"

	"digital.vasic.labcheck/pkg/challenge"
)

// MasterSummary aggregates several run reports.
type MasterSummary struct {
	ID              string             `json:"id"`
	GeneratedAt     time.Time          `json:"generated_at"`
	Challenges      []ChallengeSummary `json:"challenges"`
	TotalChallenges int                `json:"total_challenges"`
	Passed          int                `json:"passed"`
	Failed          int                `json:"failed"`
	Rejected        int                `json:"rejected"`
	Aborted         int                `json:"aborted"`
	TotalDuration   time.Duration      `json:"total_duration"`
	PassRate        float64            `json:"pass_rate"`
}

// ChallengeSummary is one row of a MasterSummary.
type ChallengeSummary struct {
	ChallengeID   challenge.ID  `json:"challenge_id"`
	ChallengeName string        `json:"challenge_name"`
	Target        string        `json:"target,omitempty"`
	Status        string        `json:"status"`
	Duration      time.Duration `json:"duration"`
	StepsPassed   int           `json:"steps_passed"`
	StepsTotal    int           `json:"steps_total"`
	Fingerprint   string        `json:"fingerprint,omitempty"`
}

// BuildMasterSummary aggregates reports. Nil entries are ignored.
func BuildMasterSummary(
	reports []*challenge.Report,
) *MasterSummary {
	now := time.Now()
	summary := &MasterSummary{
		ID: fmt.Sprintf(
			"summary_%s", now.Format("20060102_150405"),
		),
		GeneratedAt: now,
		Challenges:  make([]ChallengeSummary, 0, len(reports)),
	}

	for _, r := range reports {
		if r == nil {
			continue
		}
		passed, _, _ := r.Counts()
		fp, _ := Fingerprint(r)
		summary.Challenges = append(summary.Challenges, ChallengeSummary{
			ChallengeID:   r.ChallengeID,
			ChallengeName: displayName(r),
			Target:        r.Target,
			Status:        r.Status,
			Duration:      r.Duration,
			StepsPassed:   passed,
			StepsTotal:    len(r.Steps),
			Fingerprint:   fp,
		})
		summary.TotalChallenges++
		summary.TotalDuration += r.Duration

		switch r.Status {
		case challenge.StatusPassed:
			summary.Passed++
		case challenge.StatusRejected:
			summary.Rejected++
		case challenge.StatusAborted:
			summary.Aborted++
		default:
			summary.Failed++
		}
	}

	if summary.TotalChallenges > 0 {
		summary.PassRate = float64(summary.Passed) /
			float64(summary.TotalChallenges)
	}
	return summary
}

func generateSummaryMarkdown(summary *MasterSummary) string {
	var sb strings.Builder

	sb.WriteString("# Lab Check Summary\n\n")
	fmt.Fprintf(&sb, "**Summary ID:** %s\n\n", summary.ID)
	fmt.Fprintf(
		&sb, "**Generated:** %s\n\n",
		summary.GeneratedAt.Format(time.RFC3339),
	)

	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Challenge | Target | Status | Steps | Duration |\n")
	sb.WriteString("|-----------|--------|--------|-------|----------|\n")
	for _, c := range summary.Challenges {
		fmt.Fprintf(
			&sb, "| %s | %s | %s | %d/%d | %v |\n",
			mdCell(c.ChallengeName), mdCell(c.Target),
			strings.ToUpper(c.Status),
			c.StepsPassed, c.StepsTotal, c.Duration,
		)
	}

	sb.WriteString("\n## Statistics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	fmt.Fprintf(&sb, "| Total Challenges | %d |\n", summary.TotalChallenges)
	fmt.Fprintf(&sb, "| Passed | %d |\n", summary.Passed)
	fmt.Fprintf(&sb, "| Failed | %d |\n", summary.Failed)
	fmt.Fprintf(&sb, "| Rejected | %d |\n", summary.Rejected)
	fmt.Fprintf(&sb, "| Aborted | %d |\n", summary.Aborted)
	fmt.Fprintf(&sb, "| Pass Rate | %.0f%% |\n", summary.PassRate*100)
	fmt.Fprintf(&sb, "| Total Duration | %v |\n", summary.TotalDuration)

	sb.WriteString("\n---\n\n")
	sb.WriteString("*Generated by labcheck*\n")

	return sb.String()
}
