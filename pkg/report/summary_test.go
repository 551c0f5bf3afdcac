package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.labcheck/pkg/challenge"
)

func TestBuildMasterSummary(t *testing.T) {
	rejected := &challenge.Report{ChallengeID: "bad-01", Status: challenge.StatusRejected}
	aborted := &challenge.Report{ChallengeID: "net-01", Status: challenge.StatusAborted}

	s := BuildMasterSummary([]*challenge.Report{
		failedReport(), passedReport(), rejected, aborted, nil,
	})

	assert.Equal(t, 4, s.TotalChallenges)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Rejected)
	assert.Equal(t, 1, s.Aborted)
	assert.InDelta(t, 0.25, s.PassRate, 0.001)
	assert.Equal(t, 26*time.Millisecond, s.TotalDuration)

	require.Len(t, s.Challenges, 4)
	assert.Equal(t, 1, s.Challenges[0].StepsPassed)
	assert.Equal(t, 3, s.Challenges[0].StepsTotal)
	assert.Len(t, s.Challenges[0].Fingerprint, 64)
	assert.Equal(t, "bad-01", s.Challenges[2].ChallengeName)
}

func TestBuildMasterSummary_Empty(t *testing.T) {
	s := BuildMasterSummary(nil)
	assert.Zero(t, s.TotalChallenges)
	assert.Zero(t, s.PassRate)
	assert.NotEmpty(t, s.ID)
}

func TestGenerateSummaryMarkdown(t *testing.T) {
	s := BuildMasterSummary([]*challenge.Report{failedReport(), passedReport()})

	md := generateSummaryMarkdown(s)
	assert.Contains(t, md, "# Lab Check Summary")
	assert.Contains(t, md, "| Create the analyst account | student@10.0.0.5:22 | FAILED | 1/3 |")
	assert.Contains(t, md, "| Total Challenges | 2 |")
	assert.Contains(t, md, "| Pass Rate | 50% |")
	assert.Contains(t, md, "*Generated by labcheck*")
}

func TestMdCell(t *testing.T) {
	assert.Equal(t, `a\|b c`, mdCell("a|b\r\nc"))
}
