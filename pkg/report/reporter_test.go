package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.labcheck/pkg/challenge"
)

func failedReport() *challenge.Report {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := &challenge.Report{
		ChallengeID:   "users-01",
		ChallengeName: "Create the analyst account",
		Target:        "student@10.0.0.5:22",
		Status:        challenge.StatusFailed,
		Steps: []challenge.StepReport{
			{
				Phase: challenge.PhaseValidation, Index: 0,
				Kind: "check_user_exists", Status: challenge.StatusPassed,
				Passed: true, Duration: 12 * time.Millisecond,
			},
			{
				Phase: challenge.PhaseValidation, Index: 1,
				Kind: "check_user_group", Status: challenge.StatusFailed,
				Reasons:  []string{"expected analyst to be in group wheel, found analyst"},
				Duration: 9 * time.Millisecond,
			},
			{
				Phase: challenge.PhaseValidation, Index: 2,
				Kind: "check_file_exists", Status: challenge.StatusSkipped,
			},
		},
		Reasons:   []string{"expected analyst to be in group wheel, found analyst"},
		StartTime: start,
		EndTime:   start.Add(21 * time.Millisecond),
		Duration:  21 * time.Millisecond,
	}
	r.Summary = r.BuildSummary()
	return r
}

func passedReport() *challenge.Report {
	return &challenge.Report{
		ChallengeID:   "svc-01",
		ChallengeName: "Start nginx",
		Status:        challenge.StatusPassed,
		Passed:        true,
		Steps: []challenge.StepReport{{
			Phase: challenge.PhaseValidation, Kind: "check_service_status",
			Status: challenge.StatusPassed, Passed: true,
		}},
		Duration: 5 * time.Millisecond,
	}
}

func noColor(t *testing.T) {
	t.Helper()
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = original })
}

func TestReporters_ImplementInterface(t *testing.T) {
	var _ Reporter = &JSONReporter{}
	var _ Reporter = &MarkdownReporter{}
	var _ Reporter = &HTMLReporter{}
	var _ Reporter = &ConsoleReporter{}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format string
		want   Reporter
	}{
		{"", &ConsoleReporter{}},
		{"text", &ConsoleReporter{}},
		{"JSON", &JSONReporter{}},
		{"markdown", &MarkdownReporter{}},
		{"md", &MarkdownReporter{}},
		{" html ", &HTMLReporter{}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			r, err := ForFormat(tt.format)
			require.NoError(t, err)
			assert.IsType(t, tt.want, r)
		})
	}

	_, err := ForFormat("pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Contains(t, err.Error(), "text, json, markdown, html")
}

func TestAllReporters_WriteReport(t *testing.T) {
	noColor(t)
	for _, format := range Formats() {
		t.Run(format, func(t *testing.T) {
			r, err := ForFormat(format)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, r.WriteReport(&buf, failedReport()))
			out := buf.String()
			assert.Contains(t, out, "users-01")
			assert.Contains(t, out, "check_user_group")
			assert.Contains(t, out, "found analyst")

			summary, err := r.GenerateMasterSummary(
				[]*challenge.Report{failedReport(), passedReport()},
			)
			require.NoError(t, err)
			assert.Contains(t, string(summary), "Start nginx")
		})
	}
}

func TestJSONReporter_GenerateReport(t *testing.T) {
	data, err := NewJSONReporter(false).GenerateReport(failedReport())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n")

	var decoded challenge.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, challenge.StatusFailed, decoded.Status)
	require.Len(t, decoded.Steps, 3)
	assert.Equal(t, challenge.StatusSkipped, decoded.Steps[2].Status)

	pretty, err := NewJSONReporter(true).GenerateReport(failedReport())
	require.NoError(t, err)
	assert.Contains(t, string(pretty), "\n  \"challenge_id\": \"users-01\"")
}

func TestJSONReporter_GenerateMasterSummary(t *testing.T) {
	data, err := NewJSONReporter(false).GenerateMasterSummary(
		[]*challenge.Report{failedReport(), passedReport()},
	)
	require.NoError(t, err)

	var summary MasterSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 2, summary.TotalChallenges)
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 1, summary.Failed)
	assert.InDelta(t, 0.5, summary.PassRate, 0.001)
}

func TestJSONReporter_MarshalErrors(t *testing.T) {
	origMarshal, origIndent := jsonReportMarshal, jsonReportMarshalIndent
	t.Cleanup(func() {
		jsonReportMarshal, jsonReportMarshalIndent = origMarshal, origIndent
	})
	jsonReportMarshal = func(any) ([]byte, error) {
		return nil, assert.AnError
	}
	jsonReportMarshalIndent = func(any, string, string) ([]byte, error) {
		return nil, assert.AnError
	}

	var buf bytes.Buffer
	assert.ErrorIs(t, NewJSONReporter(false).WriteReport(&buf, passedReport()), assert.AnError)
	_, err := NewJSONReporter(true).GenerateReport(passedReport())
	assert.ErrorIs(t, err, assert.AnError)
	_, err = NewJSONReporter(false).GenerateMasterSummary(nil)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, buf.Len())
}

func TestMarkdownReporter_Tables(t *testing.T) {
	r := failedReport()
	r.Steps[1].Reasons = []string{"a|b", "line one\nline two"}
	r.Error = "boom"

	data, err := NewMarkdownReporter().GenerateReport(r)
	require.NoError(t, err)
	md := string(data)

	assert.Contains(t, md, "# Challenge Report: Create the analyst account")
	assert.Contains(t, md, "| Status | **FAILED** |")
	assert.Contains(t, md, "| Steps | 1 passed, 1 failed, 1 skipped |")
	assert.Contains(t, md, "| validation[1] | `check_user_group` | FAILED |")
	assert.Contains(t, md, `a\|b; line one line two`)
	assert.Contains(t, md, "| Error | boom |")
	assert.Contains(t, md, "## Reasons\n\n- expected analyst")
}

func TestHTMLReporter_EscapesReportText(t *testing.T) {
	r := failedReport()
	r.ChallengeName = "<script>alert(1)</script>"
	r.Steps[1].Reasons = []string{"found <b>root</b> & more"}

	data, err := NewHTMLReporter().GenerateReport(r)
	require.NoError(t, err)
	page := string(data)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.NotContains(t, page, "<script>")
	assert.Contains(t, page, "&lt;script&gt;")
	assert.Contains(t, page, "found &lt;b&gt;root&lt;/b&gt; &amp; more")
	assert.Contains(t, page, `class="status-failed"`)
	assert.Contains(t, page, `class="status-skipped"`)
	assert.Contains(t, page, "2026-03-01T10:00:00Z")
	assert.Contains(t, page, "</html>")
}

func TestHTMLReporter_MasterSummary(t *testing.T) {
	data, err := NewHTMLReporter().GenerateMasterSummary(
		[]*challenge.Report{failedReport(), passedReport()},
	)
	require.NoError(t, err)
	page := string(data)
	assert.Contains(t, page, "<h1>Lab Check Summary</h1>")
	assert.Contains(t, page, "<td>1/3</td>")
	assert.Contains(t, page, "<td>50%</td>")
}

func TestConsoleReporter_GenerateReport(t *testing.T) {
	noColor(t)
	data, err := NewConsoleReporter().GenerateReport(failedReport())
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "Create the analyst account (users-01) on student@10.0.0.5:22")
	assert.Contains(t, out, "PASS validation[0] check_user_exists 12ms")
	assert.Contains(t, out, "FAIL validation[1] check_user_group")
	assert.Contains(t, out, "       expected analyst to be in group wheel")
	assert.Contains(t, out, "SKIP validation[2] check_file_exists")
	assert.Contains(t, out, "Result: FAILED  1 passed, 1 failed, 1 skipped")
	assert.NotContains(t, out, "\x1b[")
}

func TestConsoleReporter_AbortedShowsError(t *testing.T) {
	noColor(t)
	r := failedReport()
	r.Status = challenge.StatusAborted
	r.Error = "authentication failed"

	data, err := NewConsoleReporter().GenerateReport(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Result: ABORTED")
	assert.Contains(t, string(data), "Error: authentication failed")
}

func TestConsoleReporter_EmptySummary(t *testing.T) {
	noColor(t)
	data, err := NewConsoleReporter().GenerateMasterSummary(nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), "No runs recorded")
}

func TestStatusTag(t *testing.T) {
	noColor(t)
	assert.Equal(t, "ERR ", statusTag(challenge.StatusError))
	assert.Equal(t, "REJ ", statusTag(challenge.StatusRejected))
	assert.Equal(t, "ABRT", statusTag(challenge.StatusAborted))
	assert.Equal(t, "RUNNING", statusTag(challenge.StatusRunning))
}
