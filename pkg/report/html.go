package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"digital.vasic.labcheck/pkg/challenge"
)

const htmlLayout = `{{define "header"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.}}</title>
<style>
body {
  font-family: -apple-system, BlinkMacSystemFont,
    "Segoe UI", Roboto, sans-serif;
  max-width: 960px;
  margin: 0 auto;
  padding: 20px;
  color: #333;
  background: #f9f9f9;
}
h1 { color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px; }
h2 { color: #2c3e50; margin-top: 30px; }
table {
  border-collapse: collapse;
  width: 100%;
  margin: 10px 0;
  background: #fff;
}
th, td {
  border: 1px solid #ddd;
  padding: 8px 12px;
  text-align: left;
}
th { background: #3498db; color: #fff; }
tr:nth-child(even) { background: #f2f2f2; }
.status-passed { color: #27ae60; font-weight: bold; }
.status-failed { color: #e74c3c; font-weight: bold; }
.status-skipped { color: #7f8c8d; }
code {
  background: #ecf0f1;
  padding: 2px 6px;
  border-radius: 3px;
  font-size: 0.9em;
}
footer {
  margin-top: 40px;
  padding-top: 10px;
  border-top: 1px solid #ddd;
  color: #7f8c8d;
  font-size: 0.9em;
}
</style>
</head>
<body>
{{end}}
{{define "footer"}}<footer>Generated by labcheck</footer>
</body>
</html>
{{end}}`

const htmlReport = `{{template "header" printf "Challenge Report: %s" (name .)}}
<h1>Challenge Report: {{name .}}</h1>
<p><strong>Challenge ID:</strong> {{.ChallengeID}}</p>
{{- if .Target}}
<p><strong>Target:</strong> <code>{{.Target}}</code></p>
{{- end}}
<h2>Summary</h2>
<table>
<tr><th>Metric</th><th>Value</th></tr>
<tr><td>Status</td><td class="{{statusClass .Status}}"><strong>{{upper .Status}}</strong></td></tr>
<tr><td>Start Time</td><td>{{rfc3339 .StartTime}}</td></tr>
<tr><td>Duration</td><td>{{.Duration}}</td></tr>
{{- if .Error}}
<tr><td>Error</td><td class="status-failed">{{.Error}}</td></tr>
{{- end}}
</table>
{{- if .Steps}}
<h2>Steps</h2>
<table>
<tr><th>Step</th><th>Kind</th><th>Status</th><th>Duration</th><th>Reasons</th></tr>
{{- range .Steps}}
<tr><td>{{.Phase}}[{{.Index}}]</td><td><code>{{.Kind}}</code></td><td class="{{statusClass .Status}}">{{upper .Status}}</td><td>{{.Duration}}</td><td>{{join .Reasons "; "}}</td></tr>
{{- end}}
</table>
{{- end}}
{{- if .Reasons}}
<h2>Reasons</h2>
<ul>
{{- range .Reasons}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
{{template "footer"}}`

const htmlSummary = `{{template "header" "Lab Check Summary"}}
<h1>Lab Check Summary</h1>
<p><strong>Generated:</strong> {{rfc3339 .GeneratedAt}}</p>
<h2>Overview</h2>
<table>
<tr><th>Challenge</th><th>Target</th><th>Status</th><th>Steps</th><th>Duration</th></tr>
{{- range .Challenges}}
<tr><td>{{.ChallengeName}}</td><td>{{.Target}}</td><td class="{{statusClass .Status}}">{{upper .Status}}</td><td>{{.StepsPassed}}/{{.StepsTotal}}</td><td>{{.Duration}}</td></tr>
{{- end}}
</table>
<h2>Statistics</h2>
<table>
<tr><th>Metric</th><th>Value</th></tr>
<tr><td>Total Challenges</td><td>{{.TotalChallenges}}</td></tr>
<tr><td>Passed</td><td class="status-passed">{{.Passed}}</td></tr>
<tr><td>Failed</td><td class="status-failed">{{.Failed}}</td></tr>
<tr><td>Rejected</td><td>{{.Rejected}}</td></tr>
<tr><td>Aborted</td><td>{{.Aborted}}</td></tr>
<tr><td>Pass Rate</td><td>{{percent .PassRate}}</td></tr>
<tr><td>Total Duration</td><td>{{.TotalDuration}}</td></tr>
</table>
{{template "footer"}}`

var htmlFuncs = template.FuncMap{
	"name":  displayName,
	"upper": strings.ToUpper,
	"join":  strings.Join,
	"rfc3339": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format(time.RFC3339)
	},
	"percent": func(f float64) string {
		return fmt.Sprintf("%.0f%%", f*100)
	},
	"statusClass": statusClass,
}

var (
	reportTemplate = template.Must(
		template.Must(
			template.New("layout").Funcs(htmlFuncs).Parse(htmlLayout),
		).New("report").Parse(htmlReport),
	)
	summaryTemplate = template.Must(
		template.Must(
			template.New("layout").Funcs(htmlFuncs).Parse(htmlLayout),
		).New("summary").Parse(htmlSummary),
	)
)

// HTMLReporter renders reports as standalone HTML pages. All
// report text is escaped by html/template.
type HTMLReporter struct{}

// NewHTMLReporter creates a new HTML reporter.
func NewHTMLReporter() *HTMLReporter {
	return &HTMLReporter{}
}

// GenerateReport renders a single run report.
func (r *HTMLReporter) GenerateReport(
	report *challenge.Report,
) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WriteReport(&buf, report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteReport writes an HTML report to w.
func (r *HTMLReporter) WriteReport(
	w io.Writer,
	report *challenge.Report,
) error {
	return reportTemplate.ExecuteTemplate(w, "report", report)
}

// GenerateMasterSummary renders the master summary of reports.
func (r *HTMLReporter) GenerateMasterSummary(
	reports []*challenge.Report,
) ([]byte, error) {
	var buf bytes.Buffer
	err := summaryTemplate.ExecuteTemplate(
		&buf, "summary", BuildMasterSummary(reports),
	)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func statusClass(status string) string {
	switch status {
	case challenge.StatusPassed:
		return "status-passed"
	case challenge.StatusSkipped, challenge.StatusPending:
		return "status-skipped"
	}
	return "status-failed"
}
