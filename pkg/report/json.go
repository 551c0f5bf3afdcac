package report

import (
	"encoding/json"
	"io"

	"digital.vasic.labcheck/pkg/challenge"
)

var (
	jsonReportMarshal       = json.Marshal
	jsonReportMarshalIndent = json.MarshalIndent
)

// JSONReporter renders reports as JSON.
type JSONReporter struct {
	pretty bool
}

// NewJSONReporter creates a new JSON reporter. When pretty is
// true, output is indented for readability.
func NewJSONReporter(pretty bool) *JSONReporter {
	return &JSONReporter{pretty: pretty}
}

func (r *JSONReporter) marshal(v any) ([]byte, error) {
	if r.pretty {
		return jsonReportMarshalIndent(v, "", "  ")
	}
	return jsonReportMarshal(v)
}

// GenerateReport renders a single run report.
func (r *JSONReporter) GenerateReport(
	report *challenge.Report,
) ([]byte, error) {
	return r.marshal(report)
}

// GenerateMasterSummary renders the master summary of reports.
func (r *JSONReporter) GenerateMasterSummary(
	reports []*challenge.Report,
) ([]byte, error) {
	return r.marshal(BuildMasterSummary(reports))
}

// WriteReport writes a JSON report to w.
func (r *JSONReporter) WriteReport(
	w io.Writer,
	report *challenge.Report,
) error {
	return write(w, func() ([]byte, error) {
		return r.GenerateReport(report)
	})
}
