// Package report renders run reports for people and machines.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"digital.vasic.labcheck/pkg/challenge"
)

// Reporter defines the interface for rendering run reports.
type Reporter interface {
	// GenerateReport renders a single run report.
	GenerateReport(report *challenge.Report) ([]byte, error)

	// GenerateMasterSummary renders a summary of several runs.
	GenerateMasterSummary(
		reports []*challenge.Report,
	) ([]byte, error)

	// WriteReport writes a single run report to w.
	WriteReport(w io.Writer, report *challenge.Report) error
}

// Output formats understood by ForFormat.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// ErrUnknownFormat is returned by ForFormat for unsupported
// format names.
var ErrUnknownFormat = errors.New("unknown report format")

// Formats lists the supported output formats.
func Formats() []string {
	return []string{
		FormatText, FormatJSON, FormatMarkdown, FormatHTML,
	}
}

// ForFormat returns the reporter for a format name. An empty
// name selects FormatText.
func ForFormat(format string) (Reporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return NewConsoleReporter(), nil
	case FormatJSON:
		return NewJSONReporter(true), nil
	case FormatMarkdown, "md":
		return NewMarkdownReporter(), nil
	case FormatHTML:
		return NewHTMLReporter(), nil
	}
	return nil, fmt.Errorf(
		"%w %q (want one of %s)",
		ErrUnknownFormat, format, strings.Join(Formats(), ", "),
	)
}

// write renders with generate and copies the bytes to w.
func write(
	w io.Writer,
	generate func() ([]byte, error),
) error {
	data, err := generate()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func displayName(r *challenge.Report) string {
	if r.ChallengeName != "" {
		return r.ChallengeName
	}
	return string(r.ChallengeID)
}
