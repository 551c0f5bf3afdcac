package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"digital.vasic.labcheck/pkg/challenge"
)

// fingerprintView is the part of a report that must not change
// between two runs against an unchanged target.
type fingerprintView struct {
	ChallengeID string            `json:"challenge_id"`
	Target      string            `json:"target"`
	Status      string            `json:"status"`
	Passed      bool              `json:"passed"`
	Steps       []fingerprintStep `json:"steps"`
	Reasons     []string          `json:"reasons"`
	Error       string            `json:"error"`
}

type fingerprintStep struct {
	Phase   string   `json:"phase"`
	Index   int      `json:"index"`
	Kind    string   `json:"kind"`
	Status  string   `json:"status"`
	Reasons []string `json:"reasons"`
}

// Fingerprint returns the hex SHA-256 of the RFC 8785 canonical
// JSON of the report with all timing fields dropped. Two runs
// of the same challenge against an unchanged target produce the
// same fingerprint.
func Fingerprint(report *challenge.Report) (string, error) {
	if report == nil {
		return "", fmt.Errorf("fingerprint: nil report")
	}
	view := fingerprintView{
		ChallengeID: string(report.ChallengeID),
		Target:      report.Target,
		Status:      report.Status,
		Passed:      report.Passed,
		Steps:       make([]fingerprintStep, 0, len(report.Steps)),
		Reasons:     nonNil(report.Reasons),
		Error:       report.Error,
	}
	for _, s := range report.Steps {
		view.Steps = append(view.Steps, fingerprintStep{
			Phase:   string(s.Phase),
			Index:   s.Index,
			Kind:    s.Kind,
			Status:  s.Status,
			Reasons: nonNil(s.Reasons),
		})
	}

	raw, err := json.Marshal(view)
	if err != nil {
		return "", fmt.Errorf("fingerprint: marshal: %w", err)
	}
	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("fingerprint: canonicalize: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// nonNil keeps nil and empty slices from hashing differently.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
