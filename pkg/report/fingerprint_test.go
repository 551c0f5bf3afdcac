package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.labcheck/pkg/challenge"
)

func TestFingerprint_IgnoresTiming(t *testing.T) {
	a := failedReport()
	b := failedReport()
	b.StartTime = b.StartTime.Add(time.Hour)
	b.EndTime = b.EndTime.Add(2 * time.Hour)
	b.Duration = 3 * time.Second
	for i := range b.Steps {
		b.Steps[i].Duration = time.Duration(i+1) * time.Second
	}

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)

	assert.Len(t, fa, 64)
	assert.Equal(t, fa, fb)
}

func TestFingerprint_NilAndEmptyReasonsMatch(t *testing.T) {
	a := passedReport()
	b := passedReport()
	b.Reasons = []string{}
	b.Steps[0].Reasons = []string{}

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
}

func TestFingerprint_ChangesWithOutcome(t *testing.T) {
	base, err := Fingerprint(failedReport())
	require.NoError(t, err)

	mutations := map[string]func(r *challenge.Report){
		"status":      func(r *challenge.Report) { r.Status = challenge.StatusAborted },
		"target":      func(r *challenge.Report) { r.Target = "student@10.0.0.6:22" },
		"step status": func(r *challenge.Report) { r.Steps[2].Status = challenge.StatusPassed },
		"reason":      func(r *challenge.Report) { r.Steps[1].Reasons = []string{"other"} },
		"error":       func(r *challenge.Report) { r.Error = "connection refused" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			r := failedReport()
			mutate(r)
			fp, err := Fingerprint(r)
			require.NoError(t, err)
			assert.NotEqual(t, base, fp)
		})
	}
}

func TestFingerprint_Nil(t *testing.T) {
	_, err := Fingerprint(nil)
	assert.Error(t, err)
}
