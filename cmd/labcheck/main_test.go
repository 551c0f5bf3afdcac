package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.labcheck/pkg/bank"
	"digital.vasic.labcheck/pkg/challenge"
	"digital.vasic.labcheck/pkg/keyguard"
	"digital.vasic.labcheck/pkg/runner"
)

const analystYAML = `
id: users-01
name: Reporting analyst
description: Create the analyst account in the reports group.
category: users
difficulty: beginner
score: 10
concepts: [useradd, groups]
setup:
  - type: ensure_group_exists
    group: reports
validation:
  - type: ensure_user_exists
    username: analyst
  - type: check_user_group
    check_type: user_primary_group
    username: analyst
    group: reports
`

const brokenYAML = `
id: "bad id"
name: Broken
validation:
  - type: check_nothing
`

// labcheck runs the CLI in a scratch working directory.
func labcheck(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	chdir(t, t.TempDir())
	original := color.NoColor
	t.Cleanup(func() { color.NoColor = original })

	var out, errOut bytes.Buffer
	code = execute(append(args, "--no-color"), &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeTemp(t *testing.T, name, content string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
	return path
}

func TestVersion(t *testing.T) {
	code, out, _ := labcheck(t, "version")
	assert.Equal(t, exitPassed, code)
	assert.Equal(t, "labcheck version dev\n", out)

	code, out, _ = labcheck(t, "version", "--long")
	assert.Equal(t, exitPassed, code)
	assert.Contains(t, out, "Git Commit: unknown")
}

func TestKinds(t *testing.T) {
	code, out, _ := labcheck(t, "kinds")
	assert.Equal(t, exitPassed, code)
	assert.Equal(t, []string{
		"check_file_contains", "check_file_exists", "check_history",
		"check_port_listening", "check_service_status", "check_user_group",
		"ensure_group_exists", "ensure_user_exists", "run_command",
	}, strings.Fields(out))
}

func TestValidate(t *testing.T) {
	good := writeTemp(t, "users.yaml", analystYAML, 0o644)
	bad := writeTemp(t, "broken.yaml", brokenYAML, 0o644)

	code, out, _ := labcheck(t, "validate", good)
	assert.Equal(t, exitPassed, code)
	assert.Contains(t, out, "OK "+good)

	code, out, stderr := labcheck(t, "validate", good, bad)
	assert.Equal(t, exitStructural, code)
	assert.Contains(t, out, "INVALID "+bad)
	assert.Contains(t, out, "  - id:")
	assert.Contains(t, out, "check_nothing")
	assert.Contains(t, out, "  - description: is required")
	assert.Empty(t, stderr)
}

func TestRun_DryRunPrintsCommands(t *testing.T) {
	def := writeTemp(t, "users.yaml", analystYAML, 0o644)

	code, out, _ := labcheck(t, "run", def, "--dry-run", "--host", "10.0.0.5", "--user", "student")
	assert.Equal(t, exitPassed, code)
	assert.Contains(t, out, "Reporting analyst (users-01) on student@10.0.0.5:22")
	assert.Contains(t, out, "getent group 'reports'\n")
	assert.Contains(t, out, "id -u 'analyst'\n")
	assert.Contains(t, out, "id -gn 'analyst'\n")
}

func TestRun_DryRunWithoutSetup(t *testing.T) {
	def := writeTemp(t, "users.yaml", analystYAML, 0o644)

	code, out, _ := labcheck(t, "run", def, "--dry-run", "--setup=false")
	assert.Equal(t, exitPassed, code)
	assert.NotContains(t, out, "getent group")
	assert.Contains(t, out, "id -u 'analyst'")
}

func TestRun_InsecureKeyAbortsBeforeConnecting(t *testing.T) {
	def := writeTemp(t, "users.yaml", analystYAML, 0o644)
	key := writeTemp(t, "id_ed25519", "not a key", 0o644)
	require.NoError(t, os.Chmod(key, 0o644))

	code, out, _ := labcheck(t, "run", def,
		"--host", "192.0.2.1", "--user", "student", "--key", key, "--format", "json")
	assert.Equal(t, exitSecurity, code)
	assert.Contains(t, out, `"status": "aborted"`)
	assert.Contains(t, out, `"status": "skipped"`)
}

func TestRun_MissingHostAborts(t *testing.T) {
	def := writeTemp(t, "users.yaml", analystYAML, 0o644)

	code, out, _ := labcheck(t, "run", def, "--user", "student", "--key", "/nonexistent")
	assert.Equal(t, exitAborted, code)
	assert.Contains(t, out, "Result: ABORTED")
	assert.Contains(t, out, "target host is required")
}

func TestRun_StructuralErrorExitsTwo(t *testing.T) {
	bad := writeTemp(t, "broken.yaml", brokenYAML, 0o644)

	code, out, _ := labcheck(t, "run", bad, "--host", "192.0.2.1")
	assert.Equal(t, exitStructural, code)
	assert.Contains(t, out, "INVALID")
}

func TestRun_UnknownFormat(t *testing.T) {
	def := writeTemp(t, "users.yaml", analystYAML, 0o644)

	code, _, stderr := labcheck(t, "run", def, "--format", "pdf")
	assert.Equal(t, exitAborted, code)
	assert.Contains(t, stderr, "unknown report format")
}

func TestRun_UnknownChallenge(t *testing.T) {
	def := writeTemp(t, "users.yaml", analystYAML, 0o644)

	code, _, stderr := labcheck(t, "run", def, "--dry-run", "--challenge", "nope")
	assert.Equal(t, exitAborted, code)
	assert.Contains(t, stderr, `challenge "nope" not found`)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.yaml"), []byte(analystYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	code, out, _ := labcheck(t, "list", dir)
	assert.Equal(t, exitPassed, code)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "users-01")
	assert.Contains(t, out, "Reporting analyst")

	code, out, _ = labcheck(t, "list", dir, "--category", "network")
	assert.Equal(t, exitPassed, code)
	assert.Contains(t, out, "No challenges found")

	code, out, _ = labcheck(t, "list", dir, "--json")
	assert.Equal(t, exitPassed, code)
	assert.Contains(t, out, `"checks": 2`)
}

func TestGrade_RequiresHosts(t *testing.T) {
	def := writeTemp(t, "users.yaml", analystYAML, 0o644)

	code, _, stderr := labcheck(t, "grade", def)
	assert.Equal(t, exitAborted, code)
	assert.Contains(t, stderr, "hosts")
}

func TestGrade_InsecureKeyForEveryHost(t *testing.T) {
	def := writeTemp(t, "users.yaml", analystYAML, 0o644)
	key := writeTemp(t, "id_ed25519", "not a key", 0o644)
	require.NoError(t, os.Chmod(key, 0o644))

	code, out, _ := labcheck(t, "grade", def,
		"--hosts", "192.0.2.1,192.0.2.2", "--user", "student", "--key", key)
	assert.Equal(t, exitSecurity, code)
	assert.Contains(t, out, "Runs: 2")
	assert.Contains(t, out, "Aborted: 2")
}

func TestConfigFileAndEnvFile(t *testing.T) {
	def := writeTemp(t, "users.yaml", analystYAML, 0o644)
	cfg := writeTemp(t, "lab.yaml", "ssh:\n  port: 2222\n", 0o644)

	code, out, _ := labcheck(t, "run", def, "--dry-run", "--config", cfg, "--host", "h")
	assert.Equal(t, exitPassed, code)
	assert.Contains(t, out, "on learner@h:2222")

	env := writeTemp(t, ".env", "LABCHECK_SSH_PORT=2300\n", 0o644)
	t.Setenv("LABCHECK_SSH_PORT", "")
	require.NoError(t, os.Unsetenv("LABCHECK_SSH_PORT"))
	code, out, _ = labcheck(t, "run", def, "--dry-run", "--env-file", env, "--host", "h", "--port", "2400")
	assert.Equal(t, exitPassed, code)
	assert.Contains(t, out, "on learner@h:2400")

	code, _, stderr := labcheck(t, "run", def, "--dry-run", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, exitAborted, code)
	assert.Contains(t, stderr, "missing.yaml")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitPassed},
		{"verdict", &verdictError{code: exitFailed}, exitFailed},
		{"structural", &bank.StructuralError{Source: "x"}, exitStructural},
		{"security", &keyguard.SecurityError{Path: "k"}, exitSecurity},
		{"configuration", &runner.ConfigurationError{Err: errors.New("bad target")}, exitAborted},
		{"other", errors.New("boom"), exitAborted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestVerdictAndWorst(t *testing.T) {
	assert.Equal(t, exitPassed, verdict(challenge.StatusPassed, nil))
	assert.Equal(t, exitFailed, verdict(challenge.StatusFailed, &runner.ValidationError{}))
	assert.Equal(t, exitStructural, verdict(challenge.StatusRejected, nil))
	assert.Equal(t, exitSecurity, verdict(challenge.StatusAborted, &keyguard.SecurityError{Path: "k"}))
	assert.Equal(t, exitAborted, verdict(challenge.StatusAborted, &runner.ValidationError{}))

	assert.Equal(t, exitFailed, worst(exitPassed, exitFailed))
	assert.Equal(t, exitAborted, worst(exitAborted, exitStructural))
	assert.Equal(t, exitSecurity, worst(exitFailed, exitSecurity))
}

// chdir switches the working directory for the rest of the test and
// restores it on cleanup (testing.T.Chdir needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
