package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/MRamiBalles/ColdFront/server/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// coldBalance starts the house unheated, which is lost on day ten.
const coldBalance = `
seed = 11

[resources]
start_temperature = 25.0
start_fuel = 0.0
`

func executeCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeBalance(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cold.toml")
	require.NoError(t, os.WriteFile(path, []byte(coldBalance), 0o600))
	return path
}

var sessionLine = regexp.MustCompile(`session ([0-9a-f-]{36}) \(seed 11, idle\)`)

func TestSimulateIdleInTheCold(t *testing.T) {
	stdout, _, err := executeCLI(t, "simulate", "--strategy", "idle", "--config", writeBalance(t), "--step", "5s")
	require.NoError(t, err)

	assert.Regexp(t, sessionLine, stdout)
	assert.Contains(t, stdout, "The family did not survive the cold.")
	assert.Regexp(t, `Days survived\s+10`, stdout)
}

func TestSimulateJSONAndReport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.toml")

	stdout, _, err := executeCLI(t, "simulate",
		"--strategy", "idle",
		"--config", writeBalance(t),
		"--step", "5s",
		"--out", out,
		"--json",
	)
	require.NoError(t, err)

	var summary engine.Summary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.False(t, summary.Won)
	assert.Equal(t, 10, summary.DaysSurvived)

	doc, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "days_survived = 10")
}

func TestSimulateUnknownStrategy(t *testing.T) {
	_, _, err := executeCLI(t, "simulate", "--strategy", "arsonist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestRecordedSessionHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	stdout, _, err := executeCLI(t, "simulate",
		"--strategy", "idle",
		"--config", writeBalance(t),
		"--step", "5s",
		"--db", db,
	)
	require.NoError(t, err)
	match := sessionLine.FindStringSubmatch(stdout)
	require.Len(t, match, 2)
	id := match[1]

	stdout, _, err = executeCLI(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "OUTCOME")
	assert.Regexp(t, id+`\s+\S+ \S+\s+lost\s+10\s+11`, stdout)

	stdout, _, err = executeCLI(t, "history", "show", id, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "lost on day 10")
	assert.Contains(t, stdout, "unconscious 3")
	assert.Contains(t, stdout, "The cold won.")

	stdout, _, err = executeCLI(t, "events", id, "--db", db, "--type", "member_unconscious")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Len(t, lines, 4, "header plus three collapses")

	stdout, _, err = executeCLI(t, "events", id, "--db", db, "--day", "10", "--json")
	require.NoError(t, err)
	var evs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &evs))
	require.NotEmpty(t, evs)
	for _, e := range evs {
		assert.EqualValues(t, 10, e["game_day"])
	}
}

func TestHistoryShowUnknownSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	_, _, err := executeCLI(t, "history", "show", "nope", "--db", db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found")
}

func TestConfigPrintsEffectiveSettings(t *testing.T) {
	stdout, _, err := executeCLI(t, "config", "--config", writeBalance(t))
	require.NoError(t, err)
	assert.Contains(t, stdout, "[session]")
	assert.Regexp(t, `days_to_win = ['"]?15`, stdout)
	assert.Regexp(t, `start_fuel = ['"]?0`, stdout)
}
