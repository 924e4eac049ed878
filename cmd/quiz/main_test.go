package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegorkir/aqs/internal/catalog/catalogtest"
	"github.com/yegorkir/aqs/internal/state"
)

func bundlePath(t *testing.T) string {
	t.Helper()
	p, err := filepath.Abs(filepath.Join("..", "..", "internal", "replay", "testdata", "bundle.yaml"))
	require.NoError(t, err)
	return p
}

func execute(t *testing.T, in string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(in))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "", "validate", bundlePath(t))
	require.NoError(t, err)
	assert.Contains(t, out, "ok (schema 1, content replay)")
	assert.Contains(t, out, "axes=1 modules=0 modes=0 safety_tags=0 questions=3")
}

func TestValidateCommandReportsProblems(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.yaml")
	doc := strings.Replace(catalogtest.Sample, "pool: [q_b]", "pool: [q_missing]", 1)
	require.NoError(t, os.WriteFile(p, []byte(doc), 0o644))

	out, err := execute(t, "", "validate", p)
	require.Error(t, err)
	assert.Contains(t, out, `unknown question "q_missing"`)
}

// A piped session: answer q1, continue past the proposal, answer the
// followup slider and q2, then quit from the result screen.
const pipedAnswers = "1\nc\n10\n1\n:quit\n"

func TestRunPipedSession(t *testing.T) {
	out, err := execute(t, pipedAnswers, "run", "--bundle", bundlePath(t), "--journal", "", "--share", "--metrics")
	require.NoError(t, err)

	assert.NotContains(t, out, "> ", "no prompts when input is piped")
	assert.Contains(t, out, "First")
	assert.Contains(t, out, "(followup queued: q3)")
	assert.Contains(t, out, "The profile looks defined (axis_module_defined_override)")
	assert.Contains(t, out, "No more questions.")
	assert.Contains(t, out, "Axis A")
	assert.Contains(t, out, `"qid": "q3"`)
	assert.Contains(t, out, "aqs_session_answers_total")
}

func TestRunExportReplayInspect(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "journal.db")
	bundle := bundlePath(t)

	_, err := execute(t, pipedAnswers, "run", "--bundle", bundle, "--journal", db)
	require.NoError(t, err)

	// fixture export replays without drift
	fixture := filepath.Join(dir, "session.yaml")
	_, err = execute(t, "", "export", "--journal", db, "--bundle", bundle, "--fixture", "-o", fixture)
	require.NoError(t, err)
	out, err := execute(t, "", "replay", fixture)
	require.NoError(t, err, out)
	assert.Contains(t, out, "0 diverge")

	// JSONL export summarized by inspect
	jsonl := filepath.Join(dir, "session.jsonl")
	_, err = execute(t, "", "export", "--journal", db, "-o", jsonl)
	require.NoError(t, err)
	out, err = execute(t, "", "inspect", "--jsonl", jsonl)
	require.NoError(t, err)
	assert.Contains(t, out, "1 session(s)")
	assert.Contains(t, out, "answer             3")

	out, err = execute(t, "", "inspect", "--journal", db)
	require.NoError(t, err)
	assert.Contains(t, out, "SESSION")
	assert.Equal(t, 2, strings.Count(out, "\n"), "header plus one session")
}

func TestReplayCommandReportsDivergence(t *testing.T) {
	dir := t.TempDir()
	fixture := filepath.Join(dir, "drift.yaml")
	body := "bundle: " + bundlePath(t) + "\nsteps:\n  - expect: q2\n    oid: o\n"
	require.NoError(t, os.WriteFile(fixture, []byte(body), 0o644))

	out, err := execute(t, "", "replay", fixture)
	require.Error(t, err)
	assert.Contains(t, out, "DIFF")
	assert.Contains(t, out, `presented: expected "q2", got "q1"`)
}

func TestInspectWithoutJournal(t *testing.T) {
	_, err := execute(t, "", "inspect", "--journal", "")
	assert.ErrorContains(t, err, "no journal configured")
}

func TestParseAnswer(t *testing.T) {
	cat := catalogtest.SampleCatalogue(t)

	qa, _ := cat.Question("q_a")
	ans, err := parseAnswer(qa, "2")
	require.NoError(t, err)
	assert.Equal(t, "down", ans.OptionID)
	_, err = parseAnswer(qa, "3")
	assert.Error(t, err)

	qb, _ := cat.Question("q_b")
	ans, err = parseAnswer(qb, "7.5")
	require.NoError(t, err)
	assert.Equal(t, 7.5, ans.Value)
	_, err = parseAnswer(qb, "11")
	assert.Error(t, err)

	qs, _ := cat.Question("q_safety")
	ans, err = parseAnswer(qs, "gore=veil, romance")
	require.NoError(t, err)
	assert.Equal(t, map[string]state.SafetyLevel{"gore": state.LevelVeil, "romance": state.LevelLine}, ans.Levels)
	_, err = parseAnswer(qs, "gore=maybe")
	assert.Error(t, err)
	_, err = parseAnswer(qs, "snakes")
	assert.Error(t, err)

	ans, err = parseAnswer(qs, "")
	require.NoError(t, err)
	assert.Empty(t, ans.Levels)
}
