package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickflow/internal/engine"
	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/store"
	"github.com/roach88/tickflow/internal/testutil"
)

func testRunOptions(format string, ids ...string) *RunOptions {
	return &RunOptions{
		RootOptions: &RootOptions{Format: format},
		RunIDs:      engine.NewFixedGenerator(ids...),
	}
}

func TestRunMissingStimulusFlag(t *testing.T) {
	path := writeFile(t, t.TempDir(), "acc.tf", testutil.Accumulator)

	_, err := execute(NewRunCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "stimulus")
}

func TestRunText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "acc.tf", testutil.Accumulator)
	stim := writeFile(t, dir, "acc.cue", accumulatorStimulus)

	out, err := execute(newRunCommand(testRunOptions("text", "run-1")), path, "--stimulus", stim)
	require.NoError(t, err)

	assert.Contains(t, out, "run run-1 (module Accumulator)")
	assert.Contains(t, out, "[1] output=11")
	assert.Contains(t, out, "[2] output=13")
	assert.Contains(t, out, "[3] output=16")
	assert.Contains(t, out, "✓ 3 tick(s) committed")
}

func TestRunJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fan.tf", testutil.FanController)
	stim := writeFile(t, dir, "fan.cue", `
args: { fan_init: false, tmp: 30 }
ticks: [{ hmd: 60 }, { hmd: 0.0 }]
`)

	out, err := execute(newRunCommand(testRunOptions("json", "run-fan")), path, "--stimulus", stim)
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-fan", resp.Data.RunID)
	assert.Equal(t, "FanController", resp.Data.Module)
	require.Len(t, resp.Data.Ticks, 2)
	assert.Equal(t, ir.IRBool(true), resp.Data.Ticks[0].Outputs["fan"])
	assert.Equal(t, ir.IRBool(false), resp.Data.Ticks[1].Outputs["fan"])
	assert.Equal(t, ir.IRObject{"fan_delayed": ir.IRBool(false)}, resp.Data.Registers)
}

func TestRunRecordsToDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath, _ := recordRun(t, dir, "run-db")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	run, err := st.ReadRun(ctx, "run-db")
	require.NoError(t, err)
	assert.Equal(t, "Accumulator", run.Module)
	assert.Equal(t, testutil.Accumulator, run.Source)
	assert.Equal(t, ir.IRObject{"init": ir.IRInt(10)}, run.Args)
	assert.Equal(t, ir.EngineVersion, run.EngineVersion)

	n, err := st.VerifyRun(ctx, "run-db")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	state, err := st.GetRunState(ctx, "run-db")
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"prev": ir.IRInt(16)}, state.Registers)
}

func TestRunRuntimeError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "div.tf", "mod Divide;\nIn { x: Int }\nOut { o: Int }\nlet o = 100 / x;\n")
	stim := writeFile(t, dir, "div.cue", "ticks: [{ x: 4 }, { x: 0 }, { x: 5 }]\n")
	dbPath := filepath.Join(dir, "trace.db")

	out, err := execute(newRunCommand(testRunOptions("text", "run-div")), path, "--stimulus", stim, "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "tick 2 failed")
	assert.True(t, engine.IsCode(err, engine.ErrCodeDivisionByZero))

	assert.Contains(t, out, "[1] o=25")
	assert.Contains(t, out, "✗ DIVISION_BY_ZERO")
	assert.NotContains(t, out, "o=20", "the run stops at the failing tick")

	// Only the committed tick is recorded.
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	ticks, err := st.ReadTicks(context.Background(), "run-div")
	require.NoError(t, err)
	assert.Len(t, ticks, 1)
}

func TestRunMissingArgs(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "acc.tf", testutil.Accumulator)
	stim := writeFile(t, dir, "acc.cue", "ticks: [{ input: 1 }]\n")

	out, err := execute(newRunCommand(testRunOptions("text", "run-1")), path, "--stimulus", stim)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "MISSING_INPUT")
}

func TestRunCompileError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "loop.tf", cyclicProgram)
	stim := writeFile(t, dir, "s.cue", "ticks: []\n")

	out, err := execute(newRunCommand(testRunOptions("text")), path, "--stimulus", stim)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E206")
}

func TestRunBadStimulus(t *testing.T) {
	tests := []struct {
		name     string
		stimulus string
		code     string
	}{
		{"not cue", "ticks: [", ErrCodeLoadFailed},
		{"incomplete", "args: { init: int }", ErrCodeBuildFailed},
		{"ticks not a list", "ticks: { input: 1 }", ErrCodeStimulus},
		{"string value", `ticks: [{ input: "one" }]`, ErrCodeStimulus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeFile(t, dir, "acc.tf", testutil.Accumulator)
			stim := writeFile(t, dir, "s.cue", tt.stimulus)

			out, err := execute(newRunCommand(testRunOptions("json", "run-1")), path, "--stimulus", stim)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
