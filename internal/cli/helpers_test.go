package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickflow/internal/engine"
	"github.com/roach88/tickflow/internal/testutil"
)

const accumulatorStimulus = `
args: { init: 10 }
ticks: [
	{ input: 1 },
	{ input: 2 },
	{ input: 3 },
]
`

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// recordRun runs the accumulator over accumulatorStimulus into a database
// in dir and returns the database and program paths.
func recordRun(t *testing.T, dir, runID string) (dbPath, progPath string) {
	t.Helper()
	progPath = writeFile(t, dir, "acc.tf", testutil.Accumulator)
	stimPath := writeFile(t, dir, "acc.cue", accumulatorStimulus)
	dbPath = filepath.Join(dir, "trace.db")

	cmd := newRunCommand(&RunOptions{
		RootOptions: &RootOptions{Format: "text"},
		RunIDs:      engine.NewFixedGenerator(runID),
	})
	_, err := execute(cmd, progPath, "--stimulus", stimPath, "--db", dbPath)
	require.NoError(t, err)
	return dbPath, progPath
}
