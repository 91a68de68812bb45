package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/testutil"
)

const cyclicProgram = `mod Loop;
In { x: Int }
Out { o: Int }
let a = b;
let b = a;
let o = a + x;
`

func TestCompileText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "acc.tf", testutil.Accumulator)

	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled Accumulator: 1 equation(s), 1 register(s)")
	assert.Contains(t, out, "module Accumulator")
	assert.Contains(t, out, "[0] prev: Int <- delay init -< output")

	hash, err := testutil.MustCompile(t, testutil.Accumulator).Hash()
	require.NoError(t, err)
	assert.Contains(t, out, "plan hash: "+hash)
}

func TestCompileJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "acc.tf", testutil.Accumulator)

	out, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), path)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Accumulator", resp.Data.Module)
	assert.Len(t, resp.Data.Hash, 64)
	assert.Equal(t, "Accumulator", resp.Data.Plan["module"])

	// The plan in the response hashes to the reported hash.
	hash, err := ir.PlanHash(normalizeJSON(t, resp.Data.Plan))
	require.NoError(t, err)
	assert.Equal(t, resp.Data.Hash, hash)
}

func TestCompileOutputToFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fan.tf", testutil.FanController)
	outputFile := filepath.Join(dir, "fan.plan.json")

	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), path, "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote canonical plan to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	plan := testutil.MustCompile(t, testutil.FanController)
	hash, err := plan.Hash()
	require.NoError(t, err)
	want, err := ir.MarshalCanonical(map[string]any{
		"module": "FanController",
		"hash":   hash,
		"plan":   plan.Canonical(),
	})
	require.NoError(t, err)
	assert.Equal(t, string(want), string(data))
}

func TestCompileNonExistentFile(t *testing.T) {
	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), "/nonexistent/prog.tf")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E005")
	assert.Contains(t, out, "file not found")
}

func TestCompileSemanticErrors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "loop.tf", cyclicProgram)

	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "compilation failed")
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, "E206")
	assert.Contains(t, out, "loop.tf:")
}

func TestCompileSemanticErrorsJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.tf", `mod Bad;
In { x: Int }
Out { o: Int }
let o = y;
`)

	out, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E201", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "y")

	diags, ok := resp.Data.([]any)
	require.True(t, ok)
	require.NotEmpty(t, diags)
	first := diags[0].(map[string]any)
	details := first["details"].(map[string]any)
	assert.Equal(t, float64(4), details["line"])
}

func TestCompileSyntaxError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.tf", "mod Broken;\nIn { x: Int }\nOut { o: Int }\nlet o = (x + ;\n")

	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Contains(t, out, "E100")
}

// normalizeJSON turns a decoded JSON plan back into canonical-marshalable
// form: integral numbers become int64.
func normalizeJSON(t *testing.T, v map[string]any) map[string]any {
	t.Helper()
	var walk func(any) any
	walk = func(x any) any {
		switch x := x.(type) {
		case map[string]any:
			out := make(map[string]any, len(x))
			for k, v := range x {
				out[k] = walk(v)
			}
			return out
		case []any:
			out := make([]any, len(x))
			for i, v := range x {
				out[i] = walk(v)
			}
			return out
		case float64:
			return int64(x)
		}
		return x
	}
	return walk(v).(map[string]any)
}
