package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadScenario_ResolvesProgramPath(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/accumulator.yaml")
	require.NoError(t, err)

	assert.Equal(t, "accumulator", scenario.Name)
	assert.Equal(t, filepath.Join("testdata", "programs", "accumulator.tf"), scenario.Program)
	assert.Equal(t, "acc-0001", scenario.RunID)
	assert.Equal(t, map[string]any{"init": 0}, scenario.Args)
	require.Len(t, scenario.Ticks, 3)
	assert.Equal(t, map[string]any{"input": 2}, scenario.Ticks[1].Inputs)
	assert.Equal(t, map[string]any{"output": 3}, scenario.Ticks[1].Expect)
	require.Len(t, scenario.Assertions, 3)
	assert.Equal(t, AssertOutputEquals, scenario.Assertions[0].Type)
	assert.Equal(t, int64(2), scenario.Assertions[0].Tick)
}

func TestLoadScenario_InlineSourceAndExpectError(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/cycle.yaml")
	require.NoError(t, err)

	assert.Contains(t, scenario.Source, "mod Loop;")
	assert.Empty(t, scenario.Program)
	require.NotNil(t, scenario.ExpectError)
	assert.Equal(t, ExpectError{Kind: "CyclicDependency", Name: "a"}, *scenario.ExpectError)
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "typo.yaml", `
name: typo
description: d
source: "mod M;"
tick:
  - inputs: {}
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing name",
			body: "description: d\nsource: x\nticks: [{inputs: {}}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			body: "name: n\nsource: x\nticks: [{inputs: {}}]\n",
			want: "description is required",
		},
		{
			name: "no program",
			body: "name: n\ndescription: d\nticks: [{inputs: {}}]\n",
			want: "one of source or program is required",
		},
		{
			name: "both program and source",
			body: "name: n\ndescription: d\nsource: x\nprogram: p.tf\nticks: [{inputs: {}}]\n",
			want: "mutually exclusive",
		},
		{
			name: "program not found",
			body: "name: n\ndescription: d\nprogram: missing.tf\nticks: [{inputs: {}}]\n",
			want: "program file not found",
		},
		{
			name: "no ticks",
			body: "name: n\ndescription: d\nsource: x\n",
			want: "ticks list is required",
		},
		{
			name: "ticks with expect_error",
			body: "name: n\ndescription: d\nsource: x\nexpect_error: {kind: E101}\nticks: [{inputs: {}}]\n",
			want: "expect_error and ticks are mutually exclusive",
		},
		{
			name: "expect_error without kind",
			body: "name: n\ndescription: d\nsource: x\nexpect_error: {name: a}\n",
			want: "expect_error: kind is required",
		},
		{
			name: "tick without inputs",
			body: "name: n\ndescription: d\nsource: x\nticks: [{expect: {o: 1}}]\n",
			want: "ticks[0]: inputs is required",
		},
		{
			name: "tick expect and expect_error",
			body: "name: n\ndescription: d\nsource: x\nticks: [{inputs: {}, expect: {o: 1}, expect_error: {kind: ARITY}}]\n",
			want: "ticks[0]: expect and expect_error are mutually exclusive",
		},
		{
			name: "unknown assertion",
			body: "name: n\ndescription: d\nsource: x\nticks: [{inputs: {}}]\nassertions: [{type: trace_order}]\n",
			want: `unknown assertion type "trace_order"`,
		},
		{
			name: "output_equals without value",
			body: "name: n\ndescription: d\nsource: x\nticks: [{inputs: {}}]\nassertions: [{type: output_equals, output: o}]\n",
			want: "value is required for output_equals",
		},
		{
			name: "register_equals without register",
			body: "name: n\ndescription: d\nsource: x\nticks: [{inputs: {}}]\nassertions: [{type: register_equals, value: 1}]\n",
			want: "register is required for register_equals",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), "s.yaml", tt.body)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
