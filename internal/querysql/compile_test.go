package querysql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/queryir"
)

const selectTicks = "SELECT run_id, seq, inputs, outputs, registers, hash FROM ticks WHERE "

func TestCompile_AllTicks(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Ticks{RunID: "run-1"})
	require.NoError(t, err)

	assert.Equal(t, selectTicks+"run_id = ? ORDER BY seq ASC", sql)
	assert.Equal(t, []any{"run-1"}, params)
}

func TestCompile_Predicates(t *testing.T) {
	tests := []struct {
		name   string
		filter queryir.Predicate
		where  string
		params []any
	}{
		{
			name:   "equals bool",
			filter: &queryir.Equals{Scope: queryir.ScopeOutputs, Name: "fan", Value: ir.IRBool(true)},
			where:  "json_extract(outputs, ?) = ?",
			params: []any{"$.fan", true},
		},
		{
			name:   "equals value",
			filter: queryir.Equals{Scope: queryir.ScopeRegisters, Name: "prev", Value: ir.IRInt(16)},
			where:  "json_extract(registers, ?) = ?",
			params: []any{"$.prev", int64(16)},
		},
		{
			name:   "compare",
			filter: &queryir.Compare{Scope: queryir.ScopeInputs, Name: "hmd", Op: queryir.OpGe, Value: ir.IRFloat(50.5)},
			where:  "json_extract(inputs, ?) >= ?",
			params: []any{"$.hmd", 50.5},
		},
		{
			name:   "not equal",
			filter: queryir.Compare{Scope: queryir.ScopeOutputs, Name: "output", Op: queryir.OpNe, Value: ir.IRInt(0)},
			where:  "json_extract(outputs, ?) != ?",
			params: []any{"$.output", int64(0)},
		},
		{
			name: "and",
			filter: &queryir.And{Predicates: []queryir.Predicate{
				&queryir.Equals{Scope: queryir.ScopeOutputs, Name: "fan", Value: ir.IRBool(false)},
				&queryir.Compare{Scope: queryir.ScopeInputs, Name: "hmd", Op: queryir.OpLt, Value: ir.IRInt(10)},
			}},
			where:  "json_extract(outputs, ?) = ? AND json_extract(inputs, ?) < ?",
			params: []any{"$.fan", false, "$.hmd", int64(10)},
		},
		{
			name:   "empty and",
			filter: queryir.And{},
			where:  "1 = 1",
			params: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler().Compile(queryir.Ticks{RunID: "r", Filter: tt.filter})
			require.NoError(t, err)

			assert.Equal(t, selectTicks+"run_id = ? AND "+tt.where+" ORDER BY seq ASC", sql)
			assert.Equal(t, append([]any{"r"}, tt.params...), params)
		})
	}
}

func TestCompile_Changed(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(&queryir.Ticks{
		RunID:  "r",
		Filter: &queryir.Changed{Scope: queryir.ScopeOutputs, Name: "fan"},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, "json_extract(ticks.outputs, ?) IS NOT NULL")
	assert.Contains(t, sql, "IS NOT (SELECT json_extract(prev.outputs, ?) FROM ticks AS prev")
	assert.Contains(t, sql, "prev.seq = ticks.seq - 1")
	assert.Equal(t, []any{"r", "$.fan", "$.fan", "$.fan"}, params)
}

func TestCompile_RangeAndLimit(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Ticks{
		RunID:   "r",
		FromSeq: 2,
		ToSeq:   5,
		Limit:   3,
		Filter:  &queryir.Equals{Scope: queryir.ScopeOutputs, Name: "fan", Value: ir.IRBool(true)},
	})
	require.NoError(t, err)

	assert.Equal(t,
		selectTicks+"run_id = ? AND seq >= ? AND seq <= ? AND json_extract(outputs, ?) = ? ORDER BY seq ASC LIMIT ?",
		sql)
	assert.Equal(t, []any{"r", int64(2), int64(5), "$.fan", true, 3}, params)
}

func TestCompile_ValuesNeverInterpolated(t *testing.T) {
	sql, _, err := NewSQLCompiler().Compile(queryir.Ticks{
		RunID:  "'; DROP TABLE ticks; --",
		Filter: &queryir.Equals{Scope: queryir.ScopeOutputs, Name: "fan", Value: ir.IRInt(424242)},
	})
	require.NoError(t, err)

	assert.NotContains(t, sql, "DROP")
	assert.NotContains(t, sql, "424242")
	assert.NotContains(t, sql, "$.fan")
}

func TestCompile_OrderByMandatory(t *testing.T) {
	queries := []queryir.Query{
		queryir.Ticks{RunID: "r"},
		&queryir.Ticks{RunID: "r", Limit: 1},
		queryir.Ticks{RunID: "r", Filter: &queryir.Changed{Scope: queryir.ScopeInputs, Name: "x"}},
	}

	for _, q := range queries {
		sql, _, err := NewSQLCompiler().Compile(q)
		require.NoError(t, err)
		assert.Contains(t, sql, "ORDER BY seq ASC")
		assert.Equal(t, 1, strings.Count(sql, "ORDER BY"))
	}
}

func TestCompile_CustomTable(t *testing.T) {
	c := &SQLCompiler{Table: "archived_ticks"}
	sql, _, err := c.Compile(queryir.Ticks{RunID: "r"})
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM archived_ticks WHERE")

	sql, _, err = (&SQLCompiler{}).Compile(queryir.Ticks{RunID: "r"})
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM ticks WHERE")
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query queryir.Query
		want  string
	}{
		{"nil query", nil, "cannot compile nil query"},
		{"no run", queryir.Ticks{}, "query has no run id"},
		{
			"bad scope",
			queryir.Ticks{RunID: "r", Filter: &queryir.Changed{Scope: "args", Name: "x"}},
			`unknown scope "args"`,
		},
		{
			"bad name",
			queryir.Ticks{RunID: "r", Filter: &queryir.Equals{Scope: queryir.ScopeOutputs, Name: "x') OR 1=1 --", Value: ir.IRInt(1)}},
			"invalid name",
		},
		{
			"bad operator",
			queryir.Ticks{RunID: "r", Filter: &queryir.Compare{Scope: queryir.ScopeOutputs, Name: "x", Op: "LIKE", Value: ir.IRInt(1)}},
			`unknown operator "LIKE"`,
		},
		{
			"array value",
			queryir.Ticks{RunID: "r", Filter: &queryir.Equals{Scope: queryir.ScopeOutputs, Name: "x", Value: ir.IRArray{}}},
			"unsupported IRValue type",
		},
		{
			"missing value",
			queryir.Ticks{RunID: "r", Filter: &queryir.Equals{Scope: queryir.ScopeOutputs, Name: "x"}},
			"x: missing value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewSQLCompiler().Compile(tt.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
