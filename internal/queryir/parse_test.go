package queryir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickflow/internal/ir"
)

func TestParsePredicate(t *testing.T) {
	tests := []struct {
		text string
		want Predicate
	}{
		{"fan = true", &Equals{Scope: ScopeOutputs, Name: "fan", Value: ir.IRBool(true)}},
		{"fan==false", &Equals{Scope: ScopeOutputs, Name: "fan", Value: ir.IRBool(false)}},
		{"in.hmd >= 50", &Compare{Scope: ScopeInputs, Name: "hmd", Op: OpGe, Value: ir.IRInt(50)}},
		{"inputs.hmd<50.5", &Compare{Scope: ScopeInputs, Name: "hmd", Op: OpLt, Value: ir.IRFloat(50.5)}},
		{"reg.prev != 0", &Compare{Scope: ScopeRegisters, Name: "prev", Op: OpNe, Value: ir.IRInt(0)}},
		{"out.di > -1.5", &Compare{Scope: ScopeOutputs, Name: "di", Op: OpGt, Value: ir.IRFloat(-1.5)}},
		{"output <= 16", &Compare{Scope: ScopeOutputs, Name: "output", Op: OpLe, Value: ir.IRInt(16)}},
		{"changed(fan)", &Changed{Scope: ScopeOutputs, Name: "fan"}},
		{" changed(reg.fan_delayed) ", &Changed{Scope: ScopeRegisters, Name: "fan_delayed"}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParsePredicate(tt.text)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParsePredicate(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestParsePredicate_Errors(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"fan", "expected a comparison"},
		{"fan =", "missing value"},
		{"fan = on", `invalid value "on"`},
		{"fan = NaN", `invalid value "NaN"`},
		{"args.init = 1", `unknown scope "args"`},
		{"1fan = 1", `invalid name "1fan"`},
		{"fan ! 1", "unknown operator !"},
		{"changed(fan", "missing )"},
		{"changed(x.fan)", `unknown scope "x"`},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, err := ParsePredicate(tt.text)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseFilter(t *testing.T) {
	p, err := ParseFilter(nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = ParseFilter([]string{"fan = true"})
	require.NoError(t, err)
	assert.Equal(t, &Equals{Scope: ScopeOutputs, Name: "fan", Value: ir.IRBool(true)}, p)

	p, err = ParseFilter([]string{"fan = true", "in.hmd > 50"})
	require.NoError(t, err)
	and, ok := p.(*And)
	require.True(t, ok)
	assert.Len(t, and.Predicates, 2)

	_, err = ParseFilter([]string{"fan = true", "oops"})
	require.Error(t, err)
}
