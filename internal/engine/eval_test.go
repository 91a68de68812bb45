package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickflow/internal/compiler"
	"github.com/roach88/tickflow/internal/syntax"
)

// evalExpr evaluates a closed expression: no globals, no helpers.
func evalExpr(t *testing.T, src string) (Value, error) {
	t.Helper()
	x, err := syntax.ParseExpr(src)
	require.NoError(t, err)
	ev := &evaluator{plan: &compiler.Plan{}}
	return ev.eval(x)
}

func TestEval(t *testing.T) {
	tests := []struct {
		src  string
		want Value
	}{
		// arithmetic
		{"1 + 2 * 3", Int(7)},
		{"(1 + 2) * 3", Int(9)},
		{"7 / 2", Int(3)},
		{"-7 / 2", Int(-3)},
		{"7 % 3", Int(1)},
		{"1 + 0.5", Float(1.5)},
		{"3.0 / 2", Float(1.5)},
		{"2 ** 10", Int(1024)},
		{"2 ** 3 ** 2", Int(512)},
		{"2 ** -1", Float(0.5)},
		{"9223372036854775807 + 1", Int(-9223372036854775808)},
		{"0x10 + 1_000", Int(1016)},

		// bitwise
		{"1 << 4", Int(16)},
		{"256 >> 4", Int(16)},
		{"6 & 3", Int(2)},
		{"6 | 3", Int(7)},
		{"6 ^ 3", Int(5)},
		{"True ^ True", Bool(false)},
		{"!0", Int(-1)},

		// logic and comparison
		{"!True", Bool(false)},
		{"1 < 2 && 2.5 >= 2", Bool(true)},
		{"True || 1 / 0 == 0", Bool(true)},
		{"False && 1 / 0 == 0", Bool(false)},
		{"1 == 1.0", Bool(true)},
		{"False < True", Bool(true)},
		{"True > False", Bool(true)},
		{"False <= True", Bool(true)},
		{"True <= True", Bool(true)},
		{"True < False", Bool(false)},
		{"False > False", Bool(false)},
		{"False >= True", Bool(false)},
		{"(1, 2) == (1, 2)", Bool(true)},
		{"[1, 2] != [1, 3]", Bool(true)},

		// control flow and structure
		{"if 1 > 2 then 10 else 20", Int(20)},
		{"(1, 2.5, True).1", Float(2.5)},
		{"[10, 20, 30][2]", Int(30)},
		{"{ let (a, _, c) = (1, 2, 3); a + c }", Int(4)},
		{"{ let x = 1; let x = x + 1; x * 10 }", Int(20)},
		{"{ let x: f64 = 1; x }", Float(1)},
		{"{ let (a, (b, c)) = (1, (2, 3)); a * b * c }", Int(6)},

		// casts and ascription
		{"3.9 as Int", Int(3)},
		{"-3.9 as Int", Int(-3)},
		{"300 as u8", Int(44)},
		{"True as Int", Int(1)},
		{"1 as f64", Float(1)},
		{"2: Int", Int(2)},
		{"(1, 2): (f32, Int)", Tuple{Float(1), Int(2)}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := evalExpr(t, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval_Errors(t *testing.T) {
	tests := []struct {
		src  string
		code RuntimeErrorCode
	}{
		{"1 / 0", ErrCodeDivisionByZero},
		{"1 % 0", ErrCodeDivisionByZero},
		{"True + 1", ErrCodeTypeMismatch},
		{"-True", ErrCodeTypeMismatch},
		{"1 && True", ErrCodeTypeMismatch},
		{"True && 1", ErrCodeTypeMismatch},
		{"if 1 then 2 else 3", ErrCodeTypeMismatch},
		{"1 < True", ErrCodeTypeMismatch},
		{"True >= 0", ErrCodeTypeMismatch},
		{"1 == True", ErrCodeTypeMismatch},
		{"1 << -1", ErrCodeTypeMismatch},
		{"1.5 << 1", ErrCodeTypeMismatch},
		{"[1, 2][5]", ErrCodeIndexOutOfRange},
		{"[1, 2][True]", ErrCodeTypeMismatch},
		{"5[0]", ErrCodeTypeMismatch},
		{"(1, 2).5", ErrCodeIndexOutOfRange},
		{"(1, 2).x", ErrCodeUnknownField},
		{"[1, 2].0", ErrCodeTypeMismatch},
		{"1.5: Int", ErrCodeTypeMismatch},
		{"1 as bool", ErrCodeTypeMismatch},
		{"[1, 2] as [Int; 3]", ErrCodeTypeMismatch},
		{"{ let (a, b) = (1, 2, 3); a }", ErrCodeTypeMismatch},
		{"{ let (a, b) = 1; a }", ErrCodeTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := evalExpr(t, tt.src)
			require.Error(t, err)
			assert.True(t, IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestEval_ErrorPosition(t *testing.T) {
	_, err := evalExpr(t, "1 + 2 / 0")

	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, re.Pos.Line())
	assert.Equal(t, 7, re.Pos.Column())
	assert.Equal(t, "<expr>:1:7: DIVISION_BY_ZERO: integer division by zero", re.Error())
}

func TestEval_BlockScopeEnds(t *testing.T) {
	plan := compile(t, `
mod M;
In { x: Int }
Out { o: Int }
let o = { let x = 100; x } + x;
`)
	inst, err := New(plan, nil)
	require.NoError(t, err)

	out, err := inst.Run(in("x", Int(1)))
	require.NoError(t, err)
	assert.Equal(t, Int(101), out["o"])
}

func TestEval_HelpersSeeOnlyParameters(t *testing.T) {
	plan := compile(t, `
mod M;
In { x: Int }
Out { o: Int }
Args { k: Int }
fn scale(x: Int) -> Int = x * k;
fn twice(x: Int) -> i8 = scale(scale(x));
let o = twice(x + 1);
`)
	inst, err := New(plan, map[string]Value{"k": Int(3)})
	require.NoError(t, err)

	out, err := inst.Run(in("x", Int(1)))
	require.NoError(t, err)
	assert.Equal(t, Int(18), out["o"])

	// The helper result wraps to its declared i8.
	out, err = inst.Run(in("x", Int(15)))
	require.NoError(t, err)
	assert.Equal(t, Int(-112), out["o"])
}
