package engine

import (
	"math"

	"cuelang.org/go/cue/token"

	"github.com/roach88/tickflow/internal/ast"
)

func unaryOp(op ast.Op, x Value, pos token.Pos) (Value, error) {
	switch op {
	case ast.OpNot:
		switch x := x.(type) {
		case Bool:
			return !x, nil
		case Int:
			return ^x, nil
		}
	case ast.OpNeg:
		switch x := x.(type) {
		case Int:
			return -x, nil
		case Float:
			return -x, nil
		}
	}
	return nil, typeMismatch(pos, "cannot apply `%s` to %s", op, x.Kind())
}

// binaryOp applies every binary operator except the short-circuiting
// `&&` and `||`, which the evaluator handles.
func binaryOp(op ast.Op, x, y Value, pos token.Pos) (Value, error) {
	switch op {
	case ast.OpEq, ast.OpNe:
		eq, ok := equalValues(x, y)
		if !ok {
			return nil, typeMismatch(pos, "cannot compare %s with %s", x.Kind(), y.Kind())
		}
		return Bool(eq == (op == ast.OpEq)), nil

	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		c, ok := compare(x, y)
		if !ok {
			return nil, typeMismatch(pos, "cannot order %s and %s", x.Kind(), y.Kind())
		}
		switch op {
		case ast.OpLt:
			return Bool(c < 0), nil
		case ast.OpLe:
			return Bool(c <= 0), nil
		case ast.OpGt:
			return Bool(c > 0), nil
		default:
			return Bool(c >= 0), nil
		}

	case ast.OpBitOr, ast.OpBitXor, ast.OpBitAnd:
		return bitwise(op, x, y, pos)

	case ast.OpShl, ast.OpShr:
		a, aok := x.(Int)
		n, nok := y.(Int)
		if !aok || !nok {
			return nil, typeMismatch(pos, "cannot shift %s by %s", x.Kind(), y.Kind())
		}
		if n < 0 {
			return nil, typeMismatch(pos, "negative shift amount %d", n)
		}
		if op == ast.OpShl {
			return a << uint64(n), nil
		}
		return a >> uint64(n), nil

	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpRem, ast.OpPow:
		return arith(op, x, y, pos)
	}
	return nil, typeMismatch(pos, "unsupported operator `%s`", op)
}

// compare orders numbers (Int and Float mixed) and booleans.
func compare(x, y Value) (int, bool) {
	if a, b, ok := numericPair(x, y); ok {
		return cmpFloat(a, b), true
	}
	switch x := x.(type) {
	case Int:
		y, ok := y.(Int)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case Bool:
		y, ok := y.(Bool)
		if !ok {
			return 0, false
		}
		if x == y {
			return 0, true
		}
		if bool(x) {
			return 1, true
		}
		return -1, true
	}
	return 0, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func bitwise(op ast.Op, x, y Value, pos token.Pos) (Value, error) {
	switch x := x.(type) {
	case Int:
		if y, ok := y.(Int); ok {
			switch op {
			case ast.OpBitOr:
				return x | y, nil
			case ast.OpBitXor:
				return x ^ y, nil
			default:
				return x & y, nil
			}
		}
	case Bool:
		if y, ok := y.(Bool); ok {
			switch op {
			case ast.OpBitOr:
				return x || y, nil
			case ast.OpBitXor:
				return Bool(x != y), nil
			default:
				return x && y, nil
			}
		}
	}
	return nil, typeMismatch(pos, "cannot apply `%s` to %s and %s", op, x.Kind(), y.Kind())
}

func arith(op ast.Op, x, y Value, pos token.Pos) (Value, error) {
	if a, aok := x.(Int); aok {
		if b, bok := y.(Int); bok {
			return intArith(op, a, b, pos)
		}
	}
	a, b, ok := numericPair(x, y)
	if !ok {
		return nil, typeMismatch(pos, "cannot apply `%s` to %s and %s", op, x.Kind(), y.Kind())
	}
	switch op {
	case ast.OpAdd:
		return Float(a + b), nil
	case ast.OpSub:
		return Float(a - b), nil
	case ast.OpMul:
		return Float(a * b), nil
	case ast.OpDiv:
		return Float(a / b), nil
	case ast.OpRem:
		return Float(math.Mod(a, b)), nil
	default:
		return Float(math.Pow(a, b)), nil
	}
}

// intArith is wrapping 64-bit arithmetic.
func intArith(op ast.Op, a, b Int, pos token.Pos) (Value, error) {
	switch op {
	case ast.OpAdd:
		return a + b, nil
	case ast.OpSub:
		return a - b, nil
	case ast.OpMul:
		return a * b, nil
	case ast.OpDiv:
		if b == 0 {
			return nil, newRuntimeError(ErrCodeDivisionByZero, pos, "integer division by zero")
		}
		return a / b, nil
	case ast.OpRem:
		if b == 0 {
			return nil, newRuntimeError(ErrCodeDivisionByZero, pos, "integer remainder by zero")
		}
		return a % b, nil
	default:
		if b < 0 {
			return Float(math.Pow(float64(a), float64(b))), nil
		}
		return ipow(a, b), nil
	}
}

// ipow computes base**exp by squaring, wrapping on overflow.
func ipow(base, exp Int) Int {
	result := Int(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}
