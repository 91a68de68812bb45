package engine

import (
	"math"

	"cuelang.org/go/cue/token"

	"github.com/roach88/tickflow/internal/ast"
)

// Coerce shapes v to the declared type t. It is applied to Args and Input
// values, ascriptions, helper parameters and results, register values and
// published outputs.
//
// Integers are accepted where a float is declared. Sized integer types wrap
// to their width, f32 rounds to single precision. Arrays and tuples are
// checked for length. A nil type or a type name that is not a built-in
// scalar accepts any value unchanged.
func Coerce(v Value, t ast.Type) (Value, error) {
	return coerce(v, t, false, token.NoPos)
}

// Cast converts v to t the way `v as t` does: like Coerce, but numeric
// conversions go both ways (floats truncate toward zero) and booleans
// convert to integers.
func Cast(v Value, t ast.Type) (Value, error) {
	return coerce(v, t, true, token.NoPos)
}

func coerce(v Value, t ast.Type, cast bool, pos token.Pos) (Value, error) {
	switch t := t.(type) {
	case nil:
		return v, nil

	case *ast.NamedType:
		return coerceScalar(v, t, cast, pos)

	case *ast.TupleType:
		elems, ok := v.(Tuple)
		if !ok {
			// Arrays decoded from JSON or CUE arrive as lists.
			l, isList := v.(List)
			if !isList {
				return nil, typeMismatch(pos, "expected %s, found %s", t, v.Kind())
			}
			elems = Tuple(l)
		}
		if len(elems) != len(t.Elems) {
			return nil, typeMismatch(pos, "expected %s, found a tuple of %d elements", t, len(elems))
		}
		out := make(Tuple, len(elems))
		for i, e := range elems {
			ev, err := coerce(e, t.Elems[i], cast, pos)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil

	case *ast.ListType:
		elems, ok := v.(List)
		if !ok {
			return nil, typeMismatch(pos, "expected %s, found %s", t, v.Kind())
		}
		if t.Len >= 0 && len(elems) != t.Len {
			return nil, typeMismatch(pos, "expected %s, found %d elements", t, len(elems))
		}
		out := make(List, len(elems))
		for i, e := range elems {
			ev, err := coerce(e, t.Elem, cast, pos)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	}
	return v, nil
}

func coerceScalar(v Value, t *ast.NamedType, cast bool, pos token.Pos) (Value, error) {
	switch ast.ScalarOf(t) {
	case ast.ScalarInt:
		var n int64
		switch v := v.(type) {
		case Int:
			n = int64(v)
		case Float:
			if !cast && float64(v) != math.Trunc(float64(v)) {
				return nil, typeMismatch(pos, "expected %s, found Float %s", t, v)
			}
			n = int64(v)
		case Bool:
			if !cast {
				return nil, typeMismatch(pos, "expected %s, found Bool", t)
			}
			if v {
				n = 1
			}
		default:
			return nil, typeMismatch(pos, "expected %s, found %s", t, v.Kind())
		}
		return Int(wrapInt(n, t.Name)), nil

	case ast.ScalarFloat:
		var f float64
		switch v := v.(type) {
		case Float:
			f = float64(v)
		case Int:
			f = float64(v)
		default:
			return nil, typeMismatch(pos, "expected %s, found %s", t, v.Kind())
		}
		if t.Name == "f32" {
			f = float64(float32(f))
		}
		return Float(f), nil

	case ast.ScalarBool:
		b, ok := v.(Bool)
		if !ok {
			return nil, typeMismatch(pos, "expected %s, found %s", t, v.Kind())
		}
		return b, nil
	}
	return v, nil
}

// wrapInt truncates n to the width of the named integer type.
func wrapInt(n int64, name string) int64 {
	bits, signed, ok := ast.IntBits(name)
	if !ok || bits >= 64 {
		return n
	}
	shift := uint(64 - bits)
	if signed {
		return (n << shift) >> shift
	}
	return int64(uint64(n) << shift >> shift)
}
