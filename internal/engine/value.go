package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/tickflow/internal/ir"
)

// Kind identifies the shape of a runtime value.
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindFloat
	KindBool
	KindTuple
	KindList
)

var kindNames = map[Kind]string{
	KindInt:   "Int",
	KindFloat: "Float",
	KindBool:  "Bool",
	KindTuple: "Tuple",
	KindList:  "List",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Value is a runtime value. The set of implementations is closed.
type Value interface {
	Kind() Kind
	String() string
	value() // sealed
}

// Int is a 64-bit integer. Sized integer types are stored wrapped to their
// width.
type Int int64

// Float is a 64-bit float. f32 values are stored rounded to single precision.
type Float float64

// Bool is a boolean.
type Bool bool

// Tuple is a fixed-size heterogeneous sequence. The empty tuple is unit.
type Tuple []Value

// List is a homogeneous sequence, also used for fixed-length arrays.
type List []Value

func (Int) Kind() Kind   { return KindInt }
func (Float) Kind() Kind { return KindFloat }
func (Bool) Kind() Kind  { return KindBool }
func (Tuple) Kind() Kind { return KindTuple }
func (List) Kind() Kind  { return KindList }

func (Int) value()   {}
func (Float) value() {}
func (Bool) value()  {}
func (Tuple) value() {}
func (List) value()  {}

func (v Int) String() string { return strconv.FormatInt(int64(v), 10) }

func (v Float) String() string {
	s := strconv.FormatFloat(float64(v), 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func (v Bool) String() string {
	if v {
		return "True"
	}
	return "False"
}

func (v Tuple) String() string {
	if len(v) == 1 {
		return "(" + v[0].String() + ",)"
	}
	return "(" + joinValues(v) + ")"
}

func (v List) String() string { return "[" + joinValues(v) + "]" }

func joinValues(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

// Unit is the value of a block without a result expression.
var Unit = Tuple{}

// Equal reports structural equality. Int and Float compare by numeric value.
func Equal(a, b Value) bool {
	eq, ok := equalValues(a, b)
	return ok && eq
}

func equalValues(a, b Value) (eq, ok bool) {
	if x, y, isNum := numericPair(a, b); isNum {
		return x == y, true
	}
	switch a := a.(type) {
	case Int:
		y, isInt := b.(Int)
		return a == y, isInt
	case Bool:
		y, isBool := b.(Bool)
		return a == y, isBool
	case Tuple:
		y, isTuple := b.(Tuple)
		if !isTuple {
			return false, false
		}
		return equalSeq(a, y)
	case List:
		y, isList := b.(List)
		if !isList {
			return false, false
		}
		return equalSeq(a, y)
	}
	return false, false
}

func equalSeq(a, b []Value) (eq, ok bool) {
	if len(a) != len(b) {
		return false, true
	}
	for i := range a {
		eq, ok := equalValues(a[i], b[i])
		if !ok {
			return false, false
		}
		if !eq {
			return false, true
		}
	}
	return true, true
}

// numericPair returns both operands as floats when at least one is a Float
// and the other is numeric.
func numericPair(a, b Value) (x, y float64, ok bool) {
	switch a := a.(type) {
	case Float:
		switch b := b.(type) {
		case Float:
			return float64(a), float64(b), true
		case Int:
			return float64(a), float64(b), true
		}
	case Int:
		if b, isFloat := b.(Float); isFloat {
			return float64(a), float64(b), true
		}
	}
	return 0, 0, false
}

// Outputs maps every Out field to its value for one tick.
type Outputs map[string]Value

// Names returns the field names in lexicographic order.
func (o Outputs) Names() []string {
	names := make([]string, 0, len(o))
	for n := range o {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ToIR converts a runtime value to its IR form for canonical JSON.
// Tuples and lists both become arrays.
func ToIR(v Value) ir.IRValue {
	switch v := v.(type) {
	case Int:
		return ir.IRInt(v)
	case Float:
		return ir.IRFloat(v)
	case Bool:
		return ir.IRBool(v)
	case Tuple:
		return seqToIR(v)
	case List:
		return seqToIR(v)
	}
	panic(fmt.Sprintf("engine: unknown value %T", v))
}

func seqToIR(vs []Value) ir.IRArray {
	arr := make(ir.IRArray, len(vs))
	for i, v := range vs {
		arr[i] = ToIR(v)
	}
	return arr
}

// FromIR converts an IR value to a runtime value without a declared type.
// Arrays become lists; use Coerce to shape them by type.
func FromIR(v ir.IRValue) (Value, error) {
	switch v := v.(type) {
	case ir.IRInt:
		return Int(v), nil
	case ir.IRFloat:
		return Float(v), nil
	case ir.IRBool:
		return Bool(v), nil
	case ir.IRArray:
		out := make(List, len(v))
		for i, e := range v {
			ev, err := FromIR(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = ev
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value %s", ir.String(v))
}

// ValuesToIR converts a named set of values to an IR object.
func ValuesToIR(vals map[string]Value) ir.IRObject {
	obj := make(ir.IRObject, len(vals))
	for k, v := range vals {
		obj[k] = ToIR(v)
	}
	return obj
}

// ValuesFromIR converts an IR object to named runtime values.
func ValuesFromIR(obj ir.IRObject) (map[string]Value, error) {
	vals := make(map[string]Value, len(obj))
	for _, k := range obj.SortedKeys() {
		v, err := FromIR(obj[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		vals[k] = v
	}
	return vals, nil
}
