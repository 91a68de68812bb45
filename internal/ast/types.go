package ast

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"
)

// Type is a type expression as written in source.
type Type interface {
	Node
	String() string
	typeNode()
}

// NamedType is a type name such as Int, f32 or bool.
type NamedType struct {
	NamePos token.Pos
	Name    string
}

// TupleType is `(T, U, ...)`.
type TupleType struct {
	Lparen token.Pos
	Elems  []Type
}

// ListType is `[T]`, or the fixed-length array `[T; N]` when Len >= 0.
type ListType struct {
	Lbrack token.Pos
	Elem   Type
	Len    int
}

func (t *NamedType) Pos() token.Pos { return t.NamePos }
func (t *TupleType) Pos() token.Pos { return t.Lparen }
func (t *ListType) Pos() token.Pos  { return t.Lbrack }

func (*NamedType) typeNode() {}
func (*TupleType) typeNode() {}
func (*ListType) typeNode()  {}

func (t *NamedType) String() string { return t.Name }

func (t *TupleType) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (t *ListType) String() string {
	if t.Len >= 0 {
		return fmt.Sprintf("[%s; %d]", t.Elem, t.Len)
	}
	return "[" + t.Elem.String() + "]"
}

// Scalar classifies the built-in scalar type names.
type Scalar uint8

const (
	NotScalar Scalar = iota
	ScalarInt
	ScalarFloat
	ScalarBool
)

// IntBits returns the width and signedness of a sized integer type name.
// Int, i64, isize, u64 and usize are reported as 64 bits.
func IntBits(name string) (bits int, signed bool, ok bool) {
	switch name {
	case "Int", "i64", "isize":
		return 64, true, true
	case "i32":
		return 32, true, true
	case "i16":
		return 16, true, true
	case "i8":
		return 8, true, true
	case "u64", "usize":
		return 64, false, true
	case "u32":
		return 32, false, true
	case "u16":
		return 16, false, true
	case "u8":
		return 8, false, true
	}
	return 0, false, false
}

// ScalarOf reports which scalar family a type belongs to.
func ScalarOf(t Type) Scalar {
	n, ok := t.(*NamedType)
	if !ok {
		return NotScalar
	}
	if _, _, ok := IntBits(n.Name); ok {
		return ScalarInt
	}
	switch n.Name {
	case "Float", "f32", "f64":
		return ScalarFloat
	case "Bool", "bool":
		return ScalarBool
	}
	return NotScalar
}
