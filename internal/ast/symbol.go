package ast

import (
	"cuelang.org/go/cue/token"
)

// Category is the temporal category of a global name.
type Category uint8

const (
	// Args values are fixed for the lifetime of an instance.
	Args Category = iota
	// Input values are supplied anew each tick.
	Input
	// Output values are computed once per tick by a combinational equation.
	Output
	// Local values are combinational values of the current tick. Helper
	// functions are Local too, with Symbol.Func set.
	Local
	// Register values persist across ticks; reads see the pre-tick value.
	Register
)

var categoryNames = [...]string{
	Args:     "Args",
	Input:    "Input",
	Output:   "Output",
	Local:    "Local",
	Register: "Register",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Category(?)"
}

// Temporal reports whether values of this category depend on the tick.
func (c Category) Temporal() bool {
	return c == Input || c == Output || c == Register
}

// Symbol is a global name with its resolved category and declared type.
// Type is nil while unresolved.
type Symbol struct {
	Name     string
	Category Category
	Type     Type
	Func     bool
	DeclPos  token.Pos
}

// String renders the symbol's lattice element, e.g. "Register(Int)" or
// "Local(?)".
func (s *Symbol) String() string {
	ty := "?"
	if s.Type != nil {
		ty = s.Type.String()
	}
	return s.Category.String() + "(" + ty + ")"
}
