package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tickflow/internal/ast"
)

// ErrorKind is the closed set of semantic errors the compiler reports.
type ErrorKind uint8

const (
	UndefinedVariable ErrorKind = iota + 1
	MultipleDefinition
	NotCalculated
	CellAsOutput
	LiftedTypeNotAllowed
	CyclicDependency
	NotCallable
	FunctionAsValue
)

// Semantic error codes (E200-E299)
var kindCodes = map[ErrorKind]string{
	UndefinedVariable:    "E201",
	MultipleDefinition:   "E202",
	NotCalculated:        "E203",
	CellAsOutput:         "E204",
	LiftedTypeNotAllowed: "E205",
	CyclicDependency:     "E206",
	NotCallable:          "E207",
	FunctionAsValue:      "E208",
}

var kindNames = map[ErrorKind]string{
	UndefinedVariable:    "UndefinedVariable",
	MultipleDefinition:   "MultipleDefinition",
	NotCalculated:        "NotCalculated",
	CellAsOutput:         "CellAsOutput",
	LiftedTypeNotAllowed: "LiftedTypeNotAllowed",
	CyclicDependency:     "CyclicDependency",
	NotCallable:          "NotCallable",
	FunctionAsValue:      "FunctionAsValue",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// Code returns the stable diagnostic code for the kind.
func (k ErrorKind) Code() string { return kindCodes[k] }

// ParseErrorKind maps a kind name such as "CyclicDependency" back to its
// ErrorKind.
func ParseErrorKind(s string) (ErrorKind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// ErrInternal marks violations of the compiler's own invariants. It is never
// a user diagnostic.
var ErrInternal = errors.New("internal compiler error")

// SemanticError is one diagnostic produced by analysis. It implements the
// CUE errors.Error interface so diagnostics from every phase merge into a
// single compound error with errors.Append.
type SemanticError struct {
	Kind ErrorKind
	Name string
	Pos  token.Pos

	// Symbol is the offending symbol for LiftedTypeNotAllowed and
	// NotCallable. Nil for a callee bound by a block let or parameter.
	Symbol *ast.Symbol

	// Cycle is the dependency path for CyclicDependency, first and last
	// element equal.
	Cycle []string
}

func (e *SemanticError) Msg() (string, []any) {
	switch e.Kind {
	case UndefinedVariable:
		return "use of undefined variable: `%s`", []any{e.Name}
	case MultipleDefinition:
		return "multiple definition: `%s`", []any{e.Name}
	case NotCalculated:
		return "output variable `%s` not calculated", []any{e.Name}
	case CellAsOutput:
		return "use delayed variable `%s` as output", []any{e.Name}
	case LiftedTypeNotAllowed:
		lattice := "?"
		if e.Symbol != nil {
			lattice = e.Symbol.String()
		}
		return "variable `%s` has lifted type `%s`", []any{e.Name, lattice}
	case CyclicDependency:
		if len(e.Cycle) > 0 {
			return "cyclic dependency found in definition `%s` (%s)", []any{e.Name, strings.Join(e.Cycle, " -> ")}
		}
		return "cyclic dependency found in definition `%s`", []any{e.Name}
	case NotCallable:
		if e.Symbol != nil {
			return "`%s` is not a function: `%s`", []any{e.Name, e.Symbol}
		}
		return "`%s` is not a function: local binding", []any{e.Name}
	case FunctionAsValue:
		return "function `%s` used as a value", []any{e.Name}
	}
	return "%s: `%s`", []any{e.Kind, e.Name}
}

func (e *SemanticError) Error() string {
	format, args := e.Msg()
	msg := fmt.Sprintf(format, args...)
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: [%s] %s", e.Pos, e.Kind.Code(), msg)
	}
	return fmt.Sprintf("[%s] %s", e.Kind.Code(), msg)
}

// Code returns the diagnostic code.
func (e *SemanticError) Code() string { return e.Kind.Code() }

func (e *SemanticError) Position() token.Pos         { return e.Pos }
func (e *SemanticError) InputPositions() []token.Pos { return nil }
func (e *SemanticError) Path() []string              { return nil }

func newError(kind ErrorKind, id *ast.Ident) *SemanticError {
	return &SemanticError{Kind: kind, Name: id.Name, Pos: id.Pos()}
}

// Diagnostics flattens a compound compile error into its individual
// diagnostics, in the order they were reported.
func Diagnostics(err error) []errors.Error {
	if err == nil {
		return nil
	}
	return errors.Errors(err)
}

// Coded is implemented by every diagnostic that carries a stable code.
type Coded interface {
	Code() string
}

// CodeOf returns the diagnostic code of err, or "" if it has none.
func CodeOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	var c Coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// SemanticErrors returns the semantic diagnostics contained in err.
func SemanticErrors(err error) []*SemanticError {
	var out []*SemanticError
	for _, d := range Diagnostics(err) {
		if se, ok := d.(*SemanticError); ok {
			out = append(out, se)
		}
	}
	return out
}

// IsKind reports whether err contains a semantic error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return FindKind(err, kind) != nil
}

// FindKind returns the first semantic error of the given kind, or nil.
func FindKind(err error, kind ErrorKind) *SemanticError {
	for _, se := range SemanticErrors(err) {
		if se.Kind == kind {
			return se
		}
	}
	return nil
}
