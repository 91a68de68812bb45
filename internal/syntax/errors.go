package syntax

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// ErrSyntax is the diagnostic code of every syntax error.
const ErrSyntax = "E100"

// Error is a syntax error at a source position. It implements the CUE
// errors.Error interface so it prints and merges like every other
// diagnostic in the toolchain.
type Error struct {
	Pos    token.Pos
	Format string
	Args   []any
}

func (e *Error) Error() string {
	msg := fmt.Sprintf(e.Format, e.Args...)
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: [%s] %s", e.Pos, ErrSyntax, msg)
	}
	return fmt.Sprintf("[%s] %s", ErrSyntax, msg)
}

// Code returns the diagnostic code.
func (e *Error) Code() string { return ErrSyntax }

func (e *Error) Position() token.Pos         { return e.Pos }
func (e *Error) InputPositions() []token.Pos { return nil }
func (e *Error) Path() []string              { return nil }
func (e *Error) Msg() (string, []any)        { return e.Format, e.Args }
