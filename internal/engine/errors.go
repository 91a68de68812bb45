package engine

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
)

// RuntimeError represents an error detected while evaluating a tick.
//
// A tick that fails with a RuntimeError commits nothing: register storage,
// the published outputs and the tick counter are left as they were.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Name is the equation, register or field being evaluated.
	Name string

	// Tick is the 1-based number of the failing tick, 0 during construction.
	Tick int64

	// Pos is the source position of the failing expression, if known.
	Pos token.Pos
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeTypeMismatch indicates an operand of the wrong kind.
	ErrCodeTypeMismatch RuntimeErrorCode = "TYPE_MISMATCH"

	// ErrCodeDivisionByZero indicates integer division or remainder by zero.
	ErrCodeDivisionByZero RuntimeErrorCode = "DIVISION_BY_ZERO"

	// ErrCodeIndexOutOfRange indicates a tuple or list access past its end.
	ErrCodeIndexOutOfRange RuntimeErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeMissingInput indicates an Args or In field without a value.
	ErrCodeMissingInput RuntimeErrorCode = "MISSING_INPUT"

	// ErrCodeUnknownField indicates a value for a field that is not declared,
	// or access to a tuple field that does not exist.
	ErrCodeUnknownField RuntimeErrorCode = "UNKNOWN_FIELD"

	// ErrCodeArity indicates a helper call with the wrong number of arguments.
	ErrCodeArity RuntimeErrorCode = "ARITY"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	var where string
	if e.Pos.IsValid() {
		where = e.Pos.String() + ": "
	}
	switch {
	case e.Name != "" && e.Tick > 0:
		return fmt.Sprintf("%s%s: %s (name=%s, tick=%d)", where, e.Code, e.Message, e.Name, e.Tick)
	case e.Name != "":
		return fmt.Sprintf("%s%s: %s (name=%s)", where, e.Code, e.Message, e.Name)
	}
	return fmt.Sprintf("%s%s: %s", where, e.Code, e.Message)
}

// IsCode reports whether err is a RuntimeError with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

func newRuntimeError(code RuntimeErrorCode, pos token.Pos, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
	}
}

func typeMismatch(pos token.Pos, format string, args ...any) *RuntimeError {
	return newRuntimeError(ErrCodeTypeMismatch, pos, format, args...)
}

// annotate fills in the evaluation context of a RuntimeError that does not
// carry one yet.
func annotate(err error, name string, tick int64) error {
	var re *RuntimeError
	if errors.As(err, &re) {
		if re.Name == "" {
			re.Name = name
		}
		if re.Tick == 0 {
			re.Tick = tick
		}
	}
	return err
}
