package cli

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tickflow/internal/compiler"
	"github.com/roach88/tickflow/internal/ir"
)

// LoadError represents an error that occurred while loading a program or
// stimulus file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants for failures outside the compiler. Compiler
// diagnostics carry their own codes (E100-E299).
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E002" // File read error
	ErrCodeStimulus    = "E003" // Stimulus has the wrong shape
	ErrCodeLoadFailed  = "E004" // CUE compile failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE value incomplete or invalid
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeDatabase    = "E008" // Trace database error
	ErrCodeQuery       = "E009" // Invalid tick query
)

// Program is a compiled source file.
type Program struct {
	Path   string
	Source []byte
	Plan   *compiler.Plan
	Hash   string
}

// LoadProgram reads and compiles the program at path. Compile diagnostics
// are returned unchanged so callers can list every one of them.
func LoadProgram(path string) (*Program, error) {
	src, err := readFile(path)
	if err != nil {
		return nil, err
	}

	plan, err := compiler.CompileSource(path, src)
	if err != nil {
		return nil, err
	}

	hash, err := plan.Hash()
	if err != nil {
		return nil, err
	}
	return &Program{Path: path, Source: src, Plan: plan, Hash: hash}, nil
}

// Stimulus is the driving data of a run: the Args of the instance and the
// inputs of each tick, in order.
//
//	args: { init: 10 }
//	ticks: [
//		{ input: 1 },
//		{ input: 2 },
//	]
type Stimulus struct {
	Args  ir.IRObject
	Ticks []ir.IRObject
}

// LoadStimulus reads a CUE stimulus file. Every value must be concrete.
// Both fields are optional; a missing ticks list means no ticks.
func LoadStimulus(path string) (*Stimulus, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading stimulus: %v", err)}
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("stimulus is not concrete: %v", err)}
	}

	stim := &Stimulus{Args: ir.IRObject{}, Ticks: []ir.IRObject{}}

	if args := value.LookupPath(cue.ParsePath("args")); args.Exists() {
		obj, err := objectFromCUE(args)
		if err != nil {
			return nil, err
		}
		stim.Args = obj
	}

	if ticks := value.LookupPath(cue.ParsePath("ticks")); ticks.Exists() {
		if ticks.Kind() != cue.ListKind {
			return nil, stimulusError(ticks, "ticks must be a list, got %v", ticks.Kind())
		}
		iter, err := ticks.List()
		if err != nil {
			return nil, stimulusError(ticks, "ticks: %v", err)
		}
		for iter.Next() {
			obj, err := objectFromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			stim.Ticks = append(stim.Ticks, obj)
		}
	}

	return stim, nil
}

// objectFromCUE converts a concrete CUE struct into an IR object.
func objectFromCUE(v cue.Value) (ir.IRObject, error) {
	if v.Kind() != cue.StructKind {
		return nil, stimulusError(v, "expected a struct of field values, got %v", v.Kind())
	}
	val, err := valueFromCUE(v)
	if err != nil {
		return nil, err
	}
	return val.(ir.IRObject), nil
}

// valueFromCUE converts a concrete CUE value into an IR value. Strings and
// null have no counterpart in the language and are rejected.
func valueFromCUE(v cue.Value) (ir.IRValue, error) {
	switch v.Kind() {
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, stimulusError(v, "%v", err)
		}
		return ir.IRBool(b), nil

	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, stimulusError(v, "%v", err)
		}
		return ir.IRInt(n), nil

	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, stimulusError(v, "%v", err)
		}
		return ir.IRFloat(f), nil

	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, stimulusError(v, "%v", err)
		}
		arr := ir.IRArray{}
		for iter.Next() {
			elem, err := valueFromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil

	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, stimulusError(v, "%v", err)
		}
		obj := ir.IRObject{}
		for iter.Next() {
			elem, err := valueFromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			obj[iter.Label()] = elem
		}
		return obj, nil
	}

	return nil, stimulusError(v, "unsupported value of kind %v", v.Kind())
}

func stimulusError(v cue.Value, format string, args ...any) *LoadError {
	return &LoadError{Code: ErrCodeStimulus, Message: fmt.Sprintf(format, args...), Pos: v.Pos()}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	return data, nil
}

// positionOf returns pos as a Position, or nil when pos is unknown.
func positionOf(pos token.Pos) any {
	if !pos.IsValid() {
		return nil
	}
	return &Position{File: pos.Filename(), Line: pos.Line(), Column: pos.Column()}
}

func readFileInfo(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	return info, nil
}
