package compiler

import (
	"fmt"

	"cuelang.org/go/cue/token"

	"github.com/roach88/tickflow/internal/ast"
)

// Structural validation error codes (E101-E199)
const (
	ErrMissingModule  = "E101" // `mod Name;` is required
	ErrMissingSection = "E102" // In and Out sections are required
	ErrDuplicateItem  = "E103" // mod/In/Out/Args may appear once
	ErrDuplicateParam = "E104" // helper parameter names must be distinct
)

// ValidationError represents a structural problem with a program.
type ValidationError struct {
	Field   string    `json:"field"`
	Message string    `json:"message"`
	Code    string    `json:"code"`
	Pos     token.Pos `json:"-"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: [%s] %s: %s", e.Pos, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Msg, Position, InputPositions and Path implement the CUE errors.Error
// interface.
func (e *ValidationError) Msg() (string, []any) {
	return "%s: %s", []any{e.Field, e.Message}
}
func (e *ValidationError) Position() token.Pos         { return e.Pos }
func (e *ValidationError) InputPositions() []token.Pos { return nil }
func (e *ValidationError) Path() []string              { return nil }

// Check validates the item structure of a program.
// Returns all errors found (does not fail-fast).
func Check(prog *ast.Program) []*ValidationError {
	var errs []*ValidationError

	var (
		mod      *ast.ModDecl
		sections = make(map[ast.SectionKind]*ast.Section)
	)

	for _, it := range prog.Items {
		switch it := it.(type) {
		case *ast.ModDecl:
			// E103: duplicated mod
			if mod != nil {
				errs = append(errs, &ValidationError{
					Field:   "mod",
					Message: fmt.Sprintf("duplicated item; module already declared as `%s`", mod.Name.Name),
					Code:    ErrDuplicateItem,
					Pos:     it.Pos(),
				})
				continue
			}
			mod = it

		case *ast.Section:
			// E103: duplicated section
			if _, dup := sections[it.Kind]; dup {
				errs = append(errs, &ValidationError{
					Field:   it.Kind.String(),
					Message: "duplicated item",
					Code:    ErrDuplicateItem,
					Pos:     it.Pos(),
				})
				continue
			}
			sections[it.Kind] = it

		case *ast.FuncDecl:
			errs = append(errs, checkParams(it)...)
		}
	}

	// E101: mod is required
	if mod == nil {
		errs = append(errs, &ValidationError{
			Field:   "mod",
			Message: "item `mod` not found",
			Code:    ErrMissingModule,
			Pos:     fileStart(prog),
		})
	}

	// E102: In and Out are required, Args is optional
	for _, kind := range []ast.SectionKind{ast.SectionIn, ast.SectionOut} {
		if _, ok := sections[kind]; !ok {
			errs = append(errs, &ValidationError{
				Field:   kind.String(),
				Message: fmt.Sprintf("item `%s` not found", kind),
				Code:    ErrMissingSection,
				Pos:     fileStart(prog),
			})
		}
	}

	return errs
}

// checkParams reports repeated parameter names in a helper function.
func checkParams(fn *ast.FuncDecl) []*ValidationError {
	var errs []*ValidationError
	seen := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		if seen[p.Name.Name] {
			errs = append(errs, &ValidationError{
				Field:   fn.Name.Name,
				Message: fmt.Sprintf("parameter `%s` declared twice", p.Name.Name),
				Code:    ErrDuplicateParam,
				Pos:     p.Pos(),
			})
			continue
		}
		seen[p.Name.Name] = true
	}
	return errs
}

// fileStart returns the position of the first item, which is the best
// anchor for "missing item" diagnostics.
func fileStart(prog *ast.Program) token.Pos {
	if len(prog.Items) > 0 {
		return prog.Items[0].Pos()
	}
	return token.NoPos
}
