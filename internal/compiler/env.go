package compiler

import (
	"sort"

	"cuelang.org/go/cue/errors"

	"github.com/roach88/tickflow/internal/ast"
)

// Category is the temporal category of a global name.
type Category = ast.Category

const (
	Args     = ast.Args
	Input    = ast.Input
	Output   = ast.Output
	Local    = ast.Local
	Register = ast.Register
)

// Env is the global symbol table of one module.
type Env struct {
	syms map[string]*ast.Symbol
}

// NewEnv returns an empty environment.
func NewEnv() *Env {
	return &Env{syms: make(map[string]*ast.Symbol)}
}

// Lookup returns the symbol bound to name.
func (e *Env) Lookup(name string) (*ast.Symbol, bool) {
	s, ok := e.syms[name]
	return s, ok
}

// Names returns every global name in lexicographic order.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.syms))
	for n := range e.syms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of global names.
func (e *Env) Len() int { return len(e.syms) }

// define binds a new symbol, reporting MultipleDefinition at id when the
// name is taken.
func (e *Env) define(id *ast.Ident, sym *ast.Symbol) *SemanticError {
	if _, ok := e.syms[id.Name]; ok {
		return newError(MultipleDefinition, id)
	}
	sym.Name = id.Name
	sym.DeclPos = id.Pos()
	e.syms[id.Name] = sym
	return nil
}

// BuildEnv builds the global symbol table of prog.
//
// Names are inserted in a fixed order: Args fields, In fields, helper
// functions, equation left-hand sides. Out fields are then resolved against
// the table: each must name a combinational equation, which is reclassified
// as Output with the declared field type.
//
// Every problem is reported; the returned environment is usable for
// further analysis even when err is non-nil.
func BuildEnv(prog *ast.Program) (*Env, error) {
	env := NewEnv()
	var errs errors.Error

	add := func(id *ast.Ident, sym *ast.Symbol) {
		if se := env.define(id, sym); se != nil {
			errs = errors.Append(errs, se)
		}
	}

	for _, f := range prog.Fields(ast.SectionArgs) {
		add(f.Name, &ast.Symbol{Category: Args, Type: f.Type})
	}
	for _, f := range prog.Fields(ast.SectionIn) {
		add(f.Name, &ast.Symbol{Category: Input, Type: f.Type})
	}
	for _, fn := range prog.Funcs() {
		add(fn.Name, &ast.Symbol{Category: Local, Type: fn.Result, Func: true})
	}
	for _, eq := range prog.Equations() {
		switch eq := eq.(type) {
		case *ast.CombEq:
			// eq.Type is nil unless ascribed, leaving the name unresolved.
			add(eq.Name, &ast.Symbol{Category: Local, Type: eq.Type})
		case *ast.RegisterEq:
			add(eq.Name, &ast.Symbol{Category: Register, Type: eq.Type})
		}
	}

	for _, f := range prog.Fields(ast.SectionOut) {
		sym, ok := env.Lookup(f.Name.Name)
		switch {
		case !ok:
			errs = errors.Append(errs, newError(NotCalculated, f.Name))
		case sym.Category == Register:
			errs = errors.Append(errs, newError(CellAsOutput, f.Name))
		case sym.Category == Local && !sym.Func:
			sym.Category = Output
			sym.Type = f.Type
		default:
			// Args, Input, a helper, or an Out field listed twice.
			errs = errors.Append(errs, newError(MultipleDefinition, f.Name))
		}
	}

	if errs != nil {
		return env, errs
	}
	return env, nil
}
