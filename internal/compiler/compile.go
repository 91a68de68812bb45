// Package compiler performs semantic analysis and scheduling of tickflow
// programs.
//
// The pipeline is:
//
//	Check -> BuildEnv -> ExtractDeps (per equation) -> TopoSort x3 -> assemble
//
// Diagnostics are accumulated rather than fail-fast: every structural and
// environment problem is reported, extraction runs over every equation even
// when the environment is invalid, and sorting runs only once everything
// before it succeeded. All diagnostics implement the CUE errors.Error
// interface and are merged into one compound error; use Diagnostics to
// flatten it.
package compiler

import (
	"log/slog"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tickflow/internal/ast"
	"github.com/roach88/tickflow/internal/syntax"
)

// CompileSource parses and compiles one source file.
func CompileSource(filename string, src []byte) (*Plan, error) {
	prog, err := syntax.Parse(filename, src)
	if err != nil {
		return nil, err
	}
	return Compile(prog)
}

// Compile analyses prog and returns its evaluation plan.
//
// Compile annotates prog in place: every resolved global identifier gets its
// Symbol. The program must not be modified afterwards.
func Compile(prog *ast.Program) (*Plan, error) {
	var errs errors.Error

	for _, ve := range Check(prog) {
		errs = errors.Append(errs, ve)
	}

	env, err := BuildEnv(prog)
	errs = appendAll(errs, err)

	slog.Debug("environment built", "file", prog.Filename, "names", env.Len())

	var (
		funcGraph = make(map[string][]string)
		combGraph = make(map[string][]string)
		regGraph  = make(map[string][]string)
		deps      = make(map[string][]string)
		declPos   = make(map[string]token.Pos)
	)

	// Helper bodies see their parameters, Args and other helpers only.
	for _, fn := range prog.Funcs() {
		d, err := extract(env, fn.Body, true, fn.Params)
		errs = appendAll(errs, err)
		funcGraph[fn.Name.Name] = d
		declPos[fn.Name.Name] = fn.Name.Pos()
	}

	for _, eq := range prog.Equations() {
		lhs := eq.LHS()
		if sym, ok := env.Lookup(lhs.Name); ok {
			lhs.Sym = sym
		}
		declPos[lhs.Name] = lhs.Pos()

		switch eq := eq.(type) {
		case *ast.CombEq:
			d, err := extract(env, eq.Expr, false, nil)
			errs = appendAll(errs, err)
			combGraph[lhs.Name] = d
			deps[lhs.Name] = d

		case *ast.RegisterEq:
			_, err := extract(env, eq.Init, true, nil)
			errs = appendAll(errs, err)

			d, err := extract(env, eq.Next, false, nil)
			errs = appendAll(errs, err)
			deps[lhs.Name] = d

			// Reading the register's own pre-tick value is not an edge.
			var edges []string
			for _, n := range d {
				if n != lhs.Name {
					edges = append(edges, n)
				}
			}
			regGraph[lhs.Name] = edges
		}
	}

	if errs != nil {
		return nil, errs
	}

	sortGraph := func(g map[string][]string) []string {
		order, err := TopoSort(g)
		if err != nil {
			var ce *CycleError
			if errors.As(err, &ce) {
				errs = errors.Append(errs, &SemanticError{
					Kind:  CyclicDependency,
					Name:  ce.Node,
					Pos:   declPos[ce.Node],
					Cycle: ce.Path,
				})
			}
		}
		return order
	}

	sortGraph(funcGraph)
	combOrder := sortGraph(combGraph)
	regOrder := sortGraph(regGraph)
	if errs != nil {
		return nil, errs
	}

	slog.Debug("equations ordered",
		"module", moduleName(prog),
		"equations", len(combOrder),
		"registers", len(regOrder))

	return assemble(prog, env, combOrder, regOrder, deps)
}

func appendAll(dst errors.Error, err error) errors.Error {
	for _, e := range errors.Errors(err) {
		dst = errors.Append(dst, e)
	}
	return dst
}

func moduleName(prog *ast.Program) string {
	if m := prog.Module(); m != nil {
		return m.Name.Name
	}
	return ""
}
