package compiler

import (
	"sort"

	"cuelang.org/go/cue/errors"

	"github.com/roach88/tickflow/internal/ast"
)

// extractor collects the free global names an expression reads and checks
// each against the rules of the context the expression appears in.
//
// Block lets and function parameters shadow globals. Every resolved global
// reference is annotated in place with its symbol from the environment,
// replacing whatever annotation the identifier carried before.
type extractor struct {
	env *Env

	// forbidTemporal rejects reads of Input, Output and Register names, and
	// of combinational Locals. Set for register initializers and helper
	// bodies, which run without a tick.
	forbidTemporal bool

	scopes []map[string]bool
	deps   map[string]struct{}
	errs   errors.Error
}

// ExtractDeps returns the sorted set of global names x reads. Problems are
// merged into a single compound error.
func ExtractDeps(env *Env, x ast.Expr, forbidTemporal bool) ([]string, error) {
	return extract(env, x, forbidTemporal, nil)
}

func extract(env *Env, x ast.Expr, forbidTemporal bool, params []*ast.Field) ([]string, error) {
	ex := &extractor{
		env:            env,
		forbidTemporal: forbidTemporal,
		deps:           make(map[string]struct{}),
	}
	if params != nil {
		ex.push()
		for _, p := range params {
			ex.bind(p.Name.Name)
		}
	}
	ex.expr(x)

	deps := make([]string, 0, len(ex.deps))
	for d := range ex.deps {
		deps = append(deps, d)
	}
	sort.Strings(deps)

	if ex.errs != nil {
		return deps, ex.errs
	}
	return deps, nil
}

func (ex *extractor) push() { ex.scopes = append(ex.scopes, make(map[string]bool)) }
func (ex *extractor) pop()  { ex.scopes = ex.scopes[:len(ex.scopes)-1] }

func (ex *extractor) bind(name string) { ex.scopes[len(ex.scopes)-1][name] = true }

func (ex *extractor) isLocal(name string) bool {
	for i := len(ex.scopes) - 1; i >= 0; i-- {
		if ex.scopes[i][name] {
			return true
		}
	}
	return false
}

func (ex *extractor) report(se *SemanticError) {
	ex.errs = errors.Append(ex.errs, se)
}

func (ex *extractor) ident(id *ast.Ident) {
	if ex.isLocal(id.Name) {
		id.Sym = nil
		return
	}

	sym, ok := ex.env.Lookup(id.Name)
	if !ok {
		ex.report(newError(UndefinedVariable, id))
		return
	}

	if sym.Func {
		ex.report(newError(FunctionAsValue, id))
		return
	}

	if ex.forbidTemporal && (sym.Category.Temporal() || sym.Category == Local) {
		se := newError(LiftedTypeNotAllowed, id)
		se.Symbol = sym
		ex.report(se)
		return
	}

	ex.deps[id.Name] = struct{}{}
	id.Sym = sym
}

// callee resolves the name in call position. Only helpers can be called;
// locals never hold functions.
func (ex *extractor) callee(id *ast.Ident) {
	if ex.isLocal(id.Name) {
		id.Sym = nil
		ex.report(newError(NotCallable, id))
		return
	}

	sym, ok := ex.env.Lookup(id.Name)
	if !ok {
		ex.report(newError(UndefinedVariable, id))
		return
	}
	if !sym.Func {
		se := newError(NotCallable, id)
		se.Symbol = sym
		ex.report(se)
		return
	}

	ex.deps[id.Name] = struct{}{}
	id.Sym = sym
}

func (ex *extractor) expr(x ast.Expr) {
	switch x := x.(type) {
	case *ast.Ident:
		ex.ident(x)
	case *ast.BasicLit:
		// no names
	case *ast.UnaryExpr:
		ex.expr(x.X)
	case *ast.BinaryExpr:
		ex.expr(x.X)
		ex.expr(x.Y)
	case *ast.IfExpr:
		ex.expr(x.Cond)
		ex.expr(x.Then)
		ex.expr(x.Else)
	case *ast.CallExpr:
		ex.callee(x.Fun)
		for _, a := range x.Args {
			ex.expr(a)
		}
	case *ast.FieldExpr:
		ex.expr(x.X)
	case *ast.IndexExpr:
		ex.expr(x.X)
		ex.expr(x.Index)
	case *ast.ParenExpr:
		ex.expr(x.X)
	case *ast.TupleExpr:
		for _, e := range x.Elems {
			ex.expr(e)
		}
	case *ast.ListExpr:
		for _, e := range x.Elems {
			ex.expr(e)
		}
	case *ast.CastExpr:
		ex.expr(x.X)
	case *ast.BlockExpr:
		ex.push()
		for _, s := range x.Stmts {
			switch s := s.(type) {
			case *ast.LetStmt:
				// The initializer is analysed before its names come into
				// scope: `let x = x + 1;` reads the outer x.
				ex.expr(s.Expr)
				for _, id := range ast.PatternNames(s.Pat) {
					ex.bind(id.Name)
				}
			case *ast.ExprStmt:
				ex.expr(s.X)
			}
		}
		if x.Result != nil {
			ex.expr(x.Result)
		}
		ex.pop()
	}
}
