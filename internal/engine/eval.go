package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/tickflow/internal/ast"
	"github.com/roach88/tickflow/internal/compiler"
)

// maxCallDepth bounds helper nesting. Recursion is rejected at compile time,
// so only pathological call chains reach it.
const maxCallDepth = 256

// evaluator evaluates expressions against one tick's state. Globals are
// resolved through the symbols the compiler attached to identifiers.
type evaluator struct {
	plan *compiler.Plan

	args   map[string]Value
	inputs map[string]Value
	comb   map[string]Value // combinational values assigned so far this tick
	regs   []Value          // pre-tick register storage

	scopes []map[string]Value
	depth  int
}

func (ev *evaluator) push() { ev.scopes = append(ev.scopes, make(map[string]Value)) }
func (ev *evaluator) pop()  { ev.scopes = ev.scopes[:len(ev.scopes)-1] }

func (ev *evaluator) bind(name string, v Value) { ev.scopes[len(ev.scopes)-1][name] = v }

func (ev *evaluator) local(name string) (Value, bool) {
	for i := len(ev.scopes) - 1; i >= 0; i-- {
		if v, ok := ev.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (ev *evaluator) ident(id *ast.Ident) (Value, error) {
	if v, ok := ev.local(id.Name); ok {
		return v, nil
	}

	sym := id.Sym
	if sym == nil {
		var ok bool
		if sym, ok = ev.plan.Env.Lookup(id.Name); !ok {
			return nil, fmt.Errorf("%w: unresolved name %q", compiler.ErrInternal, id.Name)
		}
	}

	var (
		v  Value
		ok bool
	)
	switch sym.Category {
	case compiler.Args:
		v, ok = ev.args[id.Name]
	case compiler.Input:
		v, ok = ev.inputs[id.Name]
	case compiler.Register:
		if slot, has := ev.plan.Slots[id.Name]; has && slot < len(ev.regs) {
			v, ok = ev.regs[slot], true
		}
	case compiler.Local, compiler.Output:
		if sym.Func {
			return nil, typeMismatch(id.Pos(), "helper `%s` used as a value", id.Name)
		}
		v, ok = ev.comb[id.Name]
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s `%s` read before it was assigned", compiler.ErrInternal, sym, id.Name)
	}
	return v, nil
}

func (ev *evaluator) eval(x ast.Expr) (Value, error) {
	switch x := x.(type) {
	case *ast.Ident:
		return ev.ident(x)

	case *ast.BasicLit:
		return literal(x)

	case *ast.ParenExpr:
		return ev.eval(x.X)

	case *ast.UnaryExpr:
		v, err := ev.eval(x.X)
		if err != nil {
			return nil, err
		}
		return unaryOp(x.Op, v, x.Pos())

	case *ast.BinaryExpr:
		return ev.binary(x)

	case *ast.IfExpr:
		c, err := ev.eval(x.Cond)
		if err != nil {
			return nil, err
		}
		b, ok := c.(Bool)
		if !ok {
			return nil, typeMismatch(x.Cond.Pos(), "condition must be Bool, found %s", c.Kind())
		}
		if b {
			return ev.eval(x.Then)
		}
		return ev.eval(x.Else)

	case *ast.CallExpr:
		return ev.call(x)

	case *ast.FieldExpr:
		v, err := ev.eval(x.X)
		if err != nil {
			return nil, err
		}
		return field(v, x)

	case *ast.IndexExpr:
		v, err := ev.eval(x.X)
		if err != nil {
			return nil, err
		}
		i, err := ev.eval(x.Index)
		if err != nil {
			return nil, err
		}
		return index(v, i, x)

	case *ast.TupleExpr:
		elems, err := ev.evalAll(x.Elems)
		if err != nil {
			return nil, err
		}
		return Tuple(elems), nil

	case *ast.ListExpr:
		elems, err := ev.evalAll(x.Elems)
		if err != nil {
			return nil, err
		}
		return List(elems), nil

	case *ast.CastExpr:
		v, err := ev.eval(x.X)
		if err != nil {
			return nil, err
		}
		return coerce(v, x.Type, !x.Ascription, x.Pos())

	case *ast.BlockExpr:
		return ev.block(x)
	}
	return nil, fmt.Errorf("%w: unexpected expression %T", compiler.ErrInternal, x)
}

func (ev *evaluator) evalAll(xs []ast.Expr) ([]Value, error) {
	out := make([]Value, len(xs))
	for i, x := range xs {
		v, err := ev.eval(x)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (ev *evaluator) binary(x *ast.BinaryExpr) (Value, error) {
	l, err := ev.eval(x.X)
	if err != nil {
		return nil, err
	}

	if x.Op == ast.OpAnd || x.Op == ast.OpOr {
		lb, ok := l.(Bool)
		if !ok {
			return nil, typeMismatch(x.OpPos, "cannot apply `%s` to %s", x.Op, l.Kind())
		}
		if (x.Op == ast.OpAnd && !bool(lb)) || (x.Op == ast.OpOr && bool(lb)) {
			return lb, nil
		}
		r, err := ev.eval(x.Y)
		if err != nil {
			return nil, err
		}
		rb, ok := r.(Bool)
		if !ok {
			return nil, typeMismatch(x.OpPos, "cannot apply `%s` to %s", x.Op, r.Kind())
		}
		return rb, nil
	}

	r, err := ev.eval(x.Y)
	if err != nil {
		return nil, err
	}
	return binaryOp(x.Op, l, r, x.OpPos)
}

// call evaluates a helper in a fresh scope holding only its parameters.
func (ev *evaluator) call(x *ast.CallExpr) (Value, error) {
	fn, ok := ev.plan.Func(x.Fun.Name)
	if !ok {
		return nil, typeMismatch(x.Pos(), "`%s` is not a function", x.Fun.Name)
	}
	if len(x.Args) != len(fn.Params) {
		return nil, newRuntimeError(ErrCodeArity, x.Pos(),
			"`%s` takes %d arguments, %d given", fn.Name.Name, len(fn.Params), len(x.Args))
	}
	if ev.depth >= maxCallDepth {
		return nil, fmt.Errorf("%w: call depth exceeded in `%s`", compiler.ErrInternal, fn.Name.Name)
	}

	frame := make(map[string]Value, len(fn.Params))
	for i, a := range x.Args {
		v, err := ev.eval(a)
		if err != nil {
			return nil, err
		}
		p := fn.Params[i]
		if v, err = coerce(v, p.Type, false, a.Pos()); err != nil {
			return nil, err
		}
		frame[p.Name.Name] = v
	}

	saved := ev.scopes
	ev.scopes = []map[string]Value{frame}
	ev.depth++
	v, err := ev.eval(fn.Body)
	ev.depth--
	ev.scopes = saved
	if err != nil {
		return nil, err
	}
	return coerce(v, fn.Result, false, fn.Body.Pos())
}

func (ev *evaluator) block(x *ast.BlockExpr) (Value, error) {
	ev.push()
	defer ev.pop()

	for _, s := range x.Stmts {
		switch s := s.(type) {
		case *ast.LetStmt:
			v, err := ev.eval(s.Expr)
			if err != nil {
				return nil, err
			}
			if s.Type != nil {
				if v, err = coerce(v, s.Type, false, s.Pos()); err != nil {
					return nil, err
				}
			}
			if err := ev.bindPattern(s.Pat, v); err != nil {
				return nil, err
			}
		case *ast.ExprStmt:
			if _, err := ev.eval(s.X); err != nil {
				return nil, err
			}
		}
	}
	if x.Result == nil {
		return Unit, nil
	}
	return ev.eval(x.Result)
}

func (ev *evaluator) bindPattern(p ast.Pattern, v Value) error {
	switch p := p.(type) {
	case *ast.Ident:
		ev.bind(p.Name, v)
	case *ast.WildPat:
	case *ast.TuplePat:
		var elems []Value
		switch v := v.(type) {
		case Tuple:
			elems = v
		case List:
			elems = v
		default:
			return typeMismatch(p.Pos(), "cannot destructure %s with %s", v.Kind(), p)
		}
		if len(elems) != len(p.Elems) {
			return typeMismatch(p.Pos(), "pattern %s has %d elements, value has %d", p, len(p.Elems), len(elems))
		}
		for i, sub := range p.Elems {
			if err := ev.bindPattern(sub, elems[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func literal(x *ast.BasicLit) (Value, error) {
	switch x.Kind {
	case ast.IntLit:
		s := strings.ReplaceAll(x.Value, "_", "")
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			u, uerr := strconv.ParseUint(s, 0, 64)
			if uerr != nil {
				return nil, typeMismatch(x.Pos(), "integer literal %s out of range", x.Value)
			}
			n = int64(u)
		}
		return Int(n), nil
	case ast.FloatLit:
		f, err := strconv.ParseFloat(strings.ReplaceAll(x.Value, "_", ""), 64)
		if err != nil {
			return nil, typeMismatch(x.Pos(), "invalid float literal %s", x.Value)
		}
		return Float(f), nil
	case ast.BoolLit:
		return Bool(x.Value == "True"), nil
	}
	return nil, fmt.Errorf("%w: unknown literal kind %d", compiler.ErrInternal, x.Kind)
}

func field(v Value, x *ast.FieldExpr) (Value, error) {
	t, ok := v.(Tuple)
	if !ok {
		return nil, typeMismatch(x.DotPos, "no field `%s` on %s", x.Name, v.Kind())
	}
	i, err := strconv.Atoi(x.Name)
	if err != nil {
		return nil, newRuntimeError(ErrCodeUnknownField, x.DotPos, "tuple has no field `%s`", x.Name)
	}
	if i < 0 || i >= len(t) {
		return nil, newRuntimeError(ErrCodeIndexOutOfRange, x.DotPos, "field .%d of a tuple of %d elements", i, len(t))
	}
	return t[i], nil
}

func index(v, i Value, x *ast.IndexExpr) (Value, error) {
	n, ok := i.(Int)
	if !ok {
		return nil, typeMismatch(x.Index.Pos(), "index must be Int, found %s", i.Kind())
	}
	var elems []Value
	switch v := v.(type) {
	case List:
		elems = v
	case Tuple:
		elems = v
	default:
		return nil, typeMismatch(x.Lbrack, "cannot index %s", v.Kind())
	}
	if n < 0 || int64(n) >= int64(len(elems)) {
		return nil, newRuntimeError(ErrCodeIndexOutOfRange, x.Lbrack, "index %d out of range for length %d", n, len(elems))
	}
	return elems[n], nil
}
