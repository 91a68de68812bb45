package ast

import (
	"strings"
)

// The String methods render expressions back to surface syntax. Binary and
// unary expressions are always parenthesized, so the output is unambiguous
// and stable across runs; plan dumps and plan hashes depend on that.

func (x *Ident) String() string    { return x.Name }
func (x *BasicLit) String() string { return x.Value }

func (x *UnaryExpr) String() string {
	return "(" + x.Op.String() + x.X.String() + ")"
}

func (x *BinaryExpr) String() string {
	return "(" + x.X.String() + " " + x.Op.String() + " " + x.Y.String() + ")"
}

func (x *IfExpr) String() string {
	return "if " + x.Cond.String() + " then " + x.Then.String() + " else " + x.Else.String()
}

func (x *CallExpr) String() string {
	return x.Fun.Name + "(" + joinExprs(x.Args) + ")"
}

func (x *FieldExpr) String() string { return x.X.String() + "." + x.Name }

func (x *IndexExpr) String() string {
	return x.X.String() + "[" + x.Index.String() + "]"
}

// ParenExpr prints its operand only; the operand brings its own brackets
// when it needs them.
func (x *ParenExpr) String() string { return x.X.String() }

func (x *TupleExpr) String() string {
	if len(x.Elems) == 1 {
		return "(" + x.Elems[0].String() + ",)"
	}
	return "(" + joinExprs(x.Elems) + ")"
}

func (x *ListExpr) String() string { return "[" + joinExprs(x.Elems) + "]" }

func (x *BlockExpr) String() string {
	var b strings.Builder
	b.WriteString("{ ")
	for _, s := range x.Stmts {
		switch s := s.(type) {
		case *LetStmt:
			b.WriteString("let ")
			b.WriteString(s.Pat.String())
			if s.Type != nil {
				b.WriteString(": ")
				b.WriteString(s.Type.String())
			}
			b.WriteString(" = ")
			b.WriteString(s.Expr.String())
		case *ExprStmt:
			b.WriteString(s.X.String())
		}
		b.WriteString("; ")
	}
	if x.Result != nil {
		b.WriteString(x.Result.String())
		b.WriteString(" ")
	}
	b.WriteString("}")
	return b.String()
}

func (x *CastExpr) String() string {
	if x.Ascription {
		return "(" + x.X.String() + ": " + x.Type.String() + ")"
	}
	return "(" + x.X.String() + " as " + x.Type.String() + ")"
}

func (p *WildPat) String() string { return "_" }

func (p *TuplePat) String() string {
	parts := make([]string, len(p.Elems))
	for i, e := range p.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func joinExprs(xs []Expr) string {
	parts := make([]string, len(xs))
	for i, e := range xs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
