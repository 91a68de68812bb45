package ast

import (
	"cuelang.org/go/cue/token"
)

// Expr is implemented by every expression node.
type Expr interface {
	Node
	String() string
	exprNode()
}

// Ident is a name reference. Sym is set by the compiler for references to
// global names and stays nil for block locals and function parameters.
type Ident struct {
	NamePos token.Pos
	Name    string
	Sym     *Symbol
}

// LitKind is the kind of a literal.
type LitKind uint8

const (
	IntLit LitKind = iota
	FloatLit
	BoolLit
)

// BasicLit is an integer, float or boolean literal. Value holds the source
// spelling ("42", "0.5", "True").
type BasicLit struct {
	ValuePos token.Pos
	Kind     LitKind
	Value    string
}

// UnaryExpr is `!x` or `-x`.
type UnaryExpr struct {
	OpPos token.Pos
	Op    Op
	X     Expr
}

// BinaryExpr is `x op y`.
type BinaryExpr struct {
	X     Expr
	OpPos token.Pos
	Op    Op
	Y     Expr
}

// IfExpr is `if cond then a else b`.
type IfExpr struct {
	IfPos token.Pos
	Cond  Expr
	Then  Expr
	Else  Expr
}

// CallExpr is `f(a, b)`. Only plain identifiers are callable.
type CallExpr struct {
	Fun    *Ident
	Lparen token.Pos
	Args   []Expr
}

// FieldExpr is `x.name` or `x.0`.
type FieldExpr struct {
	X      Expr
	DotPos token.Pos
	Name   string
}

// IndexExpr is `x[i]`.
type IndexExpr struct {
	X      Expr
	Lbrack token.Pos
	Index  Expr
}

// ParenExpr is `(x)`.
type ParenExpr struct {
	Lparen token.Pos
	X      Expr
}

// TupleExpr is `(a, b, ...)`. The empty tuple `()` is allowed.
type TupleExpr struct {
	Lparen token.Pos
	Elems  []Expr
}

// ListExpr is `[a, b, ...]`.
type ListExpr struct {
	Lbrack token.Pos
	Elems  []Expr
}

// BlockExpr is `{ let x = e; ...; result }`.
type BlockExpr struct {
	Lbrace token.Pos
	Stmts  []Stmt
	Result Expr
}

// CastExpr is `x as T` or, when Ascription is set, `x: T`.
type CastExpr struct {
	X          Expr
	OpPos      token.Pos
	Type       Type
	Ascription bool
}

func (x *Ident) Pos() token.Pos      { return x.NamePos }
func (x *BasicLit) Pos() token.Pos   { return x.ValuePos }
func (x *UnaryExpr) Pos() token.Pos  { return x.OpPos }
func (x *BinaryExpr) Pos() token.Pos { return x.X.Pos() }
func (x *IfExpr) Pos() token.Pos     { return x.IfPos }
func (x *CallExpr) Pos() token.Pos   { return x.Fun.Pos() }
func (x *FieldExpr) Pos() token.Pos  { return x.X.Pos() }
func (x *IndexExpr) Pos() token.Pos  { return x.X.Pos() }
func (x *ParenExpr) Pos() token.Pos  { return x.Lparen }
func (x *TupleExpr) Pos() token.Pos  { return x.Lparen }
func (x *ListExpr) Pos() token.Pos   { return x.Lbrack }
func (x *BlockExpr) Pos() token.Pos  { return x.Lbrace }
func (x *CastExpr) Pos() token.Pos   { return x.X.Pos() }

func (*Ident) exprNode()      {}
func (*BasicLit) exprNode()   {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}
func (*IfExpr) exprNode()     {}
func (*CallExpr) exprNode()   {}
func (*FieldExpr) exprNode()  {}
func (*IndexExpr) exprNode()  {}
func (*ParenExpr) exprNode()  {}
func (*TupleExpr) exprNode()  {}
func (*ListExpr) exprNode()   {}
func (*BlockExpr) exprNode()  {}
func (*CastExpr) exprNode()   {}

// Stmt is a statement inside a block expression.
type Stmt interface {
	Node
	stmtNode()
}

// LetStmt is `let pat = expr;` or `let pat: T = expr;` inside a block.
type LetStmt struct {
	LetPos token.Pos
	Pat    Pattern
	Type   Type
	Expr   Expr
}

// ExprStmt is an expression evaluated for no value, `expr;`.
type ExprStmt struct {
	X Expr
}

func (s *LetStmt) Pos() token.Pos  { return s.LetPos }
func (s *ExprStmt) Pos() token.Pos { return s.X.Pos() }

func (*LetStmt) stmtNode()  {}
func (*ExprStmt) stmtNode() {}

// Pattern is the left side of a block let.
type Pattern interface {
	Node
	String() string
	patNode()
}

// WildPat is `_`.
type WildPat struct {
	UnderscorePos token.Pos
}

// TuplePat is `(a, _, (b, c))`.
type TuplePat struct {
	Lparen token.Pos
	Elems  []Pattern
}

func (p *WildPat) Pos() token.Pos  { return p.UnderscorePos }
func (p *TuplePat) Pos() token.Pos { return p.Lparen }

func (*Ident) patNode()    {}
func (*WildPat) patNode()  {}
func (*TuplePat) patNode() {}

// PatternNames returns the names bound by a pattern, left to right.
func PatternNames(p Pattern) []*Ident {
	switch p := p.(type) {
	case *Ident:
		return []*Ident{p}
	case *TuplePat:
		var out []*Ident
		for _, e := range p.Elems {
			out = append(out, PatternNames(e)...)
		}
		return out
	}
	return nil
}
