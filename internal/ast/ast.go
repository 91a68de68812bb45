// Package ast defines the syntax tree of tickflow programs.
//
// The tree is produced by package syntax and annotated in place by package
// compiler: every global identifier reference gets its resolved Symbol. After
// compilation the tree is treated as read-only by the engine.
//
// Every node carries a cue token.Pos so diagnostics point at file:line:col.
package ast

import (
	"cuelang.org/go/cue/token"
)

// Node is implemented by every syntax tree node.
type Node interface {
	Pos() token.Pos
}

// Program is a parsed source file. Items are kept in source order, including
// duplicated sections, so structural validation can report them.
type Program struct {
	Filename string
	Items    []Item
}

// Item is a top-level declaration.
type Item interface {
	Node
	itemNode()
}

// ModDecl is `mod Name;`.
type ModDecl struct {
	ModPos token.Pos
	Name   *Ident
}

// SectionKind distinguishes the three field sections.
type SectionKind uint8

const (
	SectionIn SectionKind = iota
	SectionOut
	SectionArgs
)

var sectionNames = [...]string{
	SectionIn:   "In",
	SectionOut:  "Out",
	SectionArgs: "Args",
}

func (k SectionKind) String() string { return sectionNames[k] }

// Section is `In { ... }`, `Out { ... }` or `Args { ... }`.
type Section struct {
	KindPos token.Pos
	Kind    SectionKind
	Fields  []*Field
}

// Field is a `name: Type` pair. It is also used for function parameters.
type Field struct {
	Name *Ident
	Type Type
}

// FuncDecl is `fn name(a: T, ...) -> T = expr;`.
type FuncDecl struct {
	FnPos  token.Pos
	Name   *Ident
	Params []*Field
	Result Type
	Body   Expr
}

// Equation is a global binding: either combinational or a register.
type Equation interface {
	Item
	LHS() *Ident
}

// CombEq is `let name = expr;` or `let name: T = expr;`.
type CombEq struct {
	LetPos token.Pos
	Name   *Ident
	Type   Type // optional ascription, nil when absent
	Expr   Expr
}

// RegisterEq is `let name: T <- delay init -< next;`.
type RegisterEq struct {
	LetPos token.Pos
	Name   *Ident
	Type   Type
	Init   Expr
	Next   Expr
}

func (d *ModDecl) Pos() token.Pos    { return d.ModPos }
func (s *Section) Pos() token.Pos    { return s.KindPos }
func (f *Field) Pos() token.Pos      { return f.Name.Pos() }
func (d *FuncDecl) Pos() token.Pos   { return d.FnPos }
func (e *CombEq) Pos() token.Pos     { return e.LetPos }
func (e *RegisterEq) Pos() token.Pos { return e.LetPos }

func (*ModDecl) itemNode()    {}
func (*Section) itemNode()    {}
func (*FuncDecl) itemNode()   {}
func (*CombEq) itemNode()     {}
func (*RegisterEq) itemNode() {}

func (e *CombEq) LHS() *Ident     { return e.Name }
func (e *RegisterEq) LHS() *Ident { return e.Name }

// Module returns the first module declaration, or nil.
func (p *Program) Module() *ModDecl {
	for _, it := range p.Items {
		if m, ok := it.(*ModDecl); ok {
			return m
		}
	}
	return nil
}

// Section returns the first section of the given kind, or nil.
func (p *Program) Section(kind SectionKind) *Section {
	for _, it := range p.Items {
		if s, ok := it.(*Section); ok && s.Kind == kind {
			return s
		}
	}
	return nil
}

// Fields returns the fields of the first section of the given kind.
// A missing section yields no fields.
func (p *Program) Fields(kind SectionKind) []*Field {
	if s := p.Section(kind); s != nil {
		return s.Fields
	}
	return nil
}

// Funcs returns the helper function declarations in source order.
func (p *Program) Funcs() []*FuncDecl {
	var out []*FuncDecl
	for _, it := range p.Items {
		if f, ok := it.(*FuncDecl); ok {
			out = append(out, f)
		}
	}
	return out
}

// Equations returns the global equations in source order.
func (p *Program) Equations() []Equation {
	var out []Equation
	for _, it := range p.Items {
		if eq, ok := it.(Equation); ok {
			out = append(out, eq)
		}
	}
	return out
}
