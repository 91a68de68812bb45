// Package syntax parses tickflow source text into an ast.Program.
//
// The parser is a hand-written recursive descent parser with precedence
// climbing for binary operators. It stops at the first error and reports
// it as an *Error carrying a CUE token position.
//
// The scanner always reads `<-` as the register arrow. Inside an expression
// the parser splits it back into `<` followed by unary `-`, so `x<-1`
// compares x with -1.
package syntax

import (
	"strconv"

	"cuelang.org/go/cue/token"

	"github.com/roach88/tickflow/internal/ast"
)

// Parse parses a complete source file.
func Parse(filename string, src []byte) (prog *ast.Program, err error) {
	file := token.NewFile(filename, 0, len(src))
	file.SetLinesForContent(src)

	p := &parser{
		file: file,
		sc:   scanner{src: src},
	}

	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			prog, err = nil, b.err
		}
	}()

	p.next()
	prog = &ast.Program{Filename: filename}
	for p.tok != tEOF {
		prog.Items = append(prog.Items, p.parseItem())
	}
	return prog, nil
}

// ParseExpr parses a single expression. It is used by tests and by tools
// that evaluate expressions outside a program.
func ParseExpr(src string) (x ast.Expr, err error) {
	file := token.NewFile("<expr>", 0, len(src))
	file.SetLinesForContent([]byte(src))
	p := &parser{file: file, sc: scanner{src: []byte(src)}}

	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			x, err = nil, b.err
		}
	}()

	p.next()
	x = p.parseExpr()
	p.expect(tEOF)
	return x, nil
}

type bailout struct{ err *Error }

type parser struct {
	file *token.File
	sc   scanner

	tok tokKind
	lit string
	off int

	// pending is a token split off the current one, returned by the next
	// call to next before scanning resumes.
	pending *scanned
}

func (p *parser) next() {
	if s := p.pending; s != nil {
		p.pending = nil
		p.tok, p.lit, p.off = s.kind, s.lit, s.off
		return
	}
	s := p.sc.scan()
	p.tok, p.lit, p.off = s.kind, s.lit, s.off
}

// splitArrow turns a `<-` in operator position into `<` and a pending `-`.
func (p *parser) splitArrow() {
	p.pending = &scanned{kind: tSUB, off: p.off + 1}
	p.tok = tLT
}

func (p *parser) pos() token.Pos { return p.file.Pos(p.off, token.NoRelPos) }

func (p *parser) errorf(pos token.Pos, format string, args ...any) {
	panic(bailout{&Error{Pos: pos, Format: format, Args: args}})
}

func (p *parser) found() string {
	switch p.tok {
	case tIDENT:
		return "identifier `" + p.lit + "`"
	case tINT, tFLOAT:
		return "literal `" + p.lit + "`"
	case tILLEGAL:
		return "illegal character " + strconv.Quote(p.lit)
	}
	return p.tok.String()
}

func (p *parser) errorExpected(what string) {
	p.errorf(p.pos(), "expected %s, found %s", what, p.found())
}

func (p *parser) expect(k tokKind) token.Pos {
	pos := p.pos()
	if p.tok != k {
		p.errorExpected(k.String())
	}
	p.next()
	return pos
}

func (p *parser) got(k tokKind) bool {
	if p.tok == k {
		p.next()
		return true
	}
	return false
}

// parseIdent parses a name. The wildcard `_` is not a name.
func (p *parser) parseIdent() *ast.Ident {
	pos := p.pos()
	if p.tok != tIDENT {
		p.errorExpected("identifier")
	}
	if p.lit == "_" {
		p.errorf(pos, "`_` is not a valid name here")
	}
	id := &ast.Ident{NamePos: pos, Name: p.lit}
	p.next()
	return id
}

// ---------------------------------------------------------------------------
// Items

func (p *parser) parseItem() ast.Item {
	switch p.tok {
	case tMOD:
		pos := p.pos()
		p.next()
		name := p.parseIdent()
		p.expect(tSEMI)
		return &ast.ModDecl{ModPos: pos, Name: name}
	case tFN:
		return p.parseFunc()
	case tLET:
		return p.parseEquation()
	case tIDENT:
		var kind ast.SectionKind
		switch p.lit {
		case "In":
			kind = ast.SectionIn
		case "Out":
			kind = ast.SectionOut
		case "Args":
			kind = ast.SectionArgs
		default:
			p.errorExpected("item")
		}
		return p.parseSection(kind)
	}
	p.errorExpected("item")
	return nil
}

func (p *parser) parseSection(kind ast.SectionKind) *ast.Section {
	sec := &ast.Section{KindPos: p.pos(), Kind: kind}
	p.next()
	p.expect(tLBRACE)
	for p.tok != tRBRACE {
		sec.Fields = append(sec.Fields, p.parseField())
		if !p.got(tCOMMA) {
			break
		}
	}
	p.expect(tRBRACE)
	p.got(tSEMI)
	return sec
}

func (p *parser) parseField() *ast.Field {
	name := p.parseIdent()
	p.expect(tCOLON)
	return &ast.Field{Name: name, Type: p.parseType()}
}

func (p *parser) parseFunc() *ast.FuncDecl {
	fn := &ast.FuncDecl{FnPos: p.pos()}
	p.next()
	fn.Name = p.parseIdent()
	p.expect(tLPAREN)
	for p.tok != tRPAREN {
		fn.Params = append(fn.Params, p.parseField())
		if !p.got(tCOMMA) {
			break
		}
	}
	p.expect(tRPAREN)
	p.expect(tARROW)
	fn.Result = p.parseType()
	p.expect(tASSIGN)
	fn.Body = p.parseExpr()
	p.expect(tSEMI)
	return fn
}

func (p *parser) parseEquation() ast.Equation {
	letPos := p.pos()
	p.next()
	name := p.parseIdent()

	var typ ast.Type
	if p.got(tCOLON) {
		typ = p.parseType()
	}

	switch p.tok {
	case tASSIGN:
		p.next()
		x := p.parseExpr()
		p.expect(tSEMI)
		return &ast.CombEq{LetPos: letPos, Name: name, Type: typ, Expr: x}
	case tLARROW:
		if typ == nil {
			p.errorf(p.pos(), "register `%s` needs a declared type", name.Name)
		}
		p.next()
		p.expect(tDELAY)
		init := p.parseExpr()
		p.expect(tFEED)
		next := p.parseExpr()
		p.expect(tSEMI)
		return &ast.RegisterEq{LetPos: letPos, Name: name, Type: typ, Init: init, Next: next}
	}
	p.errorExpected("`=` or `<-`")
	return nil
}

// ---------------------------------------------------------------------------
// Types

func (p *parser) parseType() ast.Type {
	pos := p.pos()
	switch p.tok {
	case tIDENT:
		id := p.parseIdent()
		return &ast.NamedType{NamePos: id.NamePos, Name: id.Name}

	case tLPAREN:
		p.next()
		var elems []ast.Type
		trailing := false
		for p.tok != tRPAREN {
			elems = append(elems, p.parseType())
			trailing = p.got(tCOMMA)
			if !trailing {
				break
			}
		}
		p.expect(tRPAREN)
		if len(elems) == 1 && !trailing {
			return elems[0]
		}
		return &ast.TupleType{Lparen: pos, Elems: elems}

	case tLBRACK:
		p.next()
		lt := &ast.ListType{Lbrack: pos, Elem: p.parseType(), Len: -1}
		if p.got(tSEMI) {
			lenPos := p.pos()
			lit := p.lit
			p.expect(tINT)
			n, err := strconv.ParseInt(lit, 0, 32)
			if err != nil || n < 0 {
				p.errorf(lenPos, "invalid array length %s", lit)
			}
			lt.Len = int(n)
		}
		p.expect(tRBRACK)
		return lt
	}
	p.errorExpected("type")
	return nil
}

// ---------------------------------------------------------------------------
// Expressions

func (p *parser) parseExpr() ast.Expr {
	return p.parseBinary(ast.PrecOr)
}

var binaryOps = map[tokKind]ast.Op{
	tOROR:   ast.OpOr,
	tANDAND: ast.OpAnd,
	tEQ:     ast.OpEq,
	tNE:     ast.OpNe,
	tLT:     ast.OpLt,
	tLE:     ast.OpLe,
	tGT:     ast.OpGt,
	tGE:     ast.OpGe,
	tOR:     ast.OpBitOr,
	tXOR:    ast.OpBitXor,
	tAND:    ast.OpBitAnd,
	tSHL:    ast.OpShl,
	tSHR:    ast.OpShr,
	tADD:    ast.OpAdd,
	tSUB:    ast.OpSub,
	tMUL:    ast.OpMul,
	tDIV:    ast.OpDiv,
	tREM:    ast.OpRem,
	tPOW:    ast.OpPow,
}

func (p *parser) parseBinary(minPrec int) ast.Expr {
	x := p.parseCast()
	for {
		if p.tok == tLARROW {
			p.splitArrow()
		}
		op, ok := binaryOps[p.tok]
		if !ok {
			return x
		}
		prec := op.Precedence()
		if prec < minPrec {
			return x
		}
		pos := p.pos()
		p.next()
		next := prec + 1
		if op.RightAssoc() {
			next = prec
		}
		y := p.parseBinary(next)
		x = &ast.BinaryExpr{X: x, OpPos: pos, Op: op, Y: y}
	}
}

// parseCast parses a unary operand followed by any number of `as T` casts
// or `: T` ascriptions.
func (p *parser) parseCast() ast.Expr {
	x := p.parseUnary()
	for p.tok == tAS || p.tok == tCOLON {
		asc := p.tok == tCOLON
		pos := p.pos()
		p.next()
		x = &ast.CastExpr{X: x, OpPos: pos, Type: p.parseType(), Ascription: asc}
	}
	return x
}

func (p *parser) parseUnary() ast.Expr {
	switch p.tok {
	case tNOT, tSUB:
		op := ast.OpNot
		if p.tok == tSUB {
			op = ast.OpNeg
		}
		pos := p.pos()
		p.next()
		return &ast.UnaryExpr{OpPos: pos, Op: op, X: p.parseUnary()}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *parser) parsePostfix(x ast.Expr) ast.Expr {
	for {
		switch p.tok {
		case tDOT:
			pos := p.pos()
			p.next()
			if p.tok != tIDENT && p.tok != tINT {
				p.errorExpected("field name or tuple index")
			}
			x = &ast.FieldExpr{X: x, DotPos: pos, Name: p.lit}
			p.next()
		case tLBRACK:
			pos := p.pos()
			p.next()
			idx := p.parseExpr()
			p.expect(tRBRACK)
			x = &ast.IndexExpr{X: x, Lbrack: pos, Index: idx}
		default:
			return x
		}
	}
}

func (p *parser) parsePrimary() ast.Expr {
	pos := p.pos()
	switch p.tok {
	case tIDENT:
		id := p.parseIdent()
		if p.tok == tLPAREN {
			lparen := p.pos()
			p.next()
			return &ast.CallExpr{Fun: id, Lparen: lparen, Args: p.parseExprList(tRPAREN)}
		}
		return id

	case tINT, tFLOAT:
		kind := ast.IntLit
		if p.tok == tFLOAT {
			kind = ast.FloatLit
		}
		lit := &ast.BasicLit{ValuePos: pos, Kind: kind, Value: p.lit}
		p.next()
		return lit

	case tTRUE, tFALSE:
		lit := &ast.BasicLit{ValuePos: pos, Kind: ast.BoolLit, Value: p.lit}
		p.next()
		return lit

	case tLPAREN:
		p.next()
		if p.got(tRPAREN) {
			return &ast.TupleExpr{Lparen: pos}
		}
		x := p.parseExpr()
		if p.got(tRPAREN) {
			return &ast.ParenExpr{Lparen: pos, X: x}
		}
		p.expect(tCOMMA)
		elems := append([]ast.Expr{x}, p.parseExprList(tRPAREN)...)
		return &ast.TupleExpr{Lparen: pos, Elems: elems}

	case tLBRACK:
		p.next()
		return &ast.ListExpr{Lbrack: pos, Elems: p.parseExprList(tRBRACK)}

	case tLBRACE:
		return p.parseBlock()

	case tIF:
		p.next()
		cond := p.parseExpr()
		p.expect(tTHEN)
		then := p.parseExpr()
		p.expect(tELSE)
		els := p.parseExpr()
		return &ast.IfExpr{IfPos: pos, Cond: cond, Then: then, Else: els}
	}
	p.errorExpected("expression")
	return nil
}

// parseExprList parses comma-separated expressions up to and including the
// closing token. A trailing comma is allowed.
func (p *parser) parseExprList(closing tokKind) []ast.Expr {
	var list []ast.Expr
	for p.tok != closing {
		list = append(list, p.parseExpr())
		if !p.got(tCOMMA) {
			break
		}
	}
	p.expect(closing)
	return list
}

func (p *parser) parseBlock() *ast.BlockExpr {
	b := &ast.BlockExpr{Lbrace: p.expect(tLBRACE)}
	for {
		switch p.tok {
		case tRBRACE:
			p.next()
			return b
		case tLET:
			b.Stmts = append(b.Stmts, p.parseLetStmt())
			continue
		}
		x := p.parseExpr()
		if p.got(tSEMI) {
			b.Stmts = append(b.Stmts, &ast.ExprStmt{X: x})
			continue
		}
		b.Result = x
		p.expect(tRBRACE)
		return b
	}
}

func (p *parser) parseLetStmt() *ast.LetStmt {
	s := &ast.LetStmt{LetPos: p.expect(tLET)}
	s.Pat = p.parsePattern()
	if p.got(tCOLON) {
		s.Type = p.parseType()
	}
	p.expect(tASSIGN)
	s.Expr = p.parseExpr()
	p.expect(tSEMI)
	return s
}

func (p *parser) parsePattern() ast.Pattern {
	pos := p.pos()
	switch p.tok {
	case tIDENT:
		if p.lit == "_" {
			p.next()
			return &ast.WildPat{UnderscorePos: pos}
		}
		return p.parseIdent()
	case tLPAREN:
		p.next()
		tp := &ast.TuplePat{Lparen: pos}
		for p.tok != tRPAREN {
			tp.Elems = append(tp.Elems, p.parsePattern())
			if !p.got(tCOMMA) {
				break
			}
		}
		p.expect(tRPAREN)
		return tp
	}
	p.errorExpected("pattern")
	return nil
}
