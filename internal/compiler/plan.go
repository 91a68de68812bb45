package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/tickflow/internal/ast"
	"github.com/roach88/tickflow/internal/ir"
)

// Plan is the compiled, ordered evaluation plan of one module. It is
// immutable once Compile returns it.
type Plan struct {
	Module  string
	Inputs  []*ast.Field
	Outputs []*ast.Field
	Args    []*ast.Field
	Funcs   []*ast.FuncDecl

	// Combinational equations in a safe evaluation order: every name is
	// assigned before any equation that reads it.
	Combinational []*ast.CombEq

	// Registers in update order. Slots maps each register name to its
	// storage index, assigned in this order.
	Registers []*ast.RegisterEq
	Slots     map[string]int

	// Deps maps every equation name to the global names its defining
	// expression reads (the next expression for registers).
	Deps map[string][]string

	Env *Env

	funcs map[string]*ast.FuncDecl
}

// Func returns the helper function with the given name.
func (p *Plan) Func(name string) (*ast.FuncDecl, bool) {
	fn, ok := p.funcs[name]
	return fn, ok
}

// assemble attaches equation bodies to the computed orders. The orders come
// from TopoSort over graphs built from exactly these equations, so any
// mismatch is a bug in the compiler rather than in the program.
func assemble(prog *ast.Program, env *Env, combOrder, regOrder []string, deps map[string][]string) (*Plan, error) {
	combs := make(map[string]*ast.CombEq)
	regs := make(map[string]*ast.RegisterEq)
	for _, eq := range prog.Equations() {
		switch eq := eq.(type) {
		case *ast.CombEq:
			combs[eq.Name.Name] = eq
		case *ast.RegisterEq:
			regs[eq.Name.Name] = eq
		}
	}

	p := &Plan{
		Inputs:  prog.Fields(ast.SectionIn),
		Outputs: prog.Fields(ast.SectionOut),
		Args:    prog.Fields(ast.SectionArgs),
		Funcs:   prog.Funcs(),
		Slots:   make(map[string]int, len(regOrder)),
		Deps:    deps,
		Env:     env,
		funcs:   make(map[string]*ast.FuncDecl),
	}
	if m := prog.Module(); m != nil {
		p.Module = m.Name.Name
	}
	for _, fn := range p.Funcs {
		p.funcs[fn.Name.Name] = fn
	}

	for _, name := range combOrder {
		eq, ok := combs[name]
		if !ok {
			return nil, fmt.Errorf("%w: combinational order names %q which has no equation", ErrInternal, name)
		}
		delete(combs, name)
		p.Combinational = append(p.Combinational, eq)
	}
	if len(combs) > 0 {
		return nil, fmt.Errorf("%w: %d combinational equations missing from order", ErrInternal, len(combs))
	}

	for i, name := range regOrder {
		eq, ok := regs[name]
		if !ok {
			return nil, fmt.Errorf("%w: register order names %q which has no equation", ErrInternal, name)
		}
		delete(regs, name)
		p.Registers = append(p.Registers, eq)
		p.Slots[name] = i
	}
	if len(regs) > 0 {
		return nil, fmt.Errorf("%w: %d registers missing from order", ErrInternal, len(regs))
	}

	return p, nil
}

// Canonical returns the plan as plain JSON-compatible data. It is the
// hand-off format for external generators and the input of Hash.
func (p *Plan) Canonical() map[string]any {
	fields := func(fs []*ast.Field) []any {
		out := make([]any, len(fs))
		for i, f := range fs {
			out[i] = map[string]any{"name": f.Name.Name, "type": f.Type.String()}
		}
		return out
	}

	funcs := make([]any, len(p.Funcs))
	for i, fn := range p.Funcs {
		funcs[i] = map[string]any{
			"name":   fn.Name.Name,
			"params": fields(fn.Params),
			"result": fn.Result.String(),
			"body":   fn.Body.String(),
		}
	}

	comb := make([]any, len(p.Combinational))
	for i, eq := range p.Combinational {
		entry := map[string]any{
			"name": eq.Name.Name,
			"expr": eq.Expr.String(),
			"deps": p.depsOf(eq.Name.Name),
		}
		if sym, ok := p.Env.Lookup(eq.Name.Name); ok {
			entry["category"] = sym.Category.String()
			if sym.Type != nil {
				entry["type"] = sym.Type.String()
			}
		}
		comb[i] = entry
	}

	regs := make([]any, len(p.Registers))
	for i, eq := range p.Registers {
		regs[i] = map[string]any{
			"name": eq.Name.Name,
			"type": eq.Type.String(),
			"init": eq.Init.String(),
			"next": eq.Next.String(),
			"slot": p.Slots[eq.Name.Name],
			"deps": p.depsOf(eq.Name.Name),
		}
	}

	return map[string]any{
		"module":        p.Module,
		"inputs":        fields(p.Inputs),
		"outputs":       fields(p.Outputs),
		"args":          fields(p.Args),
		"funcs":         funcs,
		"combinational": comb,
		"registers":     regs,
	}
}

func (p *Plan) depsOf(name string) []string {
	if d := p.Deps[name]; d != nil {
		return d
	}
	return []string{}
}

// Hash returns the content-addressed identity of the plan.
func (p *Plan) Hash() (string, error) {
	return ir.PlanHash(p.Canonical())
}

// Dump renders the plan as stable, human-readable text.
func (p *Plan) Dump() string {
	var b strings.Builder

	fmt.Fprintf(&b, "module %s\n", p.Module)
	dumpFields(&b, "in", p.Inputs)
	dumpFields(&b, "out", p.Outputs)
	dumpFields(&b, "args", p.Args)

	if len(p.Funcs) > 0 {
		b.WriteString("funcs\n")
		for _, fn := range p.Funcs {
			params := make([]string, len(fn.Params))
			for i, f := range fn.Params {
				params[i] = f.Name.Name + ": " + f.Type.String()
			}
			fmt.Fprintf(&b, "  %s(%s) -> %s = %s\n", fn.Name.Name, strings.Join(params, ", "), fn.Result, fn.Body)
		}
	}

	b.WriteString("combinational\n")
	for i, eq := range p.Combinational {
		cat := "?"
		if sym, ok := p.Env.Lookup(eq.Name.Name); ok {
			cat = sym.String()
		}
		fmt.Fprintf(&b, "  %d. %s %s = %s\n", i+1, cat, eq.Name.Name, eq.Expr)
	}

	b.WriteString("registers\n")
	for _, eq := range p.Registers {
		fmt.Fprintf(&b, "  [%d] %s: %s <- delay %s -< %s\n", p.Slots[eq.Name.Name], eq.Name.Name, eq.Type, eq.Init, eq.Next)
	}
	return b.String()
}

func dumpFields(b *strings.Builder, label string, fs []*ast.Field) {
	if len(fs) == 0 {
		fmt.Fprintf(b, "%s {}\n", label)
		return
	}
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.Name.Name + ": " + f.Type.String()
	}
	fmt.Fprintf(b, "%s { %s }\n", label, strings.Join(parts, ", "))
}
