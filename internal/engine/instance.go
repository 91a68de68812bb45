package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/tickflow/internal/ast"
	"github.com/roach88/tickflow/internal/compiler"
)

// Instance is one running copy of a compiled module.
//
// The instance owns its register storage exclusively. A tick either commits
// completely or not at all.
//
// Thread-safety model:
//   - Run(): callers serialise; an instance is not safe for concurrent ticks
//   - Sample(), Registers(), Tick(): read-only, but must not race with Run
type Instance struct {
	plan  *compiler.Plan
	clock *Clock

	args map[string]Value
	regs []Value // indexed by plan.Slots

	outputs    Outputs
	lastInputs map[string]Value
	ticked     bool
}

// Option allows configuration of an instance.
type Option func(*Instance)

// WithClock makes the instance number its ticks from c. Used to continue a
// recorded run.
func WithClock(c *Clock) Option {
	return func(i *Instance) {
		i.clock = c
	}
}

// New creates an instance of plan.
//
// Every Args field must be supplied and no other; values are coerced to the
// declared field types. Register initializers are then evaluated in register
// order against Args alone to seed storage.
func New(plan *compiler.Plan, args map[string]Value, opts ...Option) (*Instance, error) {
	coerced, err := checkFields(plan.Args, args, "argument")
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		plan:  plan,
		clock: NewClock(),
		args:  coerced,
		regs:  make([]Value, len(plan.Registers)),
	}
	for _, opt := range opts {
		opt(inst)
	}

	ev := &evaluator{plan: plan, args: inst.args}
	for _, reg := range plan.Registers {
		name := reg.Name.Name
		v, err := ev.eval(reg.Init)
		if err == nil {
			v, err = coerce(v, reg.Type, false, reg.Init.Pos())
		}
		if err != nil {
			return nil, fmt.Errorf("initialize register %s: %w", name, annotate(err, name, 0))
		}
		inst.regs[plan.Slots[name]] = v
	}

	slog.Debug("instance created",
		"module", plan.Module,
		"args", len(inst.args),
		"registers", len(inst.regs))

	return inst, nil
}

// Run performs one tick.
//
// It evaluates the combinational equations in plan order, then every
// register's next expression against pre-tick storage, then commits all new
// register values at once and publishes the outputs. On error nothing is
// committed.
func (i *Instance) Run(inputs map[string]Value) (Outputs, error) {
	tick := i.clock.Current() + 1

	in, err := checkFields(i.plan.Inputs, inputs, "input")
	if err != nil {
		return nil, annotate(err, "", tick)
	}

	ev := &evaluator{
		plan:   i.plan,
		args:   i.args,
		inputs: in,
		comb:   make(map[string]Value, len(i.plan.Combinational)),
		regs:   i.regs,
	}

	for _, eq := range i.plan.Combinational {
		name := eq.Name.Name
		v, err := ev.eval(eq.Expr)
		if err == nil && eq.Name.Sym != nil {
			// Ascribed locals and outputs carry their declared type.
			v, err = coerce(v, eq.Name.Sym.Type, false, eq.Expr.Pos())
		}
		if err != nil {
			return nil, annotate(err, name, tick)
		}
		ev.comb[name] = v
	}

	next := make([]Value, len(i.regs))
	for _, reg := range i.plan.Registers {
		name := reg.Name.Name
		v, err := ev.eval(reg.Next)
		if err == nil {
			v, err = coerce(v, reg.Type, false, reg.Next.Pos())
		}
		if err != nil {
			return nil, annotate(err, name, tick)
		}
		next[i.plan.Slots[name]] = v
	}

	out := make(Outputs, len(i.plan.Outputs))
	for _, f := range i.plan.Outputs {
		out[f.Name.Name] = ev.comb[f.Name.Name]
	}

	// Commit.
	i.regs = next
	i.outputs = out
	i.lastInputs = in
	i.ticked = true
	seq := i.clock.Next()

	slog.Debug("tick", "module", i.plan.Module, "seq", seq)

	return copyValues(out), nil
}

// Sample returns the outputs of the last tick. ok is false until the first
// tick has run.
func (i *Instance) Sample() (out Outputs, ok bool) {
	if !i.ticked {
		return nil, false
	}
	return copyValues(i.outputs), true
}

// Registers returns a snapshot of register storage by name.
func (i *Instance) Registers() map[string]Value {
	snap := make(map[string]Value, len(i.regs))
	for name, slot := range i.plan.Slots {
		snap[name] = i.regs[slot]
	}
	return snap
}

// Tick returns the number of committed ticks.
func (i *Instance) Tick() int64 {
	return i.clock.Current()
}

// Plan returns the plan the instance runs.
func (i *Instance) Plan() *compiler.Plan {
	return i.plan
}

func copyValues(m Outputs) Outputs {
	out := make(Outputs, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// checkFields matches supplied values against declared fields: every field
// must be present, no other names are allowed, and each value is coerced
// to its field type.
func checkFields(fields []*ast.Field, vals map[string]Value, what string) (map[string]Value, error) {
	out := make(map[string]Value, len(fields))
	declared := make(map[string]bool, len(fields))

	for _, f := range fields {
		name := f.Name.Name
		declared[name] = true
		v, ok := vals[name]
		if !ok {
			return nil, &RuntimeError{
				Code:    ErrCodeMissingInput,
				Message: fmt.Sprintf("missing %s `%s`", what, name),
				Name:    name,
			}
		}
		cv, err := Coerce(v, f.Type)
		if err != nil {
			return nil, annotate(err, name, 0)
		}
		out[name] = cv
	}

	var unknown []string
	for name := range vals {
		if !declared[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &RuntimeError{
			Code:    ErrCodeUnknownField,
			Message: fmt.Sprintf("unknown %s `%s`", what, unknown[0]),
			Name:    unknown[0],
		}
	}
	return out, nil
}
