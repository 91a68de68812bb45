package queryir

import "github.com/roach88/tickflow/internal/ir"

// Query represents an abstract query over a trace.
//
// This is a sealed interface: only types in this package implement it.
type Query interface {
	queryNode()
}

// Predicate represents a filter condition on one tick.
//
// This is a sealed interface: only types in this package implement it.
// There is no OR; callers run several queries instead.
type Predicate interface {
	predicateNode()
}

// Scope names which recorded object of a tick a predicate reads.
type Scope string

const (
	ScopeInputs    Scope = "inputs"
	ScopeOutputs   Scope = "outputs"
	ScopeRegisters Scope = "registers"
)

// Scopes lists every scope in display order.
var Scopes = []Scope{ScopeInputs, ScopeOutputs, ScopeRegisters}

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	switch s {
	case ScopeInputs, ScopeOutputs, ScopeRegisters:
		return true
	}
	return false
}

// Op is an ordering or inequality comparison.
type Op string

const (
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// Valid reports whether o is a known operator.
func (o Op) Valid() bool {
	switch o {
	case OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Ordered reports whether o compares magnitudes rather than identity.
func (o Op) Ordered() bool {
	return o != OpNe
}

// Ticks selects the ticks of one run in seq order.
//
// Semantics:
//
//	SELECT ticks FROM run WHERE from <= seq <= to AND <filter> ORDER BY seq LIMIT n
//
// Example:
//
//	Ticks{
//	  RunID:  "0190f5b2-...",
//	  Filter: &And{Predicates: []Predicate{
//	    &Equals{Scope: ScopeOutputs, Name: "fan", Value: ir.IRBool(true)},
//	    &Compare{Scope: ScopeInputs, Name: "hmd", Op: OpGe, Value: ir.IRInt(50)},
//	  }},
//	}
type Ticks struct {
	RunID   string
	Filter  Predicate // nil matches every tick
	FromSeq int64     // inclusive lower bound, 0 for none
	ToSeq   int64     // inclusive upper bound, 0 for none
	Limit   int       // 0 for no limit
}

func (Ticks) queryNode() {}

// Equals matches ticks whose named value equals a literal.
//
// Semantics:
//
//	<scope>.<name> = <value>
//
// Numbers compare by value, so 60 equals 60.0. A tick that does not carry
// the name never matches.
type Equals struct {
	Scope Scope
	Name  string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// Compare matches ticks whose named value stands in relation Op to a
// literal. A tick that does not carry the name never matches, not even
// for OpNe.
type Compare struct {
	Scope Scope
	Name  string
	Op    Op
	Value ir.IRValue
}

func (Compare) predicateNode() {}

// Changed matches ticks whose named value differs from the value recorded
// at the previous tick. The first tick of a run matches whenever it
// carries the name.
type Changed struct {
	Scope Scope
	Name  string
}

func (Changed) predicateNode() {}

// And represents a conjunction of predicates.
// An empty And matches every tick.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}
