package queryir

import (
	"fmt"
	"math"
	"slices"

	"github.com/roach88/tickflow/internal/ir"
)

// Signature lists the names a plan records in each scope. A nil Signature
// skips name checks.
type Signature map[Scope][]string

// Has reports whether name is recorded in scope.
func (s Signature) Has(scope Scope, name string) bool {
	return slices.Contains(s[scope], name)
}

// ValidationResult lists every problem found in a query.
type ValidationResult struct {
	Valid    bool
	Problems []string
}

// Validate checks a query for shape errors, and checks every name against
// sig when sig is non-nil.
//
// Validate is a pure function with no side effects.
func Validate(query Query, sig Signature) ValidationResult {
	v := &validator{sig: sig, problems: []string{}}
	v.validateQuery(query)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	sig      Signature
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Ticks:
		v.validateTicks(query)
	case *Ticks:
		v.validateTicks(*query)
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) validateTicks(q Ticks) {
	if q.RunID == "" {
		v.addProblem("run id is required")
	}
	if q.FromSeq < 0 || q.ToSeq < 0 {
		v.addProblem("tick bounds must not be negative")
	}
	if q.FromSeq > 0 && q.ToSeq > 0 && q.FromSeq > q.ToSeq {
		v.addProblem("empty tick range %d..%d", q.FromSeq, q.ToSeq)
	}
	if q.Limit < 0 {
		v.addProblem("limit must not be negative")
	}
	if q.Filter != nil {
		v.validatePredicate(q.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addProblem("nil predicate")
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case Compare:
		v.validateCompare(pred)
	case *Compare:
		v.validateCompare(*pred)
	case Changed:
		v.validateName(pred.Scope, pred.Name)
	case *Changed:
		v.validateName(pred.Scope, pred.Name)
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	v.validateName(eq.Scope, eq.Name)
	v.validateValue(eq.Name, eq.Value)
}

func (v *validator) validateCompare(c Compare) {
	v.validateName(c.Scope, c.Name)
	if !c.Op.Valid() {
		v.addProblem("%s: unknown operator %q", c.Name, c.Op)
		return
	}
	v.validateValue(c.Name, c.Value)
	if _, isBool := c.Value.(ir.IRBool); isBool && c.Op.Ordered() {
		v.addProblem("%s: bool values cannot be compared with %s", c.Name, c.Op)
	}
}

func (v *validator) validateAnd(and And) {
	for _, sub := range and.Predicates {
		v.validatePredicate(sub)
	}
}

func (v *validator) validateName(scope Scope, name string) {
	if !scope.Valid() {
		v.addProblem("%s: unknown scope %q", name, scope)
		return
	}
	if !ValidName(name) {
		v.addProblem("invalid name %q", name)
		return
	}
	if v.sig != nil && !v.sig.Has(scope, name) {
		v.addProblem("plan has no %s named %q", singular(scope), name)
	}
}

func (v *validator) validateValue(name string, value ir.IRValue) {
	switch val := value.(type) {
	case ir.IRBool, ir.IRInt:
	case ir.IRFloat:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			v.addProblem("%s: value must be finite", name)
		}
	case nil:
		v.addProblem("%s: missing value", name)
	default:
		v.addProblem("%s: unsupported value type %T", name, value)
	}
}

// ValidName reports whether name is an identifier: a letter or underscore
// followed by letters, digits or underscores.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func singular(s Scope) string {
	switch s {
	case ScopeInputs:
		return "input"
	case ScopeOutputs:
		return "output"
	case ScopeRegisters:
		return "register"
	}
	return string(s)
}
