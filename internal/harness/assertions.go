package harness

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/roach88/tickflow/internal/ir"
)

// floatTolerance is the relative tolerance for comparing expected numbers
// against computed floats. Scenario files write decimal literals while f32
// fields hold rounded binary values.
const floatTolerance = 1e-6

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			if event.Committed() {
				fmt.Fprintf(&buf, "  [%d] %s -> %s\n", event.Seq, ir.String(event.Inputs), ir.String(event.Outputs))
			} else {
				fmt.Fprintf(&buf, "  [%d] %s -> %s\n", event.Seq, ir.String(event.Inputs), event.Error)
			}
		}
	}

	return buf.String()
}

// assertOutputEquals checks one output of a committed tick.
func assertOutputEquals(result *Result, assertion Assertion) error {
	ticks := result.committed()
	if len(ticks) == 0 {
		return &AssertionError{
			Type:     AssertOutputEquals,
			Expected: fmt.Sprintf("output %s at tick %d", assertion.Output, assertion.Tick),
			Actual:   "no committed ticks",
			Trace:    result.Trace,
		}
	}

	event := ticks[len(ticks)-1]
	if assertion.Tick != 0 {
		found := false
		for _, e := range ticks {
			if e.Seq == assertion.Tick {
				event, found = e, true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertOutputEquals,
				Expected: fmt.Sprintf("committed tick %d", assertion.Tick),
				Actual:   fmt.Sprintf("%d committed ticks", len(ticks)),
				Trace:    result.Trace,
			}
		}
	}

	return compareValue(AssertOutputEquals, "output "+assertion.Output, event.Outputs, assertion.Output, assertion.Value, result.Trace)
}

// assertRegisterEquals checks one register after the last committed tick.
func assertRegisterEquals(result *Result, assertion Assertion) error {
	return compareValue(AssertRegisterEquals, "register "+assertion.Register, result.Registers, assertion.Register, assertion.Value, result.Trace)
}

// assertTickCount checks the number of committed ticks.
func assertTickCount(result *Result, assertion Assertion) error {
	count := len(result.committed())
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTickCount,
			Expected: fmt.Sprintf("%d committed ticks", assertion.Count),
			Actual:   fmt.Sprintf("%d committed ticks", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

func compareValue(typ, what string, obj ir.IRObject, key string, want any, trace []TraceEvent) error {
	exp, err := ir.FromGo(want)
	if err != nil {
		return fmt.Errorf("%s: bad expected value: %w", typ, err)
	}

	act, ok := obj[key]
	if !ok {
		return &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("%s = %s", what, ir.String(exp)),
			Actual:   fmt.Sprintf("%s not present", what),
			Trace:    trace,
		}
	}

	if !valuesMatch(exp, act) {
		return &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("%s = %s", what, ir.String(exp)),
			Actual:   fmt.Sprintf("%s = %s", what, ir.String(act)),
			Trace:    trace,
		}
	}
	return nil
}

// valuesMatch compares an expected value against a computed one. Numbers
// match within floatTolerance when either side is a float; everything else
// must be equal.
func valuesMatch(want, got ir.IRValue) bool {
	switch w := want.(type) {
	case ir.IRFloat:
		return floatsMatch(float64(w), got)
	case ir.IRInt:
		if g, ok := got.(ir.IRFloat); ok {
			return floatsMatch(float64(g), w)
		}
	case ir.IRArray:
		g, ok := got.(ir.IRArray)
		if !ok || len(g) != len(w) {
			return false
		}
		for i := range w {
			if !valuesMatch(w[i], g[i]) {
				return false
			}
		}
		return true
	}
	return ir.Equal(want, got)
}

func floatsMatch(want float64, got ir.IRValue) bool {
	var g float64
	switch v := got.(type) {
	case ir.IRFloat:
		g = float64(v)
	case ir.IRInt:
		g = float64(v)
	default:
		return false
	}
	if want == g {
		return true
	}
	return math.Abs(want-g) <= floatTolerance*math.Max(math.Abs(want), math.Abs(g))
}

// sortedKeys returns the keys of m in sorted order for deterministic
// reporting.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertOutputEquals:
			err = assertOutputEquals(result, assertion)
		case AssertRegisterEquals:
			err = assertRegisterEquals(result, assertion)
		case AssertTickCount:
			err = assertTickCount(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
