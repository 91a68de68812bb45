package queryir

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/tickflow/internal/ir"
)

var scopeAliases = map[string]Scope{
	"in":        ScopeInputs,
	"inputs":    ScopeInputs,
	"out":       ScopeOutputs,
	"outputs":   ScopeOutputs,
	"reg":       ScopeRegisters,
	"registers": ScopeRegisters,
}

// ParsePredicate parses one filter expression:
//
//	fan = true           outputs by default
//	in.hmd >= 50         scope prefix: in, out, reg or the full scope name
//	reg.prev != 0
//	changed(fan)         value differs from the previous tick
//
// Literals are true, false, integers and finite floats.
func ParsePredicate(text string) (Predicate, error) {
	s := strings.TrimSpace(text)

	if rest, ok := strings.CutPrefix(s, "changed("); ok {
		ref, ok := strings.CutSuffix(rest, ")")
		if !ok {
			return nil, fmt.Errorf("where %q: missing )", text)
		}
		scope, name, err := parseRef(ref)
		if err != nil {
			return nil, fmt.Errorf("where %q: %w", text, err)
		}
		return &Changed{Scope: scope, Name: name}, nil
	}

	i := strings.IndexAny(s, "=!<>")
	if i < 0 {
		return nil, fmt.Errorf("where %q: expected a comparison such as name = value", text)
	}
	op := s[i : i+1]
	if i+1 < len(s) && s[i+1] == '=' {
		op = s[i : i+2]
	}

	scope, name, err := parseRef(s[:i])
	if err != nil {
		return nil, fmt.Errorf("where %q: %w", text, err)
	}
	value, err := parseLiteral(strings.TrimSpace(s[i+len(op):]))
	if err != nil {
		return nil, fmt.Errorf("where %q: %w", text, err)
	}

	switch op {
	case "=", "==":
		return &Equals{Scope: scope, Name: name, Value: value}, nil
	case "!":
		return nil, fmt.Errorf("where %q: unknown operator !", text)
	}
	return &Compare{Scope: scope, Name: name, Op: Op(op), Value: value}, nil
}

// ParseFilter parses every expression and joins them with And. No
// expressions yields a nil filter and a single one is returned unwrapped.
func ParseFilter(exprs []string) (Predicate, error) {
	preds := make([]Predicate, 0, len(exprs))
	for _, e := range exprs {
		p, err := ParsePredicate(e)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	switch len(preds) {
	case 0:
		return nil, nil
	case 1:
		return preds[0], nil
	}
	return &And{Predicates: preds}, nil
}

func parseRef(ref string) (Scope, string, error) {
	ref = strings.TrimSpace(ref)
	scope := ScopeOutputs
	if prefix, name, ok := strings.Cut(ref, "."); ok {
		s, known := scopeAliases[prefix]
		if !known {
			return "", "", fmt.Errorf("unknown scope %q", prefix)
		}
		scope, ref = s, name
	}
	if !ValidName(ref) {
		return "", "", fmt.Errorf("invalid name %q", ref)
	}
	return scope, ref, nil
}

func parseLiteral(s string) (ir.IRValue, error) {
	switch s {
	case "true":
		return ir.IRBool(true), nil
	case "false":
		return ir.IRBool(false), nil
	case "":
		return nil, fmt.Errorf("missing value")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ir.IRInt(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("invalid value %q", s)
	}
	return ir.IRFloat(f), nil
}
