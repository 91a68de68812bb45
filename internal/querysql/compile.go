// Package querysql compiles queryir tick queries to parameterized SQLite.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/queryir"
)

// TickColumns is the column list every compiled query selects, in the order
// the store scans them.
const TickColumns = "run_id, seq, inputs, outputs, registers, hash"

// SQLCompiler compiles queries to parameterized SQL for the ticks table.
//
// All values are parameterized, never interpolated. Every query orders by
// seq so results are deterministic.
type SQLCompiler struct {
	// Table is the ticks table name. Empty means "ticks".
	Table string
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: "ticks"}
}

// Compile converts a query to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}

	switch query := q.(type) {
	case queryir.Ticks:
		return c.compileTicks(query)
	case *queryir.Ticks:
		return c.compileTicks(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) table() string {
	if c.Table == "" {
		return "ticks"
	}
	return c.Table
}

func (c *SQLCompiler) compileTicks(q queryir.Ticks) (string, []any, error) {
	if q.RunID == "" {
		return "", nil, fmt.Errorf("query has no run id")
	}

	where := []string{"run_id = ?"}
	params := []any{q.RunID}

	if q.FromSeq > 0 {
		where = append(where, "seq >= ?")
		params = append(params, q.FromSeq)
	}
	if q.ToSeq > 0 {
		where = append(where, "seq <= ?")
		params = append(params, q.ToSeq)
	}
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where = append(where, filterSQL)
		params = append(params, filterParams...)
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY seq ASC",
		TickColumns, c.table(), strings.Join(where, " AND "))

	if q.Limit > 0 {
		sql += " LIMIT ?"
		params = append(params, q.Limit)
	}

	return sql, params, nil
}

// compilePredicate compiles a predicate to a WHERE clause fragment.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Equals:
		return c.compileComparison(pred.Scope, pred.Name, "=", pred.Value)
	case *queryir.Equals:
		return c.compileComparison(pred.Scope, pred.Name, "=", pred.Value)
	case queryir.Compare:
		return c.compileCompare(pred)
	case *queryir.Compare:
		return c.compileCompare(*pred)
	case queryir.Changed:
		return c.compileChanged(pred)
	case *queryir.Changed:
		return c.compileChanged(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileCompare(cmp queryir.Compare) (string, []any, error) {
	if !cmp.Op.Valid() {
		return "", nil, fmt.Errorf("unknown operator %q", cmp.Op)
	}
	return c.compileComparison(cmp.Scope, cmp.Name, string(cmp.Op), cmp.Value)
}

// compileComparison compiles "json_extract(<scope>, '$.<name>') <op> ?".
// The JSON path is a parameter as well.
func (c *SQLCompiler) compileComparison(scope queryir.Scope, name, op string, value ir.IRValue) (string, []any, error) {
	column, path, err := columnPath(scope, name)
	if err != nil {
		return "", nil, err
	}
	param, err := irValueToParam(value)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", name, err)
	}

	sql := fmt.Sprintf("json_extract(%s, ?) %s ?", column, op)
	return sql, []any{path, param}, nil
}

// compileChanged compares a value with the same value one tick earlier. The
// missing predecessor of tick 1 reads as NULL, and IS NOT treats NULL as an
// ordinary value.
func (c *SQLCompiler) compileChanged(ch queryir.Changed) (string, []any, error) {
	column, path, err := columnPath(ch.Scope, ch.Name)
	if err != nil {
		return "", nil, err
	}

	t := c.table()
	sql := fmt.Sprintf(
		"(json_extract(%[1]s.%[2]s, ?) IS NOT NULL AND json_extract(%[1]s.%[2]s, ?) IS NOT "+
			"(SELECT json_extract(prev.%[2]s, ?) FROM %[1]s AS prev WHERE prev.run_id = %[1]s.run_id AND prev.seq = %[1]s.seq - 1))",
		t, column)
	return sql, []any{path, path, path}, nil
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	var sqlParts []string
	var allParams []any

	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, " AND "), allParams, nil
}

// columnPath maps a scope to its column and a name to its JSON path. Only
// known scopes and identifier names pass.
func columnPath(scope queryir.Scope, name string) (string, string, error) {
	if !scope.Valid() {
		return "", "", fmt.Errorf("unknown scope %q", scope)
	}
	if !queryir.ValidName(name) {
		return "", "", fmt.Errorf("invalid name %q", name)
	}
	return string(scope), "$." + name, nil
}

// irValueToParam converts a scalar ir.IRValue to a SQL parameter. JSON
// true and false extract as 1 and 0, which is how the driver binds bools.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRInt:
		return int64(val), nil
	case ir.IRFloat:
		return float64(val), nil
	case ir.IRBool:
		return bool(val), nil
	case ir.IRString:
		return string(val), nil
	case nil:
		return nil, fmt.Errorf("missing value")
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
