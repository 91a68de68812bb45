package store

import (
	"context"
	"fmt"

	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/queryir"
	"github.com/roach88/tickflow/internal/querysql"
)

// ReadRun returns the run with the given ID.
// Returns an error wrapping sql.ErrNoRows if the run is not recorded.
func (s *Store) ReadRun(ctx context.Context, runID string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)

	run, err := scanRun(row)
	if err != nil {
		return ir.Run{}, fmt.Errorf("read run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns every recorded run in creation order.
// If module is non-empty only runs of that module are returned.
func (s *Store) ListRuns(ctx context.Context, module string) ([]ir.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if module != "" {
		query += ` WHERE module = ?`
		args = append(args, module)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []ir.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	if runs == nil {
		runs = []ir.Run{}
	}

	return runs, nil
}

// ReadTicks returns all ticks of a run ordered by seq ASC.
// A run with no ticks yields an empty slice, not nil.
func (s *Store) ReadTicks(ctx context.Context, runID string) ([]ir.Tick, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+querysql.TickColumns+` FROM ticks WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query ticks: %w", err)
	}
	defer rows.Close()

	var ticks []ir.Tick
	for rows.Next() {
		tick, err := scanTick(rows)
		if err != nil {
			return nil, err
		}
		ticks = append(ticks, tick)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticks: %w", err)
	}

	if ticks == nil {
		ticks = []ir.Tick{}
	}

	return ticks, nil
}

// ReadTick returns a single tick of a run.
// Returns an error wrapping sql.ErrNoRows if the tick is not recorded.
func (s *Store) ReadTick(ctx context.Context, runID string, seq int64) (ir.Tick, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+querysql.TickColumns+` FROM ticks WHERE run_id = ? AND seq = ?`, runID, seq)

	tick, err := scanTick(row)
	if err != nil {
		return ir.Tick{}, fmt.Errorf("read tick %d of run %s: %w", seq, runID, err)
	}
	return tick, nil
}

// QueryTicks returns the ticks of q.RunID that match q, ordered by seq ASC.
// No match yields an empty slice, not nil.
func (s *Store) QueryTicks(ctx context.Context, q queryir.Ticks) ([]ir.Tick, error) {
	query, params, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile tick query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query ticks: %w", err)
	}
	defer rows.Close()

	ticks := []ir.Tick{}
	for rows.Next() {
		tick, err := scanTick(rows)
		if err != nil {
			return nil, err
		}
		ticks = append(ticks, tick)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticks: %w", err)
	}

	return ticks, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a row into a Run struct.
func scanRun(row scanner) (ir.Run, error) {
	var run ir.Run
	var argsJSON string

	if err := row.Scan(
		&run.ID, &run.Module, &run.PlanHash, &run.Source, &argsJSON,
		&run.Seq, &run.EngineVersion, &run.IRVersion,
	); err != nil {
		return ir.Run{}, err
	}

	args, err := unmarshalObject("args", argsJSON)
	if err != nil {
		return ir.Run{}, err
	}
	run.Args = args

	return run, nil
}

// scanTick scans a row into a Tick struct.
func scanTick(row scanner) (ir.Tick, error) {
	var tick ir.Tick
	var inputsJSON, outputsJSON, registersJSON string

	if err := row.Scan(
		&tick.RunID, &tick.Seq, &inputsJSON, &outputsJSON, &registersJSON, &tick.Hash,
	); err != nil {
		return ir.Tick{}, fmt.Errorf("scan tick: %w", err)
	}

	var err error
	if tick.Inputs, err = unmarshalObject("inputs", inputsJSON); err != nil {
		return ir.Tick{}, err
	}
	if tick.Outputs, err = unmarshalObject("outputs", outputsJSON); err != nil {
		return ir.Tick{}, err
	}
	if tick.Registers, err = unmarshalObject("registers", registersJSON); err != nil {
		return ir.Tick{}, err
	}

	return tick, nil
}
