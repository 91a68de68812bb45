package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/tickflow/internal/ir"
)

// ErrRunExists is returned by CreateRun when a run with the same ID is
// already recorded.
var ErrRunExists = errors.New("run already exists")

// CreateRun inserts a run record and returns it with Seq assigned.
// Seq is one past the highest run seq in the store, so runs list in
// creation order without consulting wall-clock time.
func (s *Store) CreateRun(ctx context.Context, run ir.Run) (ir.Run, error) {
	argsJSON, err := marshalObject("args", run.Args)
	if err != nil {
		return ir.Run{}, fmt.Errorf("create run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.Run{}, fmt.Errorf("create run: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return ir.Run{}, fmt.Errorf("create run: next seq: %w", err)
	}
	run.Seq = seq

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, module, plan_hash, source, args, seq, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Module,
		run.PlanHash,
		run.Source,
		argsJSON,
		run.Seq,
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return ir.Run{}, fmt.Errorf("create run: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return ir.Run{}, fmt.Errorf("create run: %w", err)
	} else if n == 0 {
		return ir.Run{}, fmt.Errorf("create run %s: %w", run.ID, ErrRunExists)
	}

	if err := tx.Commit(); err != nil {
		return ir.Run{}, fmt.Errorf("create run: commit: %w", err)
	}

	slog.Info("run created", "run_id", run.ID, "module", run.Module, "seq", run.Seq)
	return run, nil
}

// WriteTick appends a tick record to its run.
// Uses ON CONFLICT(run_id, seq) DO NOTHING so rewriting an identical tick is
// a no-op. Rewriting a tick with a different hash is an error, as is writing
// a tick that does not directly follow the run's last recorded tick.
//
// The referenced run must exist (foreign key constraint).
func (s *Store) WriteTick(ctx context.Context, tick ir.Tick) error {
	inputsJSON, err := marshalObject("inputs", tick.Inputs)
	if err != nil {
		return fmt.Errorf("write tick: %w", err)
	}
	outputsJSON, err := marshalObject("outputs", tick.Outputs)
	if err != nil {
		return fmt.Errorf("write tick: %w", err)
	}
	registersJSON, err := marshalObject("registers", tick.Registers)
	if err != nil {
		return fmt.Errorf("write tick: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write tick: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `
		SELECT hash FROM ticks WHERE run_id = ? AND seq = ?
	`, tick.RunID, tick.Seq).Scan(&existing)
	switch {
	case err == nil:
		if existing != tick.Hash {
			return fmt.Errorf("write tick %d of run %s: conflicting hash %s (stored %s)",
				tick.Seq, tick.RunID, tick.Hash, existing)
		}
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("write tick: %w", err)
	}

	var last int64
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM ticks WHERE run_id = ?
	`, tick.RunID).Scan(&last); err != nil {
		return fmt.Errorf("write tick: %w", err)
	}
	if tick.Seq != last+1 {
		return fmt.Errorf("write tick %d of run %s: expected seq %d", tick.Seq, tick.RunID, last+1)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ticks
		(run_id, seq, inputs, outputs, registers, hash)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		tick.RunID,
		tick.Seq,
		inputsJSON,
		outputsJSON,
		registersJSON,
		tick.Hash,
	)
	if err != nil {
		return fmt.Errorf("write tick: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write tick: commit: %w", err)
	}
	return nil
}
