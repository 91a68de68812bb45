package engine

// # Replay
//
// A recorded run is reproducible by construction: an instance is a pure
// function of its plan, its Args and the input stream. Replay rebuilds the
// instance from the stored Args, feeds it the stored inputs tick by tick and
// compares every tick it produces with the stored one:
//
//	[Run record] -> New(plan, args) -> for each stored tick:
//	                                     Run(inputs)
//	                                     snapshot -> compare outputs,
//	                                                 registers, hash
//
// Seq numbers come from the instance's logical clock, never from wall time,
// and tick hashes are computed over RFC 8785 canonical JSON, so an unchanged
// program replays to byte-identical ticks. The first tick that differs is
// reported; replay stops there.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/tickflow/internal/compiler"
	"github.com/roach88/tickflow/internal/ir"
)

// ErrPlanMismatch is returned when a run was recorded with a different plan.
var ErrPlanMismatch = errors.New("plan hash mismatch")

// TraceReader reads recorded runs. Implemented by *store.Store.
type TraceReader interface {
	ReadRun(ctx context.Context, runID string) (ir.Run, error)
	ReadTicks(ctx context.Context, runID string) ([]ir.Tick, error)
}

// Divergence describes the first replayed tick that differs from the trace.
type Divergence struct {
	Seq      int64
	Field    string // "outputs", "registers", "hash" or "error"
	Expected ir.IRValue
	Actual   ir.IRValue
	Err      error // set when the replayed tick failed
}

func (d *Divergence) String() string {
	if d.Err != nil {
		return fmt.Sprintf("tick %d: replay failed: %v", d.Seq, d.Err)
	}
	return fmt.Sprintf("tick %d: %s differ: expected %s, got %s",
		d.Seq, d.Field, ir.String(d.Expected), ir.String(d.Actual))
}

// ReplayResult summarises a replay.
type ReplayResult struct {
	RunID      string
	Ticks      int // ticks replayed, including a divergent one
	Divergence *Divergence
}

// OK reports whether every tick matched.
func (r *ReplayResult) OK() bool { return r.Divergence == nil }

// Replay re-executes run runID of r with plan and reports the first tick
// that differs from the recording.
func Replay(ctx context.Context, r TraceReader, plan *compiler.Plan, runID string) (*ReplayResult, error) {
	run, err := r.ReadRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	hash, err := plan.Hash()
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	if run.PlanHash != hash {
		return nil, fmt.Errorf("replay %s: %w: recorded %s, got %s", runID, ErrPlanMismatch, run.PlanHash, hash)
	}

	ticks, err := r.ReadTicks(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	args, err := ValuesFromIR(run.Args)
	if err != nil {
		return nil, fmt.Errorf("replay %s: args: %w", runID, err)
	}
	inst, err := New(plan, args)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", runID, err)
	}

	res := &ReplayResult{RunID: runID}
	prev := ""
	for _, want := range ticks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Ticks++

		inputs, err := ValuesFromIR(want.Inputs)
		if err != nil {
			return nil, fmt.Errorf("replay %s: tick %d inputs: %w", runID, want.Seq, err)
		}
		if _, err := inst.Run(inputs); err != nil {
			res.Divergence = &Divergence{Seq: want.Seq, Field: "error", Err: err}
			break
		}

		got, err := snapshotTick(inst, runID, prev)
		if err != nil {
			return nil, fmt.Errorf("replay %s: %w", runID, err)
		}
		if d := diffTick(want, got); d != nil {
			res.Divergence = d
			break
		}
		prev = got.Hash
	}

	slog.Debug("replay finished", "run", runID, "ticks", res.Ticks, "ok", res.OK())
	return res, nil
}

func diffTick(want, got ir.Tick) *Divergence {
	switch {
	case !ir.Equal(want.Outputs, got.Outputs):
		return &Divergence{Seq: want.Seq, Field: "outputs", Expected: want.Outputs, Actual: got.Outputs}
	case !ir.Equal(want.Registers, got.Registers):
		return &Divergence{Seq: want.Seq, Field: "registers", Expected: want.Registers, Actual: got.Registers}
	case want.Hash != got.Hash:
		return &Divergence{Seq: want.Seq, Field: "hash", Expected: ir.IRString(want.Hash), Actual: ir.IRString(got.Hash)}
	}
	return nil
}
