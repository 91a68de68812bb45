package store

import (
	"context"
	"fmt"

	"github.com/roach88/tickflow/internal/ir"
)

// RunState summarizes a recorded run for inspection and resumption.
type RunState struct {
	Run       ir.Run
	TickCount int
	LastSeq   int64  // 0 when no tick is recorded
	LastHash  string // hash of the last tick, the chain head
	Registers ir.IRObject
}

// GetRunState returns the run record together with the position of its
// chain head. Registers holds the storage committed by the last tick.
func (s *Store) GetRunState(ctx context.Context, runID string) (RunState, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return RunState{}, fmt.Errorf("get run state: %w", err)
	}

	state := RunState{Run: run, Registers: ir.IRObject{}}

	var last int64
	var count int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0), COUNT(*) FROM ticks WHERE run_id = ?
	`, runID).Scan(&last, &count); err != nil {
		return RunState{}, fmt.Errorf("get run state: %w", err)
	}
	state.LastSeq = last
	state.TickCount = count

	if last == 0 {
		return state, nil
	}

	tick, err := s.ReadTick(ctx, runID, last)
	if err != nil {
		return RunState{}, fmt.Errorf("get run state: %w", err)
	}
	state.LastHash = tick.Hash
	state.Registers = tick.Registers

	return state, nil
}

// ChainError reports the first tick whose stored record breaks the hash
// chain of its run.
type ChainError struct {
	RunID  string
	Seq    int64
	Reason string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("run %s: tick %d: %s", e.RunID, e.Seq, e.Reason)
}

// VerifyRun checks the structural integrity of a recorded run without
// executing it: tick numbers must be contiguous from 1 and every hash must
// match the canonical content of its tick chained on its predecessor.
// It returns the number of verified ticks, or a *ChainError naming the first
// broken tick.
func (s *Store) VerifyRun(ctx context.Context, runID string) (int, error) {
	if _, err := s.ReadRun(ctx, runID); err != nil {
		return 0, fmt.Errorf("verify run: %w", err)
	}

	ticks, err := s.ReadTicks(ctx, runID)
	if err != nil {
		return 0, fmt.Errorf("verify run: %w", err)
	}

	prev := ""
	for i, tick := range ticks {
		want := int64(i + 1)
		if tick.Seq != want {
			return i, &ChainError{RunID: runID, Seq: want, Reason: fmt.Sprintf("missing (next recorded tick is %d)", tick.Seq)}
		}
		hash, err := ir.TickHash(prev, tick.Seq, tick.Inputs, tick.Outputs, tick.Registers)
		if err != nil {
			return i, fmt.Errorf("verify run: %w", err)
		}
		if hash != tick.Hash {
			return i, &ChainError{RunID: runID, Seq: tick.Seq, Reason: "hash mismatch"}
		}
		prev = tick.Hash
	}

	return len(ticks), nil
}
