package engine

import (
	"context"
	"fmt"

	"github.com/roach88/tickflow/internal/ir"
)

// TickWriter persists recorded ticks. Implemented by *store.Store.
type TickWriter interface {
	WriteTick(ctx context.Context, tick ir.Tick) error
}

// Recorder runs ticks on an instance and appends each committed tick to a
// trace. Ticks are hash-chained: every tick's hash covers the previous one.
type Recorder struct {
	inst  *Instance
	w     TickWriter
	runID string
	prev  string
}

// NewRecorder records ticks of inst under runID.
func NewRecorder(inst *Instance, w TickWriter, runID string) *Recorder {
	return &Recorder{inst: inst, w: w, runID: runID}
}

// RunID returns the run the recorder writes to.
func (r *Recorder) RunID() string { return r.runID }

// Step performs one tick and records it. A failed tick is not recorded.
func (r *Recorder) Step(ctx context.Context, inputs map[string]Value) (Outputs, error) {
	out, err := r.inst.Run(inputs)
	if err != nil {
		return nil, err
	}

	tick, err := snapshotTick(r.inst, r.runID, r.prev)
	if err != nil {
		return nil, err
	}
	if err := r.w.WriteTick(ctx, tick); err != nil {
		return nil, fmt.Errorf("record tick %d: %w", tick.Seq, err)
	}
	r.prev = tick.Hash
	return out, nil
}

// snapshotTick captures the last committed tick of inst.
func snapshotTick(inst *Instance, runID, prev string) (ir.Tick, error) {
	tick := ir.Tick{
		RunID:     runID,
		Seq:       inst.Tick(),
		Inputs:    ValuesToIR(inst.lastInputs),
		Outputs:   ValuesToIR(inst.outputs),
		Registers: ValuesToIR(inst.Registers()),
	}
	h, err := ir.TickHash(prev, tick.Seq, tick.Inputs, tick.Outputs, tick.Registers)
	if err != nil {
		return ir.Tick{}, fmt.Errorf("hash tick %d: %w", tick.Seq, err)
	}
	tick.Hash = h
	return tick, nil
}
