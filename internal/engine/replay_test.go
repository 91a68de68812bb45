package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickflow/internal/compiler"
	"github.com/roach88/tickflow/internal/ir"
)

// memTrace is an in-memory TickWriter and TraceReader.
type memTrace struct {
	run   ir.Run
	ticks []ir.Tick
	fail  error
}

func (m *memTrace) WriteTick(_ context.Context, tick ir.Tick) error {
	if m.fail != nil {
		return m.fail
	}
	m.ticks = append(m.ticks, tick)
	return nil
}

func (m *memTrace) ReadRun(_ context.Context, runID string) (ir.Run, error) {
	if runID != m.run.ID {
		return ir.Run{}, errors.New("run not found")
	}
	return m.run, nil
}

func (m *memTrace) ReadTicks(_ context.Context, runID string) ([]ir.Tick, error) {
	return m.ticks, nil
}

// record runs the accumulator over inputs and returns its trace.
func record(t *testing.T, plan *compiler.Plan, inputs ...Int) *memTrace {
	t.Helper()
	ctx := context.Background()

	hash, err := plan.Hash()
	require.NoError(t, err)
	trace := &memTrace{run: ir.Run{
		ID:       "run-1",
		Module:   plan.Module,
		PlanHash: hash,
		Args:     ir.IRObject{"init": ir.IRInt(0)},
	}}

	inst, err := New(plan, map[string]Value{"init": Int(0)})
	require.NoError(t, err)
	rec := NewRecorder(inst, trace, "run-1")
	assert.Equal(t, "run-1", rec.RunID())

	for _, x := range inputs {
		_, err := rec.Step(ctx, in("input", x))
		require.NoError(t, err)
	}
	return trace
}

func TestRecorder_HashChain(t *testing.T) {
	trace := record(t, compile(t, accumulatorSrc), 1, 2, 3)
	require.Len(t, trace.ticks, 3)

	prev := ""
	for i, tick := range trace.ticks {
		assert.Equal(t, int64(i+1), tick.Seq)
		assert.Equal(t, "run-1", tick.RunID)
		assert.Equal(t, ir.MustTickHash(prev, tick.Seq, tick.Inputs, tick.Outputs, tick.Registers), tick.Hash)
		prev = tick.Hash
	}

	last := trace.ticks[2]
	assert.Equal(t, ir.IRObject{"input": ir.IRInt(3)}, last.Inputs)
	assert.Equal(t, ir.IRObject{"output": ir.IRInt(6)}, last.Outputs)
	assert.Equal(t, ir.IRObject{"prev": ir.IRInt(6)}, last.Registers)
}

func TestRecorder_FailedTickNotRecorded(t *testing.T) {
	plan := compile(t, accumulatorSrc)
	inst, err := New(plan, map[string]Value{"init": Int(0)})
	require.NoError(t, err)

	trace := &memTrace{}
	rec := NewRecorder(inst, trace, "run-1")

	_, err = rec.Step(context.Background(), nil)
	require.Error(t, err)
	assert.Empty(t, trace.ticks)

	trace.fail = errors.New("disk full")
	_, err = rec.Step(context.Background(), in("input", Int(1)))
	assert.ErrorContains(t, err, "record tick 1: disk full")
}

func TestReplay_Identical(t *testing.T) {
	plan := compile(t, accumulatorSrc)
	trace := record(t, plan, 1, 2, 3)

	// A fresh compile of the same source replays cleanly.
	res, err := Replay(context.Background(), trace, compile(t, accumulatorSrc), "run-1")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, 3, res.Ticks)
	assert.Equal(t, "run-1", res.RunID)
}

func TestReplay_DetectsDivergence(t *testing.T) {
	plan := compile(t, accumulatorSrc)
	trace := record(t, plan, 1, 2, 3)
	trace.ticks[1].Outputs = ir.IRObject{"output": ir.IRInt(99)}

	res, err := Replay(context.Background(), trace, plan, "run-1")
	require.NoError(t, err)
	require.False(t, res.OK())
	assert.Equal(t, 2, res.Ticks)
	assert.Equal(t, int64(2), res.Divergence.Seq)
	assert.Equal(t, "outputs", res.Divergence.Field)
	assert.Equal(t, `tick 2: outputs differ: expected {"output":99}, got {"output":3}`, res.Divergence.String())
}

func TestReplay_DetectsBrokenChain(t *testing.T) {
	plan := compile(t, accumulatorSrc)
	trace := record(t, plan, 1, 2)
	trace.ticks[0].Hash = "bogus"

	res, err := Replay(context.Background(), trace, plan, "run-1")
	require.NoError(t, err)
	require.NotNil(t, res.Divergence)
	assert.Equal(t, "hash", res.Divergence.Field)
	assert.Equal(t, int64(1), res.Divergence.Seq)
}

func TestReplay_FailingTick(t *testing.T) {
	plan := compile(t, accumulatorSrc)
	trace := record(t, plan, 1)
	trace.ticks[0].Inputs = ir.IRObject{"input": ir.IRBool(true)}

	res, err := Replay(context.Background(), trace, plan, "run-1")
	require.NoError(t, err)
	require.NotNil(t, res.Divergence)
	assert.Equal(t, "error", res.Divergence.Field)
	assert.True(t, IsCode(res.Divergence.Err, ErrCodeTypeMismatch))
}

func TestReplay_PlanMismatch(t *testing.T) {
	trace := record(t, compile(t, accumulatorSrc), 1)

	other := compile(t, `
mod Accumulator;
In { input: Int }
Out { output: Int }
Args { init: Int }
let output = input - prev;
let prev: Int <- delay init -< output;
`)

	_, err := Replay(context.Background(), trace, other, "run-1")
	assert.ErrorIs(t, err, ErrPlanMismatch)

	_, err = Replay(context.Background(), trace, other, "nope")
	assert.ErrorContains(t, err, "run not found")
}
