package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickflow/internal/compiler"
	"github.com/roach88/tickflow/internal/engine"
	"github.com/roach88/tickflow/internal/ir"
)

var (
	_ engine.TickWriter  = (*Store)(nil)
	_ engine.TraceReader = (*Store)(nil)
)

const accumulatorSrc = `
mod Accumulator;
In { input: Int }
Out { output: Int }
Args { init: Int }
let output = input + prev;
let prev: Int <- delay init -< output;
`

// TestTrace_RecordVerifyReplay records a run through the engine, then
// verifies and replays it from the database.
func TestTrace_RecordVerifyReplay(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	plan, err := compiler.CompileSource("acc.tf", []byte(accumulatorSrc))
	require.NoError(t, err)
	hash, err := plan.Hash()
	require.NoError(t, err)

	runID := engine.NewFixedGenerator("run-1").Generate()
	_, err = s.CreateRun(ctx, ir.Run{
		ID:            runID,
		Module:        plan.Module,
		PlanHash:      hash,
		Source:        accumulatorSrc,
		Args:          ir.IRObject{"init": ir.IRInt(10)},
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	})
	require.NoError(t, err)

	inst, err := engine.New(plan, map[string]engine.Value{"init": engine.Int(10)})
	require.NoError(t, err)
	rec := engine.NewRecorder(inst, s, runID)
	for _, x := range []int64{1, 2, 3} {
		_, err := rec.Step(ctx, map[string]engine.Value{"input": engine.Int(x)})
		require.NoError(t, err)
	}

	n, err := s.VerifyRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	res, err := engine.Replay(ctx, s, plan, runID)
	require.NoError(t, err)
	assert.True(t, res.OK(), "divergence: %v", res.Divergence)
	assert.Equal(t, 3, res.Ticks)

	state, err := s.GetRunState(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"prev": ir.IRInt(16)}, state.Registers)
}
