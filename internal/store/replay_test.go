package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickflow/internal/ir"
)

func TestGetRunState(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-a", "Accumulator")

	state, err := s.GetRunState(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, 0, state.TickCount)
	assert.Equal(t, int64(0), state.LastSeq)
	assert.Empty(t, state.LastHash)
	assert.Equal(t, ir.IRObject{}, state.Registers)

	ticks := chainTicks("run-a", 3)
	writeTicks(t, s, ticks)

	state, err = s.GetRunState(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, "Accumulator", state.Run.Module)
	assert.Equal(t, 3, state.TickCount)
	assert.Equal(t, int64(3), state.LastSeq)
	assert.Equal(t, ticks[2].Hash, state.LastHash)
	assert.Equal(t, ir.IRObject{"prev": ir.IRInt(6)}, state.Registers)

	_, err = s.GetRunState(ctx, "missing")
	assert.Error(t, err)
}

func TestVerifyRun(t *testing.T) {
	s := createTestStore(t)
	createTestRun(t, s, "run-a", "Accumulator")
	writeTicks(t, s, chainTicks("run-a", 5))

	n, err := s.VerifyRun(context.Background(), "run-a")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestVerifyRun_DetectsTampering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-a", "Accumulator")
	writeTicks(t, s, chainTicks("run-a", 3))

	_, err := s.db.Exec(`UPDATE ticks SET outputs = '{"output":42}' WHERE run_id = 'run-a' AND seq = 2`)
	require.NoError(t, err)

	n, err := s.VerifyRun(ctx, "run-a")
	var chainErr *ChainError
	require.ErrorAs(t, err, &chainErr)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(2), chainErr.Seq)
	assert.Equal(t, "run run-a: tick 2: hash mismatch", chainErr.Error())
}

func TestVerifyRun_DetectsGap(t *testing.T) {
	s := createTestStore(t)
	createTestRun(t, s, "run-a", "Accumulator")
	writeTicks(t, s, chainTicks("run-a", 3))

	_, err := s.db.Exec(`DELETE FROM ticks WHERE run_id = 'run-a' AND seq = 2`)
	require.NoError(t, err)

	_, err = s.VerifyRun(context.Background(), "run-a")
	var chainErr *ChainError
	require.ErrorAs(t, err, &chainErr)
	assert.Equal(t, int64(2), chainErr.Seq)
	assert.Contains(t, chainErr.Reason, "missing")
}
