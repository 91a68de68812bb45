package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickflow/internal/ir"
)

func TestCreateRun_AssignsSeq(t *testing.T) {
	s := createTestStore(t)

	first := createTestRun(t, s, "run-a", "Accumulator")
	second := createTestRun(t, s, "run-b", "Accumulator")

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
}

func TestCreateRun_Duplicate(t *testing.T) {
	s := createTestStore(t)
	createTestRun(t, s, "run-a", "Accumulator")

	_, err := s.CreateRun(context.Background(), ir.Run{ID: "run-a", Module: "Other"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunExists))

	run, err := s.ReadRun(context.Background(), "run-a")
	require.NoError(t, err)
	assert.Equal(t, "Accumulator", run.Module, "original row is untouched")
}

func TestWriteTick_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-a", "Accumulator")

	tick := ir.Tick{
		RunID:     "run-a",
		Seq:       1,
		Inputs:    ir.IRObject{"p": ir.IRArray{ir.IRInt(1), ir.IRFloat(2.5)}},
		Outputs:   ir.IRObject{"fan": ir.IRBool(true)},
		Registers: ir.IRObject{},
		Hash:      "h1",
	}
	require.NoError(t, s.WriteTick(ctx, tick))

	got, err := s.ReadTick(ctx, "run-a", 1)
	require.NoError(t, err)
	assert.Equal(t, tick, got)
}

func TestWriteTick_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-a", "Accumulator")

	ticks := chainTicks("run-a", 2)
	writeTicks(t, s, ticks)

	// Rewriting an identical tick is a no-op.
	require.NoError(t, s.WriteTick(ctx, ticks[1]))

	conflicting := ticks[1]
	conflicting.Hash = "different"
	err := s.WriteTick(ctx, conflicting)
	assert.ErrorContains(t, err, "conflicting hash")

	got, err := s.ReadTicks(ctx, "run-a")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestWriteTick_RejectsGap(t *testing.T) {
	s := createTestStore(t)
	createTestRun(t, s, "run-a", "Accumulator")

	ticks := chainTicks("run-a", 3)
	err := s.WriteTick(context.Background(), ticks[2])
	assert.ErrorContains(t, err, "write tick 3 of run run-a: expected seq 1")
}

func TestWriteTick_UnknownRun(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteTick(context.Background(), chainTicks("ghost", 1)[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FOREIGN KEY")
}
