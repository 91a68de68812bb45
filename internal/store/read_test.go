package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickflow/internal/ir"
)

func TestReadRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want, err := s.CreateRun(ctx, ir.Run{
		ID:            "run-a",
		Module:        "FanController",
		PlanHash:      "abc",
		Source:        "mod FanController;",
		Args:          ir.IRObject{"fan_init": ir.IRBool(false), "tmp": ir.IRFloat(30.5)},
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	})
	require.NoError(t, err)

	got, err := s.ReadRun(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	_, err = s.ReadTick(context.Background(), "missing", 1)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestReadTicks_Empty(t *testing.T) {
	s := createTestStore(t)
	createTestRun(t, s, "run-a", "Accumulator")

	ticks, err := s.ReadTicks(context.Background(), "run-a")
	require.NoError(t, err)
	assert.NotNil(t, ticks, "empty slice, not nil")
	assert.Empty(t, ticks)
}

func TestReadTicks_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	createTestRun(t, s, "run-a", "Accumulator")
	createTestRun(t, s, "run-b", "Accumulator")

	writeTicks(t, s, chainTicks("run-a", 4))
	writeTicks(t, s, chainTicks("run-b", 2))

	ticks, err := s.ReadTicks(context.Background(), "run-a")
	require.NoError(t, err)
	require.Len(t, ticks, 4)
	for i, tick := range ticks {
		assert.Equal(t, int64(i+1), tick.Seq)
		assert.Equal(t, "run-a", tick.RunID)
	}
	assert.Equal(t, ir.IRObject{"output": ir.IRInt(10)}, ticks[3].Outputs)
}

func TestListRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runs, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	createTestRun(t, s, "zeta", "Accumulator")
	createTestRun(t, s, "alpha", "FanController")
	createTestRun(t, s, "mid", "Accumulator")

	runs, err = s.ListRuns(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, runIDs(runs), "creation order, not id order")

	runs, err = s.ListRuns(ctx, "Accumulator")
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "mid"}, runIDs(runs))
}

func runIDs(runs []ir.Run) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}
