package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/tickflow/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun records a run with minimal required fields.
func createTestRun(t *testing.T, s *Store, id, module string) ir.Run {
	t.Helper()
	run, err := s.CreateRun(context.Background(), ir.Run{
		ID:            id,
		Module:        module,
		PlanHash:      "test-hash",
		Source:        "mod " + module + ";",
		Args:          ir.IRObject{},
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	})
	if err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}
	return run
}

// chainTicks builds n ticks of an accumulator run with a valid hash chain.
func chainTicks(runID string, n int) []ir.Tick {
	ticks := make([]ir.Tick, 0, n)
	prev := ""
	sum := int64(0)
	for i := 1; i <= n; i++ {
		sum += int64(i)
		tick := ir.Tick{
			RunID:     runID,
			Seq:       int64(i),
			Inputs:    ir.IRObject{"input": ir.IRInt(i)},
			Outputs:   ir.IRObject{"output": ir.IRInt(sum)},
			Registers: ir.IRObject{"prev": ir.IRInt(sum)},
		}
		tick.Hash = ir.MustTickHash(prev, tick.Seq, tick.Inputs, tick.Outputs, tick.Registers)
		prev = tick.Hash
		ticks = append(ticks, tick)
	}
	return ticks
}

// writeTicks writes ticks in order and fails the test on error.
func writeTicks(t *testing.T, s *Store, ticks []ir.Tick) {
	t.Helper()
	for _, tick := range ticks {
		if err := s.WriteTick(context.Background(), tick); err != nil {
			t.Fatalf("WriteTick(%d) failed: %v", tick.Seq, err)
		}
	}
}
