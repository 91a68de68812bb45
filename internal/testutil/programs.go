package testutil

import (
	"testing"

	"github.com/roach88/tickflow/internal/compiler"
	"github.com/roach88/tickflow/internal/store"
)

// Sample programs shared by tests across packages.
const (
	Accumulator = `mod Accumulator;

In { input: Int }
Out { output: Int }
Args { init: Int }

let output = input + prev;
let prev: Int <- delay init -< output;
`

	MultiDelays = `mod MultiDelays;

In { input: Int }
Out { out1: Int, out2: Int }

let out1 = c1;
let out2 = c2;
let c2: Int <- delay 0 -< c1;
let c1: Int <- delay 0 -< input;
`

	FanController = `mod FanController;

Args { fan_init: bool, tmp: f32 }
In { hmd: f32 }
Out { di: f32, fan: bool }

fn calc_di(tmp: f32, hmd: f32) -> f32
    = 0.81 * tmp + 0.01 * hmd * (0.99 * tmp - 14.3) + 46.3;

let di = calc_di(tmp, hmd);
let fan = di >= th;
let fan_delayed: bool <- delay fan_init -< fan;
let th = 75.0 + if fan_delayed then -0.5 else 0.5;
`
)

// MustCompile compiles src and fails the test on any diagnostic.
func MustCompile(t testing.TB, src string) *compiler.Plan {
	t.Helper()
	plan, err := compiler.CompileSource("test.tf", []byte(src))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return plan
}

// OpenStore opens an in-memory trace store closed at test cleanup.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}
