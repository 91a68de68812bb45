// Package harness runs conformance scenarios against the compiler and the
// engine.
//
// Every scenario compiles its program, constructs an instance and feeds it
// the scenario's ticks through an engine.Recorder backed by a fresh
// in-memory store. The recorded hash chain is verified before assertions
// run, so a passing scenario also exercises the trace format.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: accumulator
//	description: "Running sum seeded from Args"
//	program: ../programs/accumulator.tf   # or source: | ...
//	run_id: acc-0001
//	args: { init: 0 }
//	ticks:
//	  - inputs: { input: 1 }
//	    expect: { output: 1 }
//	  - inputs: { input: 2 }
//	    expect: { output: 3 }
//	assertions:
//	  - type: register_equals
//	    register: prev
//	    value: 3
//
// A scenario that expects compilation or construction to fail replaces ticks
// with a top-level expect_error:
//
//	expect_error: { kind: CyclicDependency, name: a }
//
// A tick may expect a runtime error instead of outputs:
//
//	- inputs: { x: 0 }
//	  expect_error: { kind: DIVISION_BY_ZERO, name: o }
//
// # Assertion Types
//
//   - output_equals: an output of a committed tick (tick: 0 selects the last)
//   - register_equals: a register after the last committed tick
//   - tick_count: the number of committed ticks
//
// Expected numbers match computed floats within a relative tolerance of
// 1e-6; all other values must be equal.
//
// # Deterministic Testing
//
// Every scenario runs with a fixed run ID and an in-memory SQLite database,
// and tick numbers come from the instance's logical clock. The same scenario
// therefore produces a byte-identical trace, which RunWithGolden compares
// against testdata/golden.
package harness
