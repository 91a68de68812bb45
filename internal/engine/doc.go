// Package engine interprets compiled tickflow plans.
//
// An Instance is one running copy of a module. It is created from a
// compiler.Plan and a set of Args values, and then driven one tick at a time.
//
// ARCHITECTURE:
//
// Single-Threaded Ticks:
// Each call to Run consumes one input sample and is evaluated to completion
// before it returns. There is no background goroutine and no queue. Callers
// serialise ticks on an instance.
//
// Tick Evaluation:
//  1. Input values are checked against the In fields and coerced
//  2. Combinational equations are evaluated in plan order
//  3. Every register's next expression is evaluated against pre-tick storage
//  4. All new register values are committed at once
//  5. Outputs are published and the logical clock advances
//
// A runtime error in steps 1-3 aborts the tick and nothing is committed.
//
// CRITICAL PATTERNS:
//
// Staged Commit:
// Registers never observe each other's new values within a tick. A register
// whose next expression reads another register always sees that register's
// pre-tick value, whatever the update order.
//
// Logical Clock:
// Ticks are numbered by Clock, never by wall time, so a replay of a
// recorded run produces identical seq numbers and tick hashes.
package engine
