// Package store provides SQLite-backed durable storage for tickflow traces.
//
// A trace is an append-only log of two record kinds:
//   - Runs: one row per instance, holding the module source, its plan hash
//     and the Args it was constructed with
//   - Ticks: one row per evaluated tick, holding inputs, outputs and the
//     committed register storage
//
// Tick rows carry a hash chained on the previous tick of the same run, so
// VerifyRun can detect edits, gaps and reordering without re-executing the
// program. Semantic replay lives in the engine package.
//
// # Ordering
//
// All ordering uses seq INTEGER (logical clock), never timestamps. Every
// multi-row query orders by seq ASC so results are identical across
// processes.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Values are stored as RFC 8785 canonical JSON produced by the ir package.
package store
