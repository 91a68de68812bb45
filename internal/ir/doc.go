// Package ir provides the canonical value representation shared by the
// engine, the trace store and the test harness.
//
// ir imports nothing internal. Key design constraints:
//   - Values are sealed IRValue types; there is no null
//   - Canonical JSON follows RFC 8785 (UTF-16 key order, NFC strings)
//   - Floats must be finite to be recorded or hashed
//   - Logical clocks (seq) only, never wall-clock timestamps
//   - All JSON tags use snake_case
package ir
