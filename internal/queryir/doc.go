// Package queryir is a small query representation over recorded ticks.
//
// A query names one run and filters its ticks by predicates on the values
// a tick carries: its inputs, its outputs and the registers it committed.
// Backends translate queries; querysql compiles them to SQLite.
//
//	[--where text] -> [queryir.Ticks] -> [querysql] -> SQL over the ticks table
//
// Query and Predicate are sealed: only types in this package implement
// them, so backends can switch exhaustively.
//
//	switch p := pred.(type) {
//	case *Equals:
//	case *Compare:
//	case *Changed:
//	case *And:
//	}
//
// Literal values are ir.IRValue scalars (bool, int or float), matching the
// values the engine records.
package queryir
