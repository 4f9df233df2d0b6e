// Package store provides a SQLite-backed library of recorded traces.
//
// Each row holds one serialized trace together with the device node it was
// recorded from. Bodies are stored in the trace text format, so a row can be
// exported byte for byte and loaded back with the trace package.
//
// # Ordering
//
// Rows are ordered by seq, a logical counter assigned on insert. Timestamps
// are never stored. Every list query uses ORDER BY seq ASC, id ASC COLLATE
// BINARY so results are identical across runs.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
