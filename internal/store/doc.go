// Package store provides SQLite-backed history of filtering runs.
//
// Every run records its configuration, counts, result digest and the list
// of qualifying pairs it found. Runs are append-only.
//
// # Ordering
//
// Runs are ordered by an integer seq assigned at insert time, never by the
// started_at timestamp, so listings are stable even when the wall clock
// moves backwards.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
