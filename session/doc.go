// Package session wraps a Bun database handle into a unit of interaction:
// a narrow facade over connection settings, an in-process change tracker,
// typed entity sets with an immutable query builder, and SaveChanges, which
// flushes the tracked changes in a single transaction.
//
// Bun does not track entity state. A session records what the caller stages
// with Add, Update and Remove and turns it into INSERT, UPDATE and DELETE
// statements on SaveChanges. Entities returned by queries are not tracked.
package session
