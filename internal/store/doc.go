// Package store holds the record collections and keeps them durable.
//
// Every collection lives in memory as an ordered slice of ir.IRObject
// records. Each mutating call rewrites the whole collection through a
// Persister before it returns, so a write is visible to the next read and
// survives a restart.
//
// # Critical Patterns
//
// Soft Delete Conventions
//   - DeletedAtMarker: a truthy deletedAt marks the record deleted
//   - DeletedFlag: a truthy deleted boolean marks the record deleted
//   - NoSoftDelete: every record is live; the collection is read-only
//
// Records are never physically removed. Default reads (All, Get, Find) see
// live records only.
//
// Identity
//   - id and createdAt are preserved by Update; updatedAt is always refreshed
//   - Create does not enforce id uniqueness: a collision is logged and the
//     first live match wins on lookup
//
// Locking
//   - One mutex per collection guards the read-modify-persist sequence
//   - Predicates are compiled before the lock is taken, so a Ref back into
//     the same collection cannot deadlock
//
// # Persisters
//
//   - JSONFiles: one <collection>.json file per collection, 2-space indent,
//     written to a temp file and renamed into place
//   - SQLite: one row per collection in the collections table, payload is
//     canonical JSON; same pragmas as every other SQLite database here
//   - Memory: in-process, used by tests and the scenario harness
//   - Fallback: reads a primary and seeds missing collections from another
package store
