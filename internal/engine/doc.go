// Package engine is the query and mutation surface over the record store.
//
// Queries translate API filter inputs into filter predicates, evaluate
// them against live records and shape each result through the resolver.
// Mutations create, update and soft-delete charges and pumps and return
// payloads tagged by the variant discriminator.
//
// Error model:
//   - A missing record on update is an error payload, not a Go error
//   - A missing record on delete is false, not a Go error
//   - A failed durable write is always a Go error (ErrCodePersistence);
//     it is never folded into a payload
//
// Engine methods are safe for concurrent use; each collection serializes
// its own read-modify-persist sequence.
package engine
