// Package record defines the canonical data shapes shared by the feed
// parsers, the reconciliation engine, and the event store.
//
// The central type is Event: a single append-only history entry with a
// kind-discriminated payload. All "current state" questions are answered by
// querying the most recent event under the composite OrderKey (time, then
// insertion sequence); current state is derived, never stored as a
// separately-mutated field.
//
// ChangeRecord is the normalized form of one external feed entry, produced
// by internal/normalize and consumed by internal/reconcile. Snapshot is the
// serialized form an event takes when undone.
package record
