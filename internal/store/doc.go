// Package store provides SQLite-backed durable storage for the tracker:
// the document registry, the append-only event log, and the snapshot log
// that holds undone events.
//
// # Critical patterns
//
// Append-only log: live events are inserted and read, never updated.
// "Deleting" an event means moving it wholesale to deleted_events inside
// one transaction (MoveEventToSnapshot); the two logs partition the event's
// lifetime.
//
// Derived state: a document's current state for a dimension is always the
// payload of the most recent state-changed event for that dimension under
// the composite ordering key (time DESC, id DESC). There is no cached
// state column to go stale after an undo.
//
// Ordering: events.id (sqlite AUTOINCREMENT rowid) is the insertion
// sequence and breaks timestamp ties. Every recency query orders by
// (time DESC, id DESC); none relies on storage default order.
//
// Atomicity: one reconciliation step, the primary transition plus all of
// its cascades, runs inside a single Atomic transaction, so an
// interrupted batch never leaves a document half-updated.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
