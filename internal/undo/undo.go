// Package undo removes events from the live log and brings them back.
//
// Undoing an event moves it wholesale into the snapshot log; because
// current state is always derived from the most recent remaining event,
// no cached value needs invalidating. Recovery re-appends the snapshot
// as a new live event with a fresh insertion sequence and the original
// timestamp, so the document's state reads exactly as it did before the
// undo.
package undo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stdtrack/regsync/internal/record"
	"github.com/stdtrack/regsync/internal/store"
)

// Manager performs undo and recover operations against one store.
type Manager struct {
	store  *store.Store
	logger *slog.Logger
}

// New returns a Manager. A nil logger falls back to the default.
func New(s *store.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: s, logger: logger}
}

// Undo moves the event with the given insertion sequence to the snapshot
// log and returns the snapshot. The event does not have to be the most
// recent one for its document or dimension; removing an older event
// simply changes what the derived state reads as afterwards.
func (m *Manager) Undo(ctx context.Context, eventID int64) (record.Snapshot, error) {
	id := uuid.NewString()

	var snap record.Snapshot
	err := m.store.Atomic(ctx, func(tx *store.Tx) error {
		var err error
		snap, err = tx.MoveEventToSnapshot(ctx, id, eventID, time.Now())
		return err
	})
	if err != nil {
		return record.Snapshot{}, fmt.Errorf("undo event %d: %w", eventID, err)
	}

	m.logger.Info("event undone", "event", eventID, "snapshot", snap.ID, "doc", snap.Doc)
	return snap, nil
}

// Recover re-appends an undone event as a new live event, preserving the
// original timestamp, and removes the snapshot.
func (m *Manager) Recover(ctx context.Context, snapshotID string) (record.Event, error) {
	var recovered record.Event
	err := m.store.Atomic(ctx, func(tx *store.Tx) error {
		snap, err := tx.GetSnapshot(ctx, snapshotID)
		if err != nil {
			return err
		}
		ev, err := record.DecodeSnapshot(snap.Body)
		if err != nil {
			return fmt.Errorf("decode snapshot %s: %w", snapshotID, err)
		}
		recovered, err = tx.AppendEvent(ctx, ev)
		if err != nil {
			return err
		}
		return tx.DeleteSnapshot(ctx, snapshotID)
	})
	if err != nil {
		return record.Event{}, fmt.Errorf("recover snapshot %s: %w", snapshotID, err)
	}

	m.logger.Info("event recovered", "snapshot", snapshotID, "event", recovered.ID, "doc", recovered.Doc)
	return recovered, nil
}
