package undo

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stdtrack/regsync/internal/record"
	"github.com/stdtrack/regsync/internal/store"
)

func setup(t *testing.T) (*store.Store, *Manager) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, New(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func appendTransition(t *testing.T, s *store.Store, doc string, at time.Time, prev, next string) record.Event {
	t.Helper()
	var ev record.Event
	require.NoError(t, s.Atomic(context.Background(), func(tx *store.Tx) error {
		if err := tx.CreateDocument(context.Background(), doc, "00"); err != nil {
			return err
		}
		var err error
		ev, err = tx.AppendEvent(context.Background(), record.Event{
			Doc:     doc,
			Time:    at,
			Kind:    record.KindStateChanged,
			Actor:   "(sync)",
			Desc:    "transition",
			Payload: record.StateChanged{Dimension: "iana-action", Prev: prev, Next: next},
		})
		return err
	}))
	return ev
}

func TestUndoRecover_RoundTrip(t *testing.T) {
	s, m := setup(t)
	ctx := context.Background()
	t0 := time.Date(2011, 10, 9, 12, 0, 0, 0, time.UTC)

	appendTransition(t, s, "draft-a", t0, "", "inprog")
	e2 := appendTransition(t, s, "draft-a", t0.Add(time.Hour), "inprog", "waitrfc")

	snap, err := m.Undo(ctx, e2.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "draft-a", snap.Doc)

	// State rewinds to the previous transition.
	state, err := s.View().CurrentState(ctx, "draft-a", "iana-action")
	require.NoError(t, err)
	assert.Equal(t, "inprog", state)

	recovered, err := m.Recover(ctx, snap.ID)
	require.NoError(t, err)
	assert.NotEqual(t, e2.ID, recovered.ID, "recovery assigns a fresh sequence")
	assert.Equal(t, e2.Time, recovered.Time, "original timestamp preserved")

	state, err = s.View().CurrentState(ctx, "draft-a", "iana-action")
	require.NoError(t, err)
	assert.Equal(t, "waitrfc", state)

	// The snapshot is consumed.
	_, err = m.Recover(ctx, snap.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUndo_NonLatestEvent(t *testing.T) {
	s, m := setup(t)
	ctx := context.Background()
	t0 := time.Date(2011, 10, 9, 12, 0, 0, 0, time.UTC)

	e1 := appendTransition(t, s, "draft-a", t0, "", "inprog")
	appendTransition(t, s, "draft-a", t0.Add(time.Hour), "inprog", "waitrfc")

	// Undoing an older event is accepted; the latest event still defines
	// the current state.
	_, err := m.Undo(ctx, e1.ID)
	require.NoError(t, err)

	state, err := s.View().CurrentState(ctx, "draft-a", "iana-action")
	require.NoError(t, err)
	assert.Equal(t, "waitrfc", state)

	events, err := s.View().History(ctx, "draft-a")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestUndo_MissingEvent(t *testing.T) {
	_, m := setup(t)
	_, err := m.Undo(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
