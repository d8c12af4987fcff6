package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stdtrack/regsync/internal/record"
)

func TestMoveEventToSnapshot(t *testing.T) {
	s := openTestStore(t)
	mustCreateDoc(t, s, "draft-a", "00")
	ctx := context.Background()

	t0 := time.Date(2011, 10, 9, 12, 0, 0, 0, time.UTC)
	appendStateEvent(t, s, "draft-a", t0, "iana-action", "", "inprog")
	e2 := appendStateEvent(t, s, "draft-a", t0.Add(time.Hour), "iana-action", "inprog", "waitrfc")

	now := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	var snap record.Snapshot
	require.NoError(t, s.Atomic(ctx, func(tx *Tx) error {
		var err error
		snap, err = tx.MoveEventToSnapshot(ctx, "8d2e7f1a", e2.ID, now)
		return err
	}))

	assert.Equal(t, "8d2e7f1a", snap.ID)
	assert.Equal(t, "draft-a", snap.Doc)
	assert.Equal(t, record.KindStateChanged, snap.Kind)
	assert.Equal(t, now, snap.DeletedAt)

	// The live row is gone and derived state rewinds.
	_, err := s.View().GetEvent(ctx, e2.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	state, err := s.View().CurrentState(ctx, "draft-a", "iana-action")
	require.NoError(t, err)
	assert.Equal(t, "inprog", state)

	// The snapshot body decodes back to the original event.
	got, err := s.View().GetSnapshot(ctx, "8d2e7f1a")
	require.NoError(t, err)
	decoded, err := record.DecodeSnapshot(got.Body)
	require.NoError(t, err)
	assert.Equal(t, e2.Time, decoded.Time)
	sc, ok := decoded.Payload.(record.StateChanged)
	require.True(t, ok)
	assert.Equal(t, "waitrfc", sc.Next)
}

func TestMoveEventToSnapshot_MissingEvent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.Atomic(ctx, func(tx *Tx) error {
		_, err := tx.MoveEventToSnapshot(ctx, "snap", 999, time.Now())
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSnapshot(t *testing.T) {
	s := openTestStore(t)
	mustCreateDoc(t, s, "draft-a", "00")
	ctx := context.Background()

	e := appendStateEvent(t, s, "draft-a", time.Date(2011, 10, 9, 12, 0, 0, 0, time.UTC), "iesg", "", "approved")
	require.NoError(t, s.Atomic(ctx, func(tx *Tx) error {
		_, err := tx.MoveEventToSnapshot(ctx, "snap-1", e.ID, time.Now())
		return err
	}))

	require.NoError(t, s.Atomic(ctx, func(tx *Tx) error {
		return tx.DeleteSnapshot(ctx, "snap-1")
	}))
	err := s.Atomic(ctx, func(tx *Tx) error {
		return tx.DeleteSnapshot(ctx, "snap-1")
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSnapshots_MostRecentFirst(t *testing.T) {
	s := openTestStore(t)
	mustCreateDoc(t, s, "draft-a", "00")
	ctx := context.Background()

	t0 := time.Date(2011, 10, 9, 12, 0, 0, 0, time.UTC)
	e1 := appendStateEvent(t, s, "draft-a", t0, "iesg", "", "lc")
	e2 := appendStateEvent(t, s, "draft-a", t0.Add(time.Hour), "iesg", "lc", "iesg-eva")

	require.NoError(t, s.Atomic(ctx, func(tx *Tx) error {
		if _, err := tx.MoveEventToSnapshot(ctx, "older", e1.ID, t0.Add(24*time.Hour)); err != nil {
			return err
		}
		_, err := tx.MoveEventToSnapshot(ctx, "newer", e2.ID, t0.Add(48*time.Hour))
		return err
	}))

	snaps, err := s.View().ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "newer", snaps[0].ID)
	assert.Equal(t, "older", snaps[1].ID)
}

func TestDiscrepancies(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2011, 10, 9, 12, 0, 0, 0, time.UTC)

	setState := func(doc, dimension, next string) {
		t.Helper()
		appendStateEvent(t, s, doc, t0, dimension, "", next)
	}

	// Approved by the IESG but never reached the queue.
	mustCreateDoc(t, s, "draft-approved", "00")
	setState("draft-approved", "iesg", "ann")

	// IANA busy while the RFC Editor thinks the doc is elsewhere.
	mustCreateDoc(t, s, "draft-inprog", "00")
	setState("draft-inprog", "iana-action", "inprog")
	setState("draft-inprog", "rfc-editor", "auth48")
	setState("draft-inprog", "iesg", "rfcqueue")

	// Deadlock: each side waits on the other.
	mustCreateDoc(t, s, "draft-deadlock", "00")
	setState("draft-deadlock", "iana-action", "waitrfc")
	setState("draft-deadlock", "rfc-editor", "iana-crd")
	setState("draft-deadlock", "iesg", "rfcqueue")

	// In the queue without a matching IESG state.
	mustCreateDoc(t, s, "draft-queued", "00")
	setState("draft-queued", "rfc-editor", "edit")
	setState("draft-queued", "iesg", "iesg-eva")

	// Fully consistent.
	mustCreateDoc(t, s, "draft-ok", "00")
	setState("draft-ok", "rfc-editor", "edit")
	setState("draft-ok", "iesg", "rfcqueue")

	// Two conflicts at once: IANA busy elsewhere, and the IESG state
	// never caught up with the queue.
	mustCreateDoc(t, s, "draft-double", "00")
	setState("draft-double", "iana-action", "inprog")
	setState("draft-double", "rfc-editor", "auth48")
	setState("draft-double", "iesg", "iesg-eva")

	report, err := s.View().Discrepancies(ctx)
	require.NoError(t, err)

	byDoc := map[string][]string{}
	for _, d := range report {
		byDoc[d.Doc] = append(byDoc[d.Doc], d.Reason)
	}
	assert.Len(t, byDoc, 5)
	require.Len(t, byDoc["draft-approved"], 1)
	assert.Contains(t, byDoc["draft-approved"][0], "not in the RFC Editor queue")
	require.Len(t, byDoc["draft-inprog"], 1)
	assert.Contains(t, byDoc["draft-inprog"][0], "not waiting on IANA")
	require.Len(t, byDoc["draft-deadlock"], 1)
	assert.Contains(t, byDoc["draft-deadlock"][0], "waiting on the RFC Editor")
	require.Len(t, byDoc["draft-queued"], 1)
	assert.Contains(t, byDoc["draft-queued"][0], "neither queued nor published")
	assert.NotContains(t, byDoc, "draft-ok")

	// A document is listed under every conflict it matches, not just the
	// first.
	require.Len(t, byDoc["draft-double"], 2)
	assert.Contains(t, byDoc["draft-double"][0], "not waiting on IANA")
	assert.Contains(t, byDoc["draft-double"][1], "neither queued nor published")
}
