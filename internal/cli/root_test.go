package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stdtrack/regsync/internal/record"
	"github.com/stdtrack/regsync/internal/store"
)

// execute runs the CLI with the given args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// newTestDB creates a database with one tracked document and a transition.
func newTestDB(t *testing.T) (path string, eventID int64) {
	t.Helper()
	path = filepath.Join(t.TempDir(), "test.db")

	s, err := store.Open(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Atomic(ctx, func(tx *store.Tx) error {
		if err := tx.CreateDocument(ctx, "draft-ietf-example", "07"); err != nil {
			return err
		}
		ev, err := tx.AppendEvent(ctx, record.Event{
			Doc:     "draft-ietf-example",
			Time:    time.Date(2011, 10, 9, 12, 0, 0, 0, time.UTC),
			Kind:    record.KindStateChanged,
			Actor:   "(sync)",
			Desc:    "IANA Action state changed to In Progress",
			Payload: record.StateChanged{Dimension: "iana-action", Prev: "", Next: "inprog"},
		})
		eventID = ev.ID
		return err
	}))
	return path, eventID
}

func TestRoot_InvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "yaml", "state", "draft-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestState_TextOutput(t *testing.T) {
	db, _ := newTestDB(t)

	out, err := execute(t, "--db", db, "state", "draft-ietf-example")
	require.NoError(t, err)
	assert.Contains(t, out, "draft-ietf-example (rev 07)")
	assert.Contains(t, out, "In Progress")
}

func TestState_UnknownDocument(t *testing.T) {
	db, _ := newTestDB(t)

	_, err := execute(t, "--db", db, "state", "draft-ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistory_JSONOutput(t *testing.T) {
	db, _ := newTestDB(t)

	out, err := execute(t, "--db", db, "--format", "json", "history", "draft-ietf-example")
	require.NoError(t, err)
	assert.Contains(t, out, `"kind": "state-changed"`)
	assert.Contains(t, out, `"next": "inprog"`)
}

func TestUndoRecover_CommandRoundTrip(t *testing.T) {
	db, eventID := newTestDB(t)

	out, err := execute(t, "--db", db, "undo", "1")
	require.NoError(t, err)
	require.Equal(t, int64(1), eventID)
	assert.Contains(t, out, "undone; snapshot ")

	// The history is empty now.
	histOut, err := execute(t, "--db", db, "history", "draft-ietf-example")
	require.NoError(t, err)
	assert.NotContains(t, histOut, "state-changed")

	// Pull the snapshot id out of the store and recover it.
	s, err := store.Open(db)
	require.NoError(t, err)
	snaps, err := s.View().ListSnapshots(context.Background())
	require.NoError(t, s.Close())
	require.NoError(t, err)
	require.Len(t, snaps, 1)

	out, err = execute(t, "--db", db, "recover", snaps[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "restored as event")
}

func TestUndo_BadEventID(t *testing.T) {
	db, _ := newTestDB(t)

	_, err := execute(t, "--db", db, "undo", "not-a-number")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDiscrepancies_CleanDatabase(t *testing.T) {
	db, _ := newTestDB(t)

	// A lone iana-action transition is not a discrepancy.
	out, err := execute(t, "--db", db, "discrepancies")
	require.NoError(t, err)
	assert.Contains(t, out, "0 discrepanc")
}
