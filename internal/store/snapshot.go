package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stdtrack/regsync/internal/record"
)

// MoveEventToSnapshot copies a live event into the snapshot log under the
// given id and removes the live row. The two writes share the enclosing
// transaction: an event is in exactly one of the two logs at all times.
func (t *Tx) MoveEventToSnapshot(ctx context.Context, snapshotID string, eventID int64, now time.Time) (record.Snapshot, error) {
	e, err := t.GetEvent(ctx, eventID)
	if err != nil {
		return record.Snapshot{}, err
	}

	body, err := record.EncodeSnapshot(e)
	if err != nil {
		return record.Snapshot{}, fmt.Errorf("snapshot event %d: %w", eventID, err)
	}

	snap := record.Snapshot{
		ID:        snapshotID,
		Doc:       e.Doc,
		Kind:      e.Kind,
		Time:      e.Time,
		DeletedAt: now.UTC().Truncate(time.Second),
		Body:      body,
	}

	if _, err := t.q.ExecContext(ctx, `
		INSERT INTO deleted_events (id, doc, kind, time, deleted_at, body)
		VALUES (?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.Doc, string(snap.Kind), formatTime(snap.Time), formatTime(snap.DeletedAt), string(snap.Body)); err != nil {
		return record.Snapshot{}, fmt.Errorf("snapshot event %d: %w", eventID, err)
	}

	if err := t.deleteEvent(ctx, eventID); err != nil {
		return record.Snapshot{}, err
	}
	return snap, nil
}

// GetSnapshot fetches a snapshot by id.
func (t *Tx) GetSnapshot(ctx context.Context, id string) (record.Snapshot, error) {
	row := t.q.QueryRowContext(ctx, `
		SELECT id, doc, kind, time, deleted_at, body
		FROM deleted_events WHERE id = ?
	`, id)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Snapshot{}, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	return snap, err
}

// DeleteSnapshot removes a snapshot, normally after a successful recover.
func (t *Tx) DeleteSnapshot(ctx context.Context, id string) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM deleted_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	} else if n == 0 {
		return fmt.Errorf("delete snapshot %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListSnapshots returns snapshots, most recently deleted first.
func (t *Tx) ListSnapshots(ctx context.Context) ([]record.Snapshot, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT id, doc, kind, time, deleted_at, body
		FROM deleted_events
		ORDER BY deleted_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []record.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

func scanSnapshot(row rowScanner) (record.Snapshot, error) {
	var (
		snap            record.Snapshot
		kindStr         string
		timeStr, delStr string
		body            string
	)
	if err := row.Scan(&snap.ID, &snap.Doc, &kindStr, &timeStr, &delStr, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record.Snapshot{}, err
		}
		return record.Snapshot{}, fmt.Errorf("scan snapshot: %w", err)
	}
	snap.Kind = record.Kind(kindStr)
	snap.Body = []byte(body)

	t, err := parseTime(timeStr)
	if err != nil {
		return record.Snapshot{}, fmt.Errorf("scan snapshot %s: %w", snap.ID, err)
	}
	snap.Time = t

	deletedAt, err := parseTime(delStr)
	if err != nil {
		return record.Snapshot{}, fmt.Errorf("scan snapshot %s: %w", snap.ID, err)
	}
	snap.DeletedAt = deletedAt
	return snap, nil
}
