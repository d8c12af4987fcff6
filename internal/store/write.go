package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/stdtrack/regsync/internal/record"
)

// CreateDocument registers a document. Documents are created by upstream
// collaborators before any feed is processed; the engine itself only reads
// identity. Re-creating an existing document is a no-op.
func (t *Tx) CreateDocument(ctx context.Context, name, rev string) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO documents (name, rev) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, rev)
	if err != nil {
		return fmt.Errorf("create document %s: %w", name, err)
	}
	return nil
}

// AppendEvent appends an event to the live log and returns it with the
// assigned insertion sequence. The dimension column is denormalized from
// state-changed payloads so current-state queries stay indexable.
func (t *Tx) AppendEvent(ctx context.Context, e record.Event) (record.Event, error) {
	payload, err := record.MarshalPayload(e.Payload)
	if err != nil {
		return record.Event{}, fmt.Errorf("append event: %w", err)
	}

	dimension := ""
	if sc, ok := e.Payload.(record.StateChanged); ok {
		dimension = sc.Dimension
	}

	res, err := t.q.ExecContext(ctx, `
		INSERT INTO events (doc, time, kind, actor, "desc", dimension, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.Doc, formatTime(e.Time), string(e.Kind), e.Actor, e.Desc, dimension, string(payload))
	if err != nil {
		return record.Event{}, fmt.Errorf("append event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return record.Event{}, fmt.Errorf("append event: last insert id: %w", err)
	}
	e.ID = id
	// Reflect storage granularity in the returned value.
	e.Time = e.Time.UTC().Truncate(time.Second)
	return e, nil
}

// deleteEvent removes a live event row. Only the undo path calls this, and
// only after the row has been copied to the snapshot log in the same
// transaction; there is no general update or delete on live events.
func (t *Tx) deleteEvent(ctx context.Context, id int64) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete event %d: %w", id, ErrNotFound)
	}
	return nil
}

// AddTags adds tags to a document and returns the ones actually added
// (already-present tags produce no delta and no event upstream).
func (t *Tx) AddTags(ctx context.Context, doc string, tags []string) ([]string, error) {
	var added []string
	for _, tag := range tags {
		res, err := t.q.ExecContext(ctx, `
			INSERT INTO tags (doc, tag) VALUES (?, ?)
			ON CONFLICT(doc, tag) DO NOTHING
		`, doc, tag)
		if err != nil {
			return nil, fmt.Errorf("add tag %s to %s: %w", tag, doc, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, fmt.Errorf("add tag %s to %s: %w", tag, doc, err)
		} else if n > 0 {
			added = append(added, tag)
		}
	}
	return sortStrings(added), nil
}

// RemoveTags removes tags from a document and returns the ones actually
// removed.
func (t *Tx) RemoveTags(ctx context.Context, doc string, tags []string) ([]string, error) {
	var removed []string
	for _, tag := range tags {
		res, err := t.q.ExecContext(ctx, `DELETE FROM tags WHERE doc = ? AND tag = ?`, doc, tag)
		if err != nil {
			return nil, fmt.Errorf("remove tag %s from %s: %w", tag, doc, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, fmt.Errorf("remove tag %s from %s: %w", tag, doc, err)
		} else if n > 0 {
			removed = append(removed, tag)
		}
	}
	return sortStrings(removed), nil
}

// SetActionHolders replaces a document's action holder set and returns the
// previous set, sorted.
func (t *Tx) SetActionHolders(ctx context.Context, doc string, holders []string) (prev []string, err error) {
	prev, err = t.ActionHolders(ctx, doc)
	if err != nil {
		return nil, err
	}

	if _, err := t.q.ExecContext(ctx, `DELETE FROM action_holders WHERE doc = ?`, doc); err != nil {
		return nil, fmt.Errorf("set action holders for %s: %w", doc, err)
	}
	for _, person := range holders {
		if _, err := t.q.ExecContext(ctx, `
			INSERT INTO action_holders (doc, person) VALUES (?, ?)
			ON CONFLICT(doc, person) DO NOTHING
		`, doc, person); err != nil {
			return nil, fmt.Errorf("set action holders for %s: %w", doc, err)
		}
	}
	return prev, nil
}

// AddAlias records an alternate identifier for a document. Re-pointing an
// existing alias at a different document is an error; re-adding the same
// mapping is a no-op.
func (t *Tx) AddAlias(ctx context.Context, doc, alias string) error {
	var existing string
	err := t.q.QueryRowContext(ctx, `SELECT doc FROM aliases WHERE alias = ?`, alias).Scan(&existing)
	if err == nil {
		if existing != doc {
			return fmt.Errorf("alias %s already points at %s", alias, existing)
		}
		return nil
	}

	if _, err := t.q.ExecContext(ctx, `
		INSERT INTO aliases (alias, doc) VALUES (?, ?)
		ON CONFLICT(alias) DO NOTHING
	`, alias, doc); err != nil {
		return fmt.Errorf("add alias %s for %s: %w", alias, doc, err)
	}
	return nil
}

// SetRelated records a relationship (e.g. "updates") from source to a
// target name or alias. Idempotent.
func (t *Tx) SetRelated(ctx context.Context, source, target, relationship string) error {
	if _, err := t.q.ExecContext(ctx, `
		INSERT INTO related (source, target, relationship) VALUES (?, ?, ?)
		ON CONFLICT(source, target, relationship) DO NOTHING
	`, source, target, relationship); err != nil {
		return fmt.Errorf("relate %s %s %s: %w", source, relationship, target, err)
	}
	return nil
}

// SetDocURL sets a tagged URL on a document, replacing any previous URL
// under the same tag.
func (t *Tx) SetDocURL(ctx context.Context, doc, tag, url string) error {
	if _, err := t.q.ExecContext(ctx, `
		INSERT INTO doc_urls (doc, tag, url) VALUES (?, ?, ?)
		ON CONFLICT(doc, tag) DO UPDATE SET url = excluded.url
	`, doc, tag, url); err != nil {
		return fmt.Errorf("set %s url for %s: %w", tag, doc, err)
	}
	return nil
}

// DeleteDocURL removes a tagged URL. Reports whether a row was removed.
func (t *Tx) DeleteDocURL(ctx context.Context, doc, tag string) (bool, error) {
	res, err := t.q.ExecContext(ctx, `DELETE FROM doc_urls WHERE doc = ? AND tag = ?`, doc, tag)
	if err != nil {
		return false, fmt.Errorf("delete %s url for %s: %w", tag, doc, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s url for %s: %w", tag, doc, err)
	}
	return n > 0, nil
}

// UpdateDocumentMeta updates the registry-sourced bibliographic fields.
func (t *Tx) UpdateDocumentMeta(ctx context.Context, doc string, meta DocumentMeta) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE documents
		SET title = ?, abstract = ?, pages = ?, std_level = ?, stream = ?, group_acronym = ?
		WHERE name = ?
	`, meta.Title, meta.Abstract, meta.Pages, meta.StdLevel, meta.Stream, meta.Group, doc)
	if err != nil {
		return fmt.Errorf("update document %s: %w", doc, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update document %s: %w", doc, err)
	} else if n == 0 {
		return fmt.Errorf("update document %s: %w", doc, ErrNotFound)
	}
	return nil
}

// sortStrings returns a sorted copy, or nil for an empty input; keeps
// returned deltas and event payloads deterministic regardless of input
// order.
func sortStrings(ss []string) []string {
	if len(ss) == 0 {
		return nil
	}
	out := make([]string, len(ss))
	copy(out, ss)
	sort.Strings(out)
	return out
}
