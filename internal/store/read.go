package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stdtrack/regsync/internal/record"
)

// Document is a registry row. Per-dimension states are deliberately not
// fields here: current state is always derived from the event log.
type Document struct {
	Name string
	Rev  string
	DocumentMeta
}

// DocumentMeta holds the registry-sourced bibliographic fields.
type DocumentMeta struct {
	Title    string
	Abstract string
	Pages    int
	StdLevel string
	Stream   string
	Group    string
}

// GetDocument fetches a document by exact name.
func (t *Tx) GetDocument(ctx context.Context, name string) (Document, error) {
	var d Document
	err := t.q.QueryRowContext(ctx, `
		SELECT name, rev, title, abstract, pages, std_level, stream, group_acronym
		FROM documents WHERE name = ?
	`, name).Scan(&d.Name, &d.Rev, &d.Title, &d.Abstract, &d.Pages, &d.StdLevel, &d.Stream, &d.Group)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("document %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document %s: %w", name, err)
	}
	return d, nil
}

// Resolve looks a document up by name or by alias (feeds reference
// documents both ways: the change log by draft name, the protocol page by
// registry name).
func (t *Tx) Resolve(ctx context.Context, name string) (Document, error) {
	d, err := t.GetDocument(ctx, name)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Document{}, err
	}

	var docName string
	err = t.q.QueryRowContext(ctx, `SELECT doc FROM aliases WHERE alias = ?`, name).Scan(&docName)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("document %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("resolve %s: %w", name, err)
	}
	return t.GetDocument(ctx, docName)
}

// CurrentState derives the current state of one dimension: the payload of
// the most recent state-changed event under the composite ordering key, or
// "" when the dimension has never been set (or its last transition was
// undone).
func (t *Tx) CurrentState(ctx context.Context, doc, dimension string) (string, error) {
	e, err := t.latestWhere(ctx, `doc = ? AND dimension = ?`, doc, dimension)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	sc, ok := e.Payload.(record.StateChanged)
	if !ok {
		return "", fmt.Errorf("event %d: dimension set on non-transition event", e.ID)
	}
	return sc.Next, nil
}

// LatestEvent returns the most recent event of the given kind for a
// document, or ErrNotFound.
func (t *Tx) LatestEvent(ctx context.Context, doc string, kind record.Kind) (record.Event, error) {
	return t.latestWhere(ctx, `doc = ? AND kind = ?`, doc, string(kind))
}

// HasEventSince reports whether any event of the given kind exists for the
// document at or after the watermark.
func (t *Tx) HasEventSince(ctx context.Context, doc string, kind record.Kind, since time.Time) (bool, error) {
	var n int
	err := t.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM events WHERE doc = ? AND kind = ? AND time >= ?
	`, doc, string(kind), formatTime(since)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has event since: %w", err)
	}
	return n > 0, nil
}

// History returns a document's full event history, most recent first under
// the composite ordering key.
func (t *Tx) History(ctx context.Context, doc string) ([]record.Event, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT id, doc, time, kind, actor, "desc", payload
		FROM events
		WHERE doc = ?
		ORDER BY time DESC, id DESC
	`, doc)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var events []record.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return events, nil
}

// GetEvent fetches a single live event by insertion sequence.
func (t *Tx) GetEvent(ctx context.Context, id int64) (record.Event, error) {
	row := t.q.QueryRowContext(ctx, `
		SELECT id, doc, time, kind, actor, "desc", payload
		FROM events WHERE id = ?
	`, id)
	e, err := scanEventRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Event{}, fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	return e, err
}

// Tags returns a document's tag set, sorted.
func (t *Tx) Tags(ctx context.Context, doc string) ([]string, error) {
	return t.stringColumn(ctx, `SELECT tag FROM tags WHERE doc = ? ORDER BY tag`, doc)
}

// ActionHolders returns a document's action holders, sorted.
func (t *Tx) ActionHolders(ctx context.Context, doc string) ([]string, error) {
	return t.stringColumn(ctx, `SELECT person FROM action_holders WHERE doc = ? ORDER BY person`, doc)
}

// Aliases returns the alternate identifiers pointing at a document, sorted.
func (t *Tx) Aliases(ctx context.Context, doc string) ([]string, error) {
	return t.stringColumn(ctx, `SELECT alias FROM aliases WHERE doc = ? ORDER BY alias`, doc)
}

// Relation is one cross-document relationship.
type Relation struct {
	Source       string
	Target       string // target name or alias as recorded
	Relationship string
}

// Related returns relationships originating at a document.
func (t *Tx) Related(ctx context.Context, source string) ([]Relation, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT source, target, relationship FROM related
		WHERE source = ?
		ORDER BY relationship, target
	`, source)
	if err != nil {
		return nil, fmt.Errorf("query related: %w", err)
	}
	defer rows.Close()

	var relations []Relation
	for rows.Next() {
		var r Relation
		if err := rows.Scan(&r.Source, &r.Target, &r.Relationship); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		relations = append(relations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate related: %w", err)
	}
	return relations, nil
}

// DocURL returns the URL stored under a tag, or ErrNotFound.
func (t *Tx) DocURL(ctx context.Context, doc, tag string) (string, error) {
	var url string
	err := t.q.QueryRowContext(ctx, `SELECT url FROM doc_urls WHERE doc = ? AND tag = ?`, doc, tag).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s url for %s: %w", tag, doc, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get %s url for %s: %w", tag, doc, err)
	}
	return url, nil
}

func (t *Tx) latestWhere(ctx context.Context, where string, args ...any) (record.Event, error) {
	row := t.q.QueryRowContext(ctx, `
		SELECT id, doc, time, kind, actor, "desc", payload
		FROM events
		WHERE `+where+`
		ORDER BY time DESC, id DESC
		LIMIT 1
	`, args...)
	e, err := scanEventRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Event{}, ErrNotFound
	}
	return e, err
}

func (t *Tx) stringColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(rows *sql.Rows) (record.Event, error) {
	return scanEventFrom(rows)
}

func scanEventRow(row *sql.Row) (record.Event, error) {
	return scanEventFrom(row)
}

func scanEventFrom(row rowScanner) (record.Event, error) {
	var (
		e           record.Event
		timeStr     string
		kindStr     string
		payloadJSON string
	)
	if err := row.Scan(&e.ID, &e.Doc, &timeStr, &kindStr, &e.Actor, &e.Desc, &payloadJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record.Event{}, err
		}
		return record.Event{}, fmt.Errorf("scan event: %w", err)
	}

	t, err := parseTime(timeStr)
	if err != nil {
		return record.Event{}, fmt.Errorf("scan event %d: %w", e.ID, err)
	}
	e.Time = t
	e.Kind = record.Kind(kindStr)

	payload, err := record.UnmarshalPayload(e.Kind, []byte(payloadJSON))
	if err != nil {
		return record.Event{}, fmt.Errorf("scan event %d: %w", e.ID, err)
	}
	e.Payload = payload
	return e, nil
}
