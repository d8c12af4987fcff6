// Package reconcile applies normalized change records to the tracker
// store.
//
// One batch run processes records in ascending timestamp order. Each
// record is one per-document atomic unit: the primary state transition
// plus every cascade it triggers commits in a single store transaction.
// A record whose target state equals the document's current state appends
// nothing beyond its tag delta, which makes re-running a batch a no-op.
// Record-level problems
// (unknown document, failed unit) become warnings and never abort the
// batch; side effects (notifications, archive moves) are delivered after
// commit and their failures are reported, never rolled back.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/stdtrack/regsync/internal/archive"
	"github.com/stdtrack/regsync/internal/notify"
	"github.com/stdtrack/regsync/internal/record"
	"github.com/stdtrack/regsync/internal/statemap"
	"github.com/stdtrack/regsync/internal/store"
)

// Warning is a record-level problem that did not abort the batch.
type Warning struct {
	Doc     string
	Message string
}

func (w Warning) String() string {
	if w.Doc == "" {
		return w.Message
	}
	return w.Doc + ": " + w.Message
}

// Result is what one batch run produced.
type Result struct {
	Events   []record.Event
	Warnings []Warning
}

func (r *Result) warnf(doc, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{Doc: doc, Message: fmt.Sprintf(format, args...)})
}

// Options configures an Engine. Zero values get safe defaults: a
// log-only dispatcher, a no-op archive mover, and the default logger.
type Options struct {
	Dispatcher notify.Dispatcher
	Mover      archive.Mover
	Logger     *slog.Logger

	// Actor is recorded on every event the engine appends.
	Actor string

	// CoordinationAddr receives a notification for every registry action
	// transition; AnnounceAddr receives queue-entry and publication
	// announcements.
	CoordinationAddr []string
	AnnounceAddr     []string
}

// Engine is the state reconciliation engine.
type Engine struct {
	store *store.Store
	opts  Options
}

// New returns an Engine over the given store.
func New(s *store.Store, opts Options) *Engine {
	if opts.Dispatcher == nil {
		opts.Dispatcher = notify.LogDispatcher{}
	}
	if opts.Mover == nil {
		opts.Mover = archive.NopMover{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Actor == "" {
		opts.Actor = "(sync)"
	}
	return &Engine{store: s, opts: opts}
}

// Apply runs one batch of change records. Records are processed in
// ascending timestamp order regardless of input order, so a record is
// only ever compared against the state left by strictly earlier records.
func (e *Engine) Apply(ctx context.Context, records []record.ChangeRecord) (Result, error) {
	run := uuid.NewString()
	logger := e.opts.Logger.With("run", run)
	logger.Info("batch start", "records", len(records))

	sorted := make([]record.ChangeRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	var res Result
	for _, rec := range sorted {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		var (
			created []record.Event
			effects sideEffects
		)
		err := e.store.Atomic(ctx, func(tx *store.Tx) error {
			var err error
			created, effects, err = e.applyRecord(ctx, tx, rec)
			return err
		})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				res.warnf(rec.Doc, "unknown document")
			} else {
				logger.Error("record failed", "doc", rec.Doc, "error", err)
				res.warnf(rec.Doc, "record failed: %v", err)
			}
			continue
		}

		res.Events = append(res.Events, created...)
		e.deliver(ctx, logger, effects, &res)
	}

	logger.Info("batch done", "events", len(res.Events), "warnings", len(res.Warnings))
	return res, nil
}

// DefaultPublicationWindow bounds how far back a protocol page sighting
// looks for the publication event. A registry page lists every RFC it has
// ever referenced; only documents published inside the window are worth
// reconciling against it.
const DefaultPublicationWindow = 31 * 24 * time.Hour

// Sightings records in-registry events for documents referenced on a
// protocol registry page. Only documents published at or after
// publishedSince get an event, and only once per document; everything
// else on the page is either not yet tracked (warning) or outside the
// publication window (skipped).
func (e *Engine) Sightings(ctx context.Context, page string, names []string, asOf, publishedSince time.Time) (Result, error) {
	var res Result
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		var created *record.Event
		err := e.store.Atomic(ctx, func(tx *store.Tx) error {
			doc, err := tx.Resolve(ctx, name)
			if err != nil {
				return err
			}

			published, err := tx.HasEventSince(ctx, doc.Name, record.KindPublished, publishedSince)
			if err != nil {
				return err
			}
			if !published {
				return nil
			}
			if _, err := tx.LatestEvent(ctx, doc.Name, record.KindInRegistry); err == nil {
				return nil
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			ev, err := tx.AppendEvent(ctx, record.Event{
				Doc:     doc.Name,
				Time:    asOf,
				Kind:    record.KindInRegistry,
				Actor:   e.opts.Actor,
				Desc:    "Added to the protocol registry page",
				Payload: record.InRegistry{Page: page},
			})
			if err != nil {
				return err
			}
			created = &ev
			return nil
		})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				res.warnf(name, "unknown document")
			} else {
				e.opts.Logger.Error("sighting failed", "doc", name, "error", err)
				res.warnf(name, "record failed: %v", err)
			}
			continue
		}
		if created != nil {
			res.Events = append(res.Events, *created)
		}
	}
	return res, nil
}

// applyRecord handles one record inside its transaction. Returns the
// events appended and the side effects to deliver after commit.
func (e *Engine) applyRecord(ctx context.Context, tx *store.Tx, rec record.ChangeRecord) ([]record.Event, sideEffects, error) {
	var effects sideEffects

	doc, err := tx.Resolve(ctx, rec.Doc)
	if err != nil {
		return nil, effects, err
	}

	if rec.Comment != nil && rec.State == "" {
		ev, err := e.applyComment(ctx, tx, doc, rec)
		if err != nil || ev == nil {
			return nil, effects, err
		}
		return []record.Event{*ev}, effects, nil
	}
	if rec.State == "" {
		return nil, effects, nil
	}

	prev, err := tx.CurrentState(ctx, doc.Name, rec.Dimension)
	if err != nil {
		return nil, effects, err
	}
	if prev == rec.State {
		// No transition, but queue records carry the document's whole
		// marker tag set and resync it on every run; an unchanged set is
		// an empty delta and produces no event.
		tagEv, err := e.applyTags(ctx, tx, doc.Name, rec.Time, rec.AddTags, rec.RemoveTags)
		if err != nil || tagEv == nil {
			return nil, effects, err
		}
		return []record.Event{*tagEv}, effects, nil
	}

	events := make([]record.Event, 0, 4)

	ev, err := e.append(ctx, tx, record.Event{
		Doc:  doc.Name,
		Time: rec.Time,
		Kind: record.KindStateChanged,
		Desc: transitionDesc(rec.Dimension, rec.State),
		Payload: record.StateChanged{
			Dimension: rec.Dimension,
			Prev:      prev,
			Next:      rec.State,
		},
	})
	if err != nil {
		return nil, effects, err
	}
	events = append(events, ev)

	if tagEv, err := e.applyTags(ctx, tx, doc.Name, rec.Time, rec.AddTags, rec.RemoveTags); err != nil {
		return nil, effects, err
	} else if tagEv != nil {
		events = append(events, *tagEv)
	}

	cascaded, err := e.cascade(ctx, tx, doc, rec, prev, &effects)
	if err != nil {
		return nil, effects, err
	}
	events = append(events, cascaded...)

	return events, effects, nil
}

// applyComment appends a review-comment event unless an identical one
// (same document, time, reviewer, text) already exists.
func (e *Engine) applyComment(ctx context.Context, tx *store.Tx, doc store.Document, rec record.ChangeRecord) (*record.Event, error) {
	when := rec.Time.UTC().Truncate(time.Second)

	history, err := tx.History(ctx, doc.Name)
	if err != nil {
		return nil, err
	}
	for _, old := range history {
		if old.Kind != record.KindReviewComment || !old.Time.Equal(when) {
			continue
		}
		if rc, ok := old.Payload.(record.ReviewComment); ok &&
			rc.Reviewer == rec.Comment.Reviewer && rc.Text == rec.Comment.Text {
			return nil, nil
		}
	}

	ev, err := e.append(ctx, tx, record.Event{
		Doc:  doc.Name,
		Time: rec.Time,
		Kind: record.KindReviewComment,
		Desc: fmt.Sprintf("Received review comment from %s", rec.Comment.Reviewer),
		Payload: record.ReviewComment{
			Reviewer: rec.Comment.Reviewer,
			Text:     rec.Comment.Text,
		},
	})
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// applyTags applies a tag delta and appends a tags-changed event when
// anything actually changed.
func (e *Engine) applyTags(ctx context.Context, tx *store.Tx, doc string, when time.Time, add, remove []string) (*record.Event, error) {
	added, err := tx.AddTags(ctx, doc, add)
	if err != nil {
		return nil, err
	}
	removed, err := tx.RemoveTags(ctx, doc, remove)
	if err != nil {
		return nil, err
	}
	if len(added) == 0 && len(removed) == 0 {
		return nil, nil
	}

	ev, err := e.append(ctx, tx, record.Event{
		Doc:     doc,
		Time:    when,
		Kind:    record.KindTagsChanged,
		Desc:    "Tags changed",
		Payload: record.TagsChanged{Added: added, Removed: removed},
	})
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// append stamps the engine actor and writes the event.
func (e *Engine) append(ctx context.Context, tx *store.Tx, ev record.Event) (record.Event, error) {
	if ev.Actor == "" {
		ev.Actor = e.opts.Actor
	}
	return tx.AppendEvent(ctx, ev)
}

// deliver fires post-commit side effects. Failures become warnings; the
// committed transition is the authoritative fact.
func (e *Engine) deliver(ctx context.Context, logger *slog.Logger, effects sideEffects, res *Result) {
	for _, req := range effects.notifications {
		if err := e.opts.Dispatcher.Dispatch(ctx, req); err != nil {
			logger.Warn("notification failed", "doc", req.Doc, "error", err)
			res.warnf(req.Doc, "notification failed: %v", err)
		}
	}
	for _, mv := range effects.moves {
		moved, err := e.opts.Mover.Move(mv.name, mv.rev)
		if err != nil {
			logger.Warn("archive move failed", "doc", mv.name, "error", err)
			res.warnf(mv.name, "archive move failed: %v", err)
			continue
		}
		if moved {
			logger.Info("working file archived", "doc", mv.name, "rev", mv.rev)
		}
	}
}

type archiveMove struct {
	name string
	rev  string
}

type sideEffects struct {
	notifications []notify.Request
	moves         []archiveMove
}

func transitionDesc(dimension, next string) string {
	d, ok := statemap.Get(dimension)
	if !ok {
		return fmt.Sprintf("State changed to %s", next)
	}
	return fmt.Sprintf("%s state changed to %s", d.Label, d.StateLabel(next))
}
