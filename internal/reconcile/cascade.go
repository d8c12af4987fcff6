package reconcile

import (
	"context"
	"fmt"

	"github.com/stdtrack/regsync/internal/notify"
	"github.com/stdtrack/regsync/internal/record"
	"github.com/stdtrack/regsync/internal/statemap"
	"github.com/stdtrack/regsync/internal/store"
)

// cascade applies the side effects of one committed primary transition.
// The table is keyed by (dimension, new state); a transition with no
// entry has no side effects. Everything here runs inside the same
// transaction as the primary transition.
func (e *Engine) cascade(ctx context.Context, tx *store.Tx, doc store.Document, rec record.ChangeRecord, prev string, effects *sideEffects) ([]record.Event, error) {
	switch rec.Dimension {
	case statemap.RFCEditor:
		return e.cascadeEditor(ctx, tx, doc, rec, prev, effects)
	case statemap.Draft:
		if rec.State == "rfc" {
			return e.cascadePublication(ctx, tx, doc, rec, effects)
		}
	case statemap.IANAAction:
		d, _ := statemap.Get(statemap.IANAAction)
		effects.notifications = append(effects.notifications, notify.Request{
			To:      e.opts.CoordinationAddr,
			Subject: fmt.Sprintf("%s: IANA Action state changed to %s", doc.Name, d.StateLabel(rec.State)),
			Doc:     doc.Name,
			Context: map[string]string{"prev": prev, "state": rec.State},
		})
	}
	return nil, nil
}

// cascadeEditor covers editorial-queue transitions: entering the queue,
// and the auth48 URL cross-reference lifecycle.
func (e *Engine) cascadeEditor(ctx context.Context, tx *store.Tx, doc store.Document, rec record.ChangeRecord, prev string, effects *sideEffects) ([]record.Event, error) {
	var events []record.Event

	// Entering the queue from outside: align the ballot position, clear
	// stale action holders, and announce.
	if rec.State == "edit" && prev == "" {
		iesg, err := tx.CurrentState(ctx, doc.Name, statemap.IESG)
		if err != nil {
			return nil, err
		}
		if statemap.PreQueueIESG(iesg) {
			ev, err := e.append(ctx, tx, record.Event{
				Doc:  doc.Name,
				Time: rec.Time,
				Kind: record.KindStateChanged,
				Desc: transitionDesc(statemap.IESG, statemap.QueueIESG),
				Payload: record.StateChanged{
					Dimension: statemap.IESG,
					Prev:      iesg,
					Next:      statemap.QueueIESG,
				},
			})
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		}

		if ev, err := e.clearActionHolders(ctx, tx, doc.Name, rec); err != nil {
			return nil, err
		} else if ev != nil {
			events = append(events, *ev)
		}

		stream := ""
		if rec.Queue != nil {
			stream = rec.Queue.Stream
		}
		ev, err := e.append(ctx, tx, record.Event{
			Doc:     doc.Name,
			Time:    rec.Time,
			Kind:    record.KindQueueReceived,
			Desc:    "Document entered the RFC Editor queue",
			Payload: record.QueueReceived{Stream: stream},
		})
		if err != nil {
			return nil, err
		}
		events = append(events, ev)

		effects.notifications = append(effects.notifications, notify.Request{
			To:      e.opts.AnnounceAddr,
			Subject: fmt.Sprintf("%s entered the RFC Editor queue", doc.Name),
			Doc:     doc.Name,
			Context: map[string]string{"stream": stream},
		})
	}

	if rec.State == "auth48" && rec.Auth48URL != "" {
		if err := tx.SetDocURL(ctx, doc.Name, "auth48", rec.Auth48URL); err != nil {
			return nil, err
		}
	}
	if prev == "auth48" && rec.State != "auth48" {
		if _, err := tx.DeleteDocURL(ctx, doc.Name, "auth48"); err != nil {
			return nil, err
		}
	}

	return events, nil
}

// cascadePublication covers final publication, driven by a master-index
// record: terminal states on the related dimensions, bibliographic
// update, registry cross-references, the errata tag, the published
// event, and the post-commit archive move and announcement.
func (e *Engine) cascadePublication(ctx context.Context, tx *store.Tx, doc store.Document, rec record.ChangeRecord, effects *sideEffects) ([]record.Event, error) {
	idx := rec.Index
	if idx == nil {
		return nil, fmt.Errorf("publication record for %s has no registry data", doc.Name)
	}

	var events []record.Event

	advance := func(dimension, next string) error {
		cur, err := tx.CurrentState(ctx, doc.Name, dimension)
		if err != nil {
			return err
		}
		if cur == next {
			return nil
		}
		ev, err := e.append(ctx, tx, record.Event{
			Doc:  doc.Name,
			Time: rec.Time,
			Kind: record.KindStateChanged,
			Desc: transitionDesc(dimension, next),
			Payload: record.StateChanged{
				Dimension: dimension,
				Prev:      cur,
				Next:      next,
			},
		})
		if err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	}

	if err := advance(statemap.IESG, statemap.TerminalIESG); err != nil {
		return nil, err
	}
	for _, dim := range statemap.StreamDimensions() {
		cur, err := tx.CurrentState(ctx, doc.Name, dim)
		if err != nil {
			return nil, err
		}
		if cur == "rfc-edit" {
			if err := advance(dim, "pub"); err != nil {
				return nil, err
			}
		}
	}

	if ev, err := e.clearActionHolders(ctx, tx, doc.Name, rec); err != nil {
		return nil, err
	} else if ev != nil {
		events = append(events, *ev)
	}

	if err := tx.UpdateDocumentMeta(ctx, doc.Name, store.DocumentMeta{
		Title:    idx.Title,
		Abstract: idx.Abstract,
		Pages:    idx.Pages,
		StdLevel: idx.Status,
		Stream:   idx.Stream,
		Group:    idx.Group,
	}); err != nil {
		return nil, err
	}

	if err := tx.AddAlias(ctx, doc.Name, fmt.Sprintf("rfc%d", idx.Number)); err != nil {
		return nil, err
	}
	for _, also := range idx.Also {
		if err := tx.AddAlias(ctx, doc.Name, also); err != nil {
			return nil, err
		}
	}
	for _, target := range idx.Updates {
		if err := tx.SetRelated(ctx, doc.Name, target, "updates"); err != nil {
			return nil, err
		}
	}
	for _, target := range idx.Obsoletes {
		if err := tx.SetRelated(ctx, doc.Name, target, "obsoletes"); err != nil {
			return nil, err
		}
	}

	var tagEv *record.Event
	var err error
	if idx.HasErrata {
		tagEv, err = e.applyTags(ctx, tx, doc.Name, rec.Time, []string{"errata"}, nil)
	} else {
		tagEv, err = e.applyTags(ctx, tx, doc.Name, rec.Time, nil, []string{"errata"})
	}
	if err != nil {
		return nil, err
	}
	if tagEv != nil {
		events = append(events, *tagEv)
	}

	ev, err := e.append(ctx, tx, record.Event{
		Doc:  doc.Name,
		Time: rec.Time,
		Kind: record.KindPublished,
		Desc: fmt.Sprintf("Published as RFC %d", idx.Number),
		Payload: record.Published{
			Number: idx.Number,
			Title:  idx.Title,
			Pages:  idx.Pages,
			Stream: idx.Stream,
		},
	})
	if err != nil {
		return nil, err
	}
	events = append(events, ev)

	rev := idx.DraftRev
	if rev == "" {
		rev = doc.Rev
	}
	effects.moves = append(effects.moves, archiveMove{name: doc.Name, rev: rev})
	effects.notifications = append(effects.notifications, notify.Request{
		To:      e.opts.AnnounceAddr,
		Subject: fmt.Sprintf("%s published as RFC %d", doc.Name, idx.Number),
		Doc:     doc.Name,
		Context: map[string]string{"title": idx.Title},
	})

	return events, nil
}

// clearActionHolders empties the holder set and records the change when
// there was anything to clear.
func (e *Engine) clearActionHolders(ctx context.Context, tx *store.Tx, doc string, rec record.ChangeRecord) (*record.Event, error) {
	prev, err := tx.SetActionHolders(ctx, doc, nil)
	if err != nil {
		return nil, err
	}
	if len(prev) == 0 {
		return nil, nil
	}
	ev, err := e.append(ctx, tx, record.Event{
		Doc:     doc,
		Time:    rec.Time,
		Kind:    record.KindActionHoldersChanged,
		Desc:    "Action holders cleared",
		Payload: record.ActionHoldersChanged{Prev: prev, Next: nil},
	})
	if err != nil {
		return nil, err
	}
	return &ev, nil
}
