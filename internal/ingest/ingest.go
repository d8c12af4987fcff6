// Package ingest watches an inbox directory for dropped feed files and
// hands them to a handler once they stop growing. Feed runs stay
// batch-at-a-time: the watcher dispatches one file at a time, in the
// order they settle.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler processes one settled feed file.
type Handler interface {
	HandleFile(ctx context.Context, path string) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, path string) error

func (f HandlerFunc) HandleFile(ctx context.Context, path string) error { return f(ctx, path) }

// DefaultSettle is how long a file must sit unmodified before it is
// considered fully written.
const DefaultSettle = 2 * time.Second

// Watcher dispatches inbox files to a Handler.
type Watcher struct {
	Dir     string
	Handler Handler
	Logger  *slog.Logger
	// Settle overrides DefaultSettle when positive.
	Settle time.Duration
}

// Run watches Dir until the context is canceled. Files already present
// when Run starts are dispatched first. Handler errors are logged and do
// not stop the watch; a run failure on one file must not block later
// feeds.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	settle := w.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("ingest: watch %s: %w", w.Dir, err)
	}
	logger.Info("watching inbox", "dir", w.Dir)

	if err := w.dispatchExisting(ctx, logger); err != nil {
		return err
	}

	pending := map[string]time.Time{}
	tick := time.NewTicker(settle / 2)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) {
				pending[ev.Name] = time.Now()
			}
			if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
				delete(pending, ev.Name)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "error", err)

		case now := <-tick.C:
			for _, path := range settled(pending, now, settle) {
				delete(pending, path)
				w.dispatch(ctx, logger, path)
			}
		}
	}
}

// dispatchExisting handles files that were dropped before the watch
// started.
func (w *Watcher) dispatchExisting(ctx context.Context, logger *slog.Logger) error {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		return fmt.Errorf("ingest: scan %s: %w", w.Dir, err)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			continue
		}
		w.dispatch(ctx, logger, filepath.Join(w.Dir, entry.Name()))
	}
	return nil
}

func (w *Watcher) dispatch(ctx context.Context, logger *slog.Logger, path string) {
	logger.Info("feed file ready", "file", path)
	if err := w.Handler.HandleFile(ctx, path); err != nil {
		logger.Error("feed file failed", "file", path, "error", err)
	}
}

// settled returns the pending paths whose last write is at least settle
// old, in deterministic order.
func settled(pending map[string]time.Time, now time.Time, settle time.Duration) []string {
	var out []string
	for path, last := range pending {
		if now.Sub(last) >= settle {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}
