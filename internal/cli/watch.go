package cli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stdtrack/regsync/internal/feed"
	"github.com/stdtrack/regsync/internal/ingest"
	"github.com/stdtrack/regsync/internal/normalize"
	"github.com/stdtrack/regsync/internal/reconcile"
	"github.com/stdtrack/regsync/internal/record"
)

// NewWatchCommand creates the watch command: a long-running ingest loop
// over a feed inbox directory.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Watch an inbox directory and apply dropped feed files",
		Long: `Watch a directory for feed files and run each one as a batch when it
settles. Files are routed by name: changes*.json, queue*.xml,
index*.xml, errata*.json, protocol*.html, *.eml. An errata file is not
a batch of its own; it is remembered and correlated into subsequent
index runs. Runs until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.cfg.Feeds.InboxDir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return WrapExitError(ExitCommandError, "no inbox directory configured or given", nil)
			}

			s, err := rootOpts.OpenStore()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			handler := &feedHandler{
				opts:   rootOpts,
				engine: rootOpts.Engine(s),
				logger: slog.Default(),
			}
			w := &ingest.Watcher{Dir: dir, Handler: handler, Logger: slog.Default()}
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				return WrapExitError(ExitCommandError, "watch", err)
			}
			return nil
		},
	}
}

// feedHandler routes settled inbox files to the right parser and batch.
type feedHandler struct {
	opts   *RootOptions
	engine *reconcile.Engine
	logger *slog.Logger

	// errata holds the most recently seen errata list, correlated into
	// subsequent index runs.
	errata []feed.Erratum
}

func (h *feedHandler) HandleFile(ctx context.Context, path string) error {
	kind := ingest.Classify(path)
	if kind == ingest.FeedUnknown {
		h.logger.Warn("ignoring unrecognized inbox file", "file", path)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	now := time.Now().UTC()

	var res reconcile.Result
	switch kind {
	case ingest.FeedErrata:
		errata, err := feed.ParseErrata(data)
		if err != nil {
			return err
		}
		h.errata = errata
		h.logger.Info("errata list updated", "records", len(errata))
		return nil

	case ingest.FeedChanges:
		changes, err := feed.ParseChanges(data)
		if err != nil {
			return err
		}
		records, err := normalize.Changes(changes)
		if err != nil {
			return err
		}
		res, err = h.engine.Apply(ctx, records)
		if err != nil {
			return err
		}

	case ingest.FeedQueue:
		entries, warnings, err := feed.ParseQueue(bytes.NewReader(data),
			feed.WithToleratedStates(h.opts.cfg.Feeds.ToleratedQueueStates...))
		if err != nil {
			return err
		}
		res, err = h.engine.Apply(ctx, normalize.QueueEntries(entries, now))
		if err != nil {
			return err
		}
		for _, w := range warnings {
			res.Warnings = append(res.Warnings, reconcile.Warning{Message: w})
		}

	case ingest.FeedIndex:
		entries, err := feed.ParseIndex(bytes.NewReader(data))
		if err != nil {
			return err
		}
		res, err = h.engine.Apply(ctx, normalize.IndexEntries(entries, h.errata, now))
		if err != nil {
			return err
		}

	case ingest.FeedProtocol:
		names := feed.ParseProtocolPage(string(data))
		res, err = h.engine.Sightings(ctx, filepath.Base(path), names, now,
			now.Add(-reconcile.DefaultPublicationWindow))
		if err != nil {
			return err
		}

	case ingest.FeedMail:
		email, err := feed.ParseReviewEmail(data)
		if err != nil {
			return err
		}
		res, err = h.engine.Apply(ctx, []record.ChangeRecord{normalize.Review(email)})
		if err != nil {
			return err
		}
	}

	h.logger.Info("feed applied",
		"file", filepath.Base(path),
		"feed", string(kind),
		"events", len(res.Events),
		"warnings", len(res.Warnings),
	)
	for _, w := range res.Warnings {
		h.logger.Warn("feed warning", "detail", w.String())
	}
	return nil
}
