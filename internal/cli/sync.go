package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/stdtrack/regsync/internal/feed"
	"github.com/stdtrack/regsync/internal/normalize"
	"github.com/stdtrack/regsync/internal/reconcile"
	"github.com/stdtrack/regsync/internal/record"
)

// NewSyncCommand creates the sync command group: one subcommand per feed.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one feed batch against the tracker",
	}
	cmd.AddCommand(newSyncChangesCommand(rootOpts))
	cmd.AddCommand(newSyncQueueCommand(rootOpts))
	cmd.AddCommand(newSyncIndexCommand(rootOpts))
	cmd.AddCommand(newSyncProtocolCommand(rootOpts))
	cmd.AddCommand(newSyncMailCommand(rootOpts))
	return cmd
}

// runBatch opens the store, runs fn against a fresh engine, and prints
// the result.
func runBatch(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, eng *reconcile.Engine) (reconcile.Result, error)) error {
	s, err := opts.OpenStore()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer s.Close()

	res, err := fn(cmd.Context(), opts.Engine(s))
	if err != nil {
		return WrapExitError(ExitFailure, "feed run failed", err)
	}
	return printResult(cmd.OutOrStdout(), opts.Format, res)
}

func newSyncChangesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "changes <file>",
		Short: "Apply a change-log JSON feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "read feed", err)
			}
			changes, err := feed.ParseChanges(data)
			if err != nil {
				return WrapExitError(ExitFailure, "parse change log", err)
			}
			records, err := normalize.Changes(changes)
			if err != nil {
				return WrapExitError(ExitFailure, "normalize change log", err)
			}
			return runBatch(rootOpts, cmd, func(ctx context.Context, eng *reconcile.Engine) (reconcile.Result, error) {
				return eng.Apply(ctx, records)
			})
		},
	}
}

func newSyncQueueCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "queue <file>",
		Short: "Apply an editorial-queue XML feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "read feed", err)
			}
			defer f.Close()

			entries, warnings, err := feed.ParseQueue(f,
				feed.WithToleratedStates(rootOpts.cfg.Feeds.ToleratedQueueStates...))
			if err != nil {
				return WrapExitError(ExitFailure, "parse editorial queue", err)
			}
			records := normalize.QueueEntries(entries, time.Now().UTC())

			return runBatch(rootOpts, cmd, func(ctx context.Context, eng *reconcile.Engine) (reconcile.Result, error) {
				res, err := eng.Apply(ctx, records)
				for _, w := range warnings {
					res.Warnings = append(res.Warnings, reconcile.Warning{Message: w})
				}
				return res, err
			})
		},
	}
}

func newSyncIndexCommand(rootOpts *RootOptions) *cobra.Command {
	var errataPath string

	cmd := &cobra.Command{
		Use:   "index <file>",
		Short: "Apply a master-index XML feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "read feed", err)
			}
			entries, err := feed.ParseIndex(bytes.NewReader(data))
			if err != nil {
				return WrapExitError(ExitFailure, "parse master index", err)
			}

			var errata []feed.Erratum
			if errataPath != "" {
				errataData, err := os.ReadFile(errataPath)
				if err != nil {
					return WrapExitError(ExitCommandError, "read errata", err)
				}
				errata, err = feed.ParseErrata(errataData)
				if err != nil {
					return WrapExitError(ExitFailure, "parse errata", err)
				}
			}

			records := normalize.IndexEntries(entries, errata, time.Now().UTC())
			return runBatch(rootOpts, cmd, func(ctx context.Context, eng *reconcile.Engine) (reconcile.Result, error) {
				return eng.Apply(ctx, records)
			})
		},
	}

	cmd.Flags().StringVar(&errataPath, "errata", "", "errata JSON file to correlate")
	return cmd
}

func newSyncProtocolCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		page   string
		window time.Duration
	)

	cmd := &cobra.Command{
		Use:   "protocol <file>",
		Short: "Record protocol registry page sightings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "read page", err)
			}
			names := feed.ParseProtocolPage(string(data))
			if page == "" {
				page = filepath.Base(args[0])
			}
			return runBatch(rootOpts, cmd, func(ctx context.Context, eng *reconcile.Engine) (reconcile.Result, error) {
				now := time.Now().UTC()
				return eng.Sightings(ctx, page, names, now, now.Add(-window))
			})
		},
	}

	cmd.Flags().StringVar(&page, "page", "", "registry page name recorded on the event")
	cmd.Flags().DurationVar(&window, "published-within", reconcile.DefaultPublicationWindow,
		"only documents published this recently are recorded")
	return cmd
}

func newSyncMailCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mail <file>...",
		Short: "Apply review emails",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var records []record.ChangeRecord
			for _, path := range args {
				raw, err := os.ReadFile(path)
				if err != nil {
					return WrapExitError(ExitCommandError, "read message", err)
				}
				email, err := feed.ParseReviewEmail(raw)
				if err != nil {
					return WrapExitError(ExitFailure, fmt.Sprintf("parse message %s", path), err)
				}
				records = append(records, normalize.Review(email))
			}
			return runBatch(rootOpts, cmd, func(ctx context.Context, eng *reconcile.Engine) (reconcile.Result, error) {
				return eng.Apply(ctx, records)
			})
		},
	}
}
