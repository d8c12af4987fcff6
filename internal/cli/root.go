package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stdtrack/regsync/internal/archive"
	"github.com/stdtrack/regsync/internal/config"
	"github.com/stdtrack/regsync/internal/logging"
	"github.com/stdtrack/regsync/internal/notify"
	"github.com/stdtrack/regsync/internal/reconcile"
	"github.com/stdtrack/regsync/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Database   string // overrides the configured db path
	Verbose    bool
	Format     string // "json" | "text"

	cfg config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the regsync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "regsync",
		Short: "External registry synchronization tracker",
		Long: `regsync reconciles document state against external registry feeds:
the change log, the editorial queue, the master index, errata, review
mail, and the protocol listing pages.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg

			level := logging.ParseLevel(cfg.LogLevel)
			if opts.Verbose {
				level = slog.LevelDebug
			}
			logging.Init(cfg.LogJSON, level)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewStateCommand(opts))
	cmd.AddCommand(NewUndoCommand(opts))
	cmd.AddCommand(NewRecoverCommand(opts))
	cmd.AddCommand(NewDiscrepanciesCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// OpenStore opens the database named by --db or the config file.
func (o *RootOptions) OpenStore() (*store.Store, error) {
	path := o.Database
	if path == "" {
		path = o.cfg.DBPath
	}
	return store.Open(path)
}

// Engine builds a reconciliation engine wired per the loaded config.
func (o *RootOptions) Engine(s *store.Store) *reconcile.Engine {
	var mover archive.Mover = archive.NopMover{}
	if o.cfg.Feeds.ActiveDir != "" && o.cfg.Feeds.ArchiveDir != "" {
		mover = archive.DirMover{
			ActiveDir:  o.cfg.Feeds.ActiveDir,
			ArchiveDir: o.cfg.Feeds.ArchiveDir,
			Logger:     slog.Default(),
		}
	}
	return reconcile.New(s, reconcile.Options{
		Dispatcher:       notify.LogDispatcher{},
		Mover:            mover,
		CoordinationAddr: o.cfg.Notify.CoordinationAddr,
		AnnounceAddr:     o.cfg.Notify.AnnounceAddr,
	})
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
