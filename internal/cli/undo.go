package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stdtrack/regsync/internal/undo"
)

// NewUndoCommand creates the undo command.
func NewUndoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "undo <event-id>",
		Short: "Move a live event to the snapshot log",
		Long: `Remove an event from a document's live history. The event is kept as
a snapshot and can be restored with "recover". The document's state is
re-derived from the remaining events on the next read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return WrapExitError(ExitCommandError, "event id must be a number", err)
			}

			s, err := rootOpts.OpenStore()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer s.Close()

			snap, err := undo.New(s, nil).Undo(cmd.Context(), eventID)
			if err != nil {
				return WrapExitError(ExitFailure, "undo", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "event #%d (%s) undone; snapshot %s\n",
				eventID, snap.Doc, snap.ID)
			return nil
		},
	}
}

// NewRecoverCommand creates the recover command.
func NewRecoverCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recover <snapshot-id>",
		Short: "Restore an undone event from its snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.OpenStore()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer s.Close()

			ev, err := undo.New(s, nil).Recover(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "recover", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "snapshot %s restored as event #%d (%s)\n",
				args[0], ev.ID, ev.Doc)
			return nil
		},
	}
}
