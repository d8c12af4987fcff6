package cli

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/stdtrack/regsync/internal/store"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <doc>",
		Short: "Show a document's event history, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.OpenStore()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer s.Close()

			ctx := cmd.Context()
			doc, err := s.View().Resolve(ctx, args[0])
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return WrapExitError(ExitCommandError, "unknown document "+args[0], nil)
				}
				return WrapExitError(ExitCommandError, "resolve document", err)
			}

			events, err := s.View().History(ctx, doc.Name)
			if err != nil {
				return WrapExitError(ExitCommandError, "query history", err)
			}

			w := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				out := make([]eventJSON, 0, len(events))
				for _, e := range events {
					out = append(out, toEventJSON(e))
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			for _, e := range events {
				printEvent(w, e)
			}
			return nil
		},
	}
}
