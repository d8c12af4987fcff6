package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stdtrack/regsync/internal/statemap"
	"github.com/stdtrack/regsync/internal/store"
)

// docStateJSON is the wire shape of the state command's JSON output.
type docStateJSON struct {
	Doc           string            `json:"doc"`
	Rev           string            `json:"rev,omitempty"`
	States        map[string]string `json:"states"`
	Tags          []string          `json:"tags,omitempty"`
	ActionHolders []string          `json:"action_holders,omitempty"`
	Aliases       []string          `json:"aliases,omitempty"`
}

// NewStateCommand creates the state command.
func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state <doc>",
		Short: "Show a document's current per-dimension states",
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

			out := docStateJSON{Doc: doc.Name, Rev: doc.Rev, States: map[string]string{}}
			for _, dim := range statemap.All() {
				state, err := s.View().CurrentState(ctx, doc.Name, dim)
				if err != nil {
					return WrapExitError(ExitCommandError, "derive state", err)
				}
				if state != "" {
					out.States[dim] = state
				}
			}
			if out.Tags, err = s.View().Tags(ctx, doc.Name); err != nil {
				return WrapExitError(ExitCommandError, "query tags", err)
			}
			if out.ActionHolders, err = s.View().ActionHolders(ctx, doc.Name); err != nil {
				return WrapExitError(ExitCommandError, "query action holders", err)
			}
			if out.Aliases, err = s.View().Aliases(ctx, doc.Name); err != nil {
				return WrapExitError(ExitCommandError, "query aliases", err)
			}

			w := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Fprintf(w, "%s (rev %s)\n", out.Doc, out.Rev)
			for _, dim := range statemap.All() {
				slug, ok := out.States[dim]
				if !ok {
					continue
				}
				d, _ := statemap.Get(dim)
				fmt.Fprintf(w, "  %-14s %s\n", dim, d.StateLabel(slug))
			}
			if len(out.Tags) > 0 {
				fmt.Fprintf(w, "  tags: %v\n", out.Tags)
			}
			if len(out.ActionHolders) > 0 {
				fmt.Fprintf(w, "  action holders: %v\n", out.ActionHolders)
			}
			if len(out.Aliases) > 0 {
				fmt.Fprintf(w, "  aliases: %v\n", out.Aliases)
			}
			return nil
		},
	}
}
