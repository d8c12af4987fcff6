package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewDiscrepanciesCommand creates the discrepancies command.
func NewDiscrepanciesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "discrepancies",
		Short: "List documents whose cross-dimension states disagree",
		Long: `Scan every tracked document for state combinations that indicate the
upstream registries disagree with each other, e.g. a document approved
by the IESG that never appeared in the RFC Editor queue.

Exit codes:
  0 - No discrepancies
  1 - Discrepancies found
  2 - Command error`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.OpenStore()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer s.Close()

			report, err := s.View().Discrepancies(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "scan", err)
			}

			w := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				for _, d := range report {
					fmt.Fprintf(w, "%s: %s\n", d.Doc, d.Reason)
				}
				fmt.Fprintf(w, "%d discrepanc(ies)\n", len(report))
			}

			if len(report) > 0 {
				return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d discrepancies found", len(report))}
			}
			return nil
		},
	}
}
