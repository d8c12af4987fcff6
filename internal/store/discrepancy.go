package store

import (
	"context"
	"fmt"

	"github.com/stdtrack/regsync/internal/statemap"
)

// Discrepancy flags a document whose cross-dimension states disagree,
// usually a sign that one of the upstream registries is out of sync with
// the other, or that an operator moved a state by hand.
type Discrepancy struct {
	Doc    string `json:"doc"`
	Reason string `json:"reason"`
}

// Discrepancies scans all documents for cross-dimension state conflicts.
// Read-only; the report is advisory and never blocks reconciliation.
func (t *Tx) Discrepancies(ctx context.Context) ([]Discrepancy, error) {
	names, err := t.stringColumn(ctx, `SELECT name FROM documents ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("discrepancies: %w", err)
	}

	var out []Discrepancy
	for _, name := range names {
		iesg, err := t.CurrentState(ctx, name, statemap.IESG)
		if err != nil {
			return nil, err
		}
		editor, err := t.CurrentState(ctx, name, statemap.RFCEditor)
		if err != nil {
			return nil, err
		}
		action, err := t.CurrentState(ctx, name, statemap.IANAAction)
		if err != nil {
			return nil, err
		}

		// The checks are independent; a document appears once per
		// conflict it matches.
		if (iesg == "ann" || iesg == "approved") && editor == "" {
			out = append(out, Discrepancy{
				Doc:    name,
				Reason: "approved by the IESG but not in the RFC Editor queue",
			})
		}
		if action == "inprog" && editor != "" && editor != "iana-crd" {
			out = append(out, Discrepancy{
				Doc:    name,
				Reason: "IANA registration in progress but RFC Editor is not waiting on IANA",
			})
		}
		if (action == "waitrfc" || action == "rfcedack") && editor == "iana-crd" {
			out = append(out, Discrepancy{
				Doc:    name,
				Reason: "IANA is waiting on the RFC Editor while the RFC Editor is waiting on IANA",
			})
		}
		if editor != "" && iesg != statemap.QueueIESG && iesg != statemap.TerminalIESG {
			out = append(out, Discrepancy{
				Doc:    name,
				Reason: "in the RFC Editor queue but IESG state is neither queued nor published",
			})
		}
	}
	return out, nil
}
