package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/stdtrack/regsync/internal/record"
	"github.com/stdtrack/regsync/internal/reconcile"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Run-level failure (fatal feed error, discrepancies found)
	ExitCommandError = 2 // Command error (invalid paths, database not found, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// eventJSON is the wire shape of one event in JSON output.
type eventJSON struct {
	ID      int64          `json:"id"`
	Doc     string         `json:"doc"`
	Time    string         `json:"time"`
	Kind    string         `json:"kind"`
	Actor   string         `json:"actor,omitempty"`
	Desc    string         `json:"desc,omitempty"`
	Payload record.Payload `json:"payload,omitempty"`
}

func toEventJSON(e record.Event) eventJSON {
	return eventJSON{
		ID:      e.ID,
		Doc:     e.Doc,
		Time:    e.Time.UTC().Format("2006-01-02T15:04:05Z"),
		Kind:    string(e.Kind),
		Actor:   e.Actor,
		Desc:    e.Desc,
		Payload: e.Payload,
	}
}

// resultJSON is the wire shape of one batch run.
type resultJSON struct {
	Events   []eventJSON `json:"events"`
	Warnings []string    `json:"warnings"`
}

// printResult writes a batch result in the requested format.
func printResult(w io.Writer, format string, res reconcile.Result) error {
	if format == "json" {
		out := resultJSON{Events: []eventJSON{}, Warnings: []string{}}
		for _, e := range res.Events {
			out.Events = append(out.Events, toEventJSON(e))
		}
		for _, warn := range res.Warnings {
			out.Warnings = append(out.Warnings, warn.String())
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, e := range res.Events {
		printEvent(w, e)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	fmt.Fprintf(w, "%d event(s), %d warning(s)\n", len(res.Events), len(res.Warnings))
	return nil
}

func printEvent(w io.Writer, e record.Event) {
	fmt.Fprintf(w, "#%d  %s  %-22s  %s  %s\n",
		e.ID, e.Time.UTC().Format("2006-01-02 15:04:05"), e.Kind, e.Doc, e.Desc)
}
