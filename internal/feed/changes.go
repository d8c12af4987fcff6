package feed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed changes.cue
var changesSchemaSrc string

// ChangeTimeLayout is the timestamp format used by the change-log feed.
// Feed times are UTC.
const ChangeTimeLayout = "2006-01-02 15:04:05"

// Change is one raw change-log record. State is the feed's textual label,
// not a slug; the normalizer maps it.
type Change struct {
	Time  time.Time
	Doc   string
	State string
	Type  string
}

type changesEnvelope struct {
	Error   *string `json:"error"`
	Changes []struct {
		Time  string `json:"time"`
		Doc   string `json:"doc"`
		State string `json:"state"`
		Type  string `json:"type"`
	} `json:"changes"`
}

// ParseChanges parses the change-log JSON feed.
//
// The envelope is validated against the embedded CUE schema before
// decoding: a payload with an "error" key, a record missing "type", or an
// unrecognized "type" value rejects the whole batch (ErrFeedReported /
// ErrMalformedFeed). Records are returned sorted ascending by time so
// downstream processing sees chronological order regardless of feed order.
func ParseChanges(data []byte) ([]Change, error) {
	if err := validateChangesEnvelope(data); err != nil {
		return nil, err
	}

	var env changesEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}
	if env.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrFeedReported, *env.Error)
	}

	changes := make([]Change, 0, len(env.Changes))
	for i, c := range env.Changes {
		t, err := time.ParseInLocation(ChangeTimeLayout, c.Time, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: bad time %q: %v", ErrMalformedFeed, i, c.Time, err)
		}
		changes = append(changes, Change{Time: t, Doc: c.Doc, State: c.State, Type: c.Type})
	}

	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Time.Before(changes[j].Time)
	})
	return changes, nil
}

// validateChangesEnvelope checks the raw payload against the CUE schema.
// JSON is a subset of CUE, so the payload compiles directly.
func validateChangesEnvelope(data []byte) error {
	cuectx := cuecontext.New()

	schema := cuectx.CompileString(changesSchemaSrc)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("changes schema: %w", err)
	}

	val := cuectx.CompileBytes(data)
	if err := val.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	if err := schema.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}
	return nil
}
