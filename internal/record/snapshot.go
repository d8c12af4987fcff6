package record

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is a serialized copy of an undone event, sufficient to
// reconstruct an equivalent live event. Snapshots live in their own log and
// are the only place a "deleted" event can go.
type Snapshot struct {
	ID        string // uuid assigned at undo time
	Doc       string
	Kind      Kind
	Time      time.Time // original event time
	DeletedAt time.Time
	Body      []byte // snapshotBody JSON
}

// snapshotBody is the serialized field set of the original event.
type snapshotBody struct {
	Doc     string          `json:"doc"`
	Time    time.Time       `json:"time"`
	Kind    Kind            `json:"kind"`
	Actor   string          `json:"actor"`
	Desc    string          `json:"desc"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeSnapshot serializes a live event into snapshot body form.
// The insertion sequence (ID) is deliberately not captured: recovery
// re-appends with a fresh one.
func EncodeSnapshot(e Event) ([]byte, error) {
	payload, err := MarshalPayload(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	body := snapshotBody{
		Doc:     e.Doc,
		Time:    e.Time,
		Kind:    e.Kind,
		Actor:   e.Actor,
		Desc:    e.Desc,
		Payload: payload,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot reconstructs an event from snapshot body form. The
// returned event has no ID; the store assigns one on re-append.
func DecodeSnapshot(data []byte) (Event, error) {
	var body snapshotBody
	if err := json.Unmarshal(data, &body); err != nil {
		return Event{}, fmt.Errorf("decode snapshot: %w", err)
	}
	payload, err := UnmarshalPayload(body.Kind, body.Payload)
	if err != nil {
		return Event{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return Event{
		Doc:     body.Doc,
		Time:    body.Time,
		Kind:    body.Kind,
		Actor:   body.Actor,
		Desc:    body.Desc,
		Payload: payload,
	}, nil
}
