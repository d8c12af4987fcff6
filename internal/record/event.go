package record

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind discriminates event payloads. One event type with a tagged payload
// replaces per-kind subtypes, so exhaustive switches catch a missing case.
type Kind string

const (
	// KindStateChanged records a transition of one state dimension.
	KindStateChanged Kind = "state-changed"
	// KindTagsChanged records tags added to or removed from a document.
	KindTagsChanged Kind = "tags-changed"
	// KindActionHoldersChanged records a change to the responsible persons.
	KindActionHoldersChanged Kind = "action-holders-changed"
	// KindReviewComment records an inbound registry review comment.
	KindReviewComment Kind = "review-comment"
	// KindInRegistry records a sighting of the document on the registry's
	// protocol listing page.
	KindInRegistry Kind = "in-registry"
	// KindQueueReceived records the editorial queue acknowledging receipt.
	KindQueueReceived Kind = "queue-received"
	// KindPublished records final publication with the registry's
	// bibliographic data.
	KindPublished Kind = "published"
	// KindSyncNote records free-text bookkeeping from a sync run.
	KindSyncNote Kind = "sync-note"
)

// Event is one append-only history entry for a document. Events are never
// edited in place; undo moves them to the snapshot log.
//
// ID is the store-assigned insertion sequence and doubles as the event's
// identity: it is strictly increasing across the whole store, so it breaks
// timestamp ties in the ordering key.
type Event struct {
	ID      int64
	Doc     string
	Time    time.Time
	Kind    Kind
	Actor   string
	Desc    string
	Payload Payload
}

// Key returns the event's composite ordering key.
func (e Event) Key() OrderKey {
	return OrderKey{Time: e.Time, Seq: e.ID}
}

// Payload is the kind-specific content of an event.
type Payload interface {
	Kind() Kind
}

// StateChanged is the payload for KindStateChanged.
type StateChanged struct {
	Dimension string `json:"dimension"`
	Prev      string `json:"prev"` // empty means the dimension was unset
	Next      string `json:"next"`
}

func (StateChanged) Kind() Kind { return KindStateChanged }

// TagsChanged is the payload for KindTagsChanged.
type TagsChanged struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

func (TagsChanged) Kind() Kind { return KindTagsChanged }

// ActionHoldersChanged is the payload for KindActionHoldersChanged.
type ActionHoldersChanged struct {
	Prev []string `json:"prev,omitempty"`
	Next []string `json:"next,omitempty"`
}

func (ActionHoldersChanged) Kind() Kind { return KindActionHoldersChanged }

// ReviewComment is the payload for KindReviewComment.
type ReviewComment struct {
	Reviewer string `json:"reviewer"`
	Text     string `json:"text"`
}

func (ReviewComment) Kind() Kind { return KindReviewComment }

// InRegistry is the payload for KindInRegistry.
type InRegistry struct {
	Page string `json:"page,omitempty"`
}

func (InRegistry) Kind() Kind { return KindInRegistry }

// QueueReceived is the payload for KindQueueReceived.
type QueueReceived struct {
	Stream string `json:"stream,omitempty"`
}

func (QueueReceived) Kind() Kind { return KindQueueReceived }

// Published is the payload for KindPublished.
type Published struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Pages  int    `json:"pages,omitempty"`
	Stream string `json:"stream,omitempty"`
}

func (Published) Kind() Kind { return KindPublished }

// SyncNote is the payload for KindSyncNote.
type SyncNote struct {
	Source string `json:"source,omitempty"`
}

func (SyncNote) Kind() Kind { return KindSyncNote }

// MarshalPayload serializes a payload to JSON for storage. A nil payload
// serializes as an empty object so the store column is never NULL.
func MarshalPayload(p Payload) ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", p.Kind(), err)
	}
	return data, nil
}

// UnmarshalPayload decodes a stored payload for the given kind.
// Unknown kinds are an error: the kind column and the payload column are
// written together, so a mismatch means a corrupt row.
func UnmarshalPayload(kind Kind, data []byte) (Payload, error) {
	if len(data) == 0 {
		data = []byte("{}")
	}
	var p Payload
	switch kind {
	case KindStateChanged:
		p = &StateChanged{}
	case KindTagsChanged:
		p = &TagsChanged{}
	case KindActionHoldersChanged:
		p = &ActionHoldersChanged{}
	case KindReviewComment:
		p = &ReviewComment{}
	case KindInRegistry:
		p = &InRegistry{}
	case KindQueueReceived:
		p = &QueueReceived{}
	case KindPublished:
		p = &Published{}
	case KindSyncNote:
		p = &SyncNote{}
	default:
		return nil, fmt.Errorf("unmarshal payload: unknown event kind %q", kind)
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
	}
	return deref(p), nil
}

// deref returns the payload by value so callers can type-switch on the
// concrete structs rather than pointers.
func deref(p Payload) Payload {
	switch v := p.(type) {
	case *StateChanged:
		return *v
	case *TagsChanged:
		return *v
	case *ActionHoldersChanged:
		return *v
	case *ReviewComment:
		return *v
	case *InRegistry:
		return *v
	case *QueueReceived:
		return *v
	case *Published:
		return *v
	case *SyncNote:
		return *v
	}
	return p
}
