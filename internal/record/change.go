package record

import "time"

// ChangeRecord is the canonical, source-independent form of one feed entry.
// Immutable once produced by the normalizer; the reconciliation engine is the
// only consumer.
type ChangeRecord struct {
	Doc       string
	Time      time.Time
	Dimension string
	// State is the destination state slug for Dimension. Empty when the
	// record carries no state transition (e.g. a bare review comment).
	State string

	AddTags    []string
	RemoveTags []string

	// Auth48URL is the author-review URL reported by the editorial queue.
	// Only meaningful for editorial-queue records.
	Auth48URL string

	// Index carries the registry's bibliographic data for publication
	// records. Nil for every other source.
	Index *IndexData

	// Comment carries an inbound review comment. Nil otherwise.
	Comment *CommentData

	// Queue carries editorial-queue auxiliary fields. Nil otherwise.
	Queue *QueueData
}

// IndexData is the bibliographic payload of a master-index publication
// record, post-normalization (numbers parsed, aliases de-padded, errata
// correlated).
type IndexData struct {
	Number    int
	Title     string
	Authors   []string
	Published time.Time
	Status    string // e.g. "Proposed Standard"
	Stream    string
	Group     string
	Pages     int
	Abstract  string
	Draft     string // originating draft name, revision stripped
	DraftRev  string
	Also      []string // alternate series names, e.g. "bcp1"
	Updates   []string
	Obsoletes []string
	HasErrata bool
	Formats   []string
}

// CommentData is the payload of a normalized review-email record.
type CommentData struct {
	Rev      string
	Reviewer string
	Text     string
}

// QueueData is the auxiliary payload of an editorial-queue record.
type QueueData struct {
	Rev               string
	Cluster           string
	MissRefGeneration int
	Stream            string
	Refs              []string
}
