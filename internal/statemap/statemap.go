// Package statemap defines the document state dimensions: their states,
// human labels, allowed next-state graphs, and the mappings from external
// feed vocabulary onto state slugs.
//
// A dimension is one independent state-machine axis of a document's
// lifecycle. The tables here are data, not behavior: the reconciliation
// engine records whatever transition a feed reports (feeds are
// authoritative), and the next-state graphs exist for discrepancy
// reporting, not enforcement.
package statemap

// Dimension slugs. Every state-changed event names one of these.
const (
	// IANAReview tracks the registry's pre-approval document review.
	IANAReview = "iana-review"
	// IANAAction tracks the registry's post-approval actions.
	IANAAction = "iana-action"
	// RFCEditor tracks the document through the editorial queue.
	RFCEditor = "rfc-editor"
	// IESG tracks the steering-group ballot/queue position.
	IESG = "iesg"
	// Draft is the overall document lifecycle.
	Draft = "draft"
	// StreamISE, StreamIRTF, StreamIAB track per-stream editorial status
	// for documents outside the IETF stream.
	StreamISE  = "stream-ise"
	StreamIRTF = "stream-irtf"
	StreamIAB  = "stream-iab"
)

// State is one node of a dimension's state graph.
type State struct {
	Slug  string
	Label string
	// Next lists slugs reachable by the standard forward flow. Feeds may
	// still move a document anywhere; this is advisory.
	Next []string
}

// Dimension is an independent named state machine.
type Dimension struct {
	Slug   string
	Label  string
	States []State

	bySlug map[string]State
}

// Get returns the state with the given slug.
func (d *Dimension) Get(slug string) (State, bool) {
	s, ok := d.bySlug[slug]
	return s, ok
}

// StateLabel returns the human label for a slug, or the slug itself when
// unknown. Unknown slugs appear when a feed introduces a state before the
// tables learn about it.
func (d *Dimension) StateLabel(slug string) string {
	if s, ok := d.bySlug[slug]; ok {
		return s.Label
	}
	return slug
}

var dimensions = map[string]*Dimension{}

func register(d *Dimension) *Dimension {
	d.bySlug = make(map[string]State, len(d.States))
	for _, s := range d.States {
		d.bySlug[s.Slug] = s
	}
	dimensions[d.Slug] = d
	return d
}

// Get returns the dimension with the given slug.
func Get(slug string) (*Dimension, bool) {
	d, ok := dimensions[slug]
	return d, ok
}

// All returns the slugs of every registered dimension, in a fixed order.
func All() []string {
	return []string{IANAReview, IANAAction, RFCEditor, IESG, Draft, StreamISE, StreamIRTF, StreamIAB}
}

// StreamDimensions returns the per-stream editorial dimensions.
func StreamDimensions() []string {
	return []string{StreamISE, StreamIRTF, StreamIAB}
}

var (
	ianaReview = register(&Dimension{
		Slug:  IANAReview,
		Label: "IANA Review",
		States: []State{
			{Slug: "need-rev", Label: "Version Changed - Review Needed", Next: []string{"ok-act", "ok-noact", "not-ok"}},
			{Slug: "ok-act", Label: "IANA OK - Actions Needed", Next: []string{"need-rev"}},
			{Slug: "ok-noact", Label: "IANA OK - No Actions Needed", Next: []string{"need-rev"}},
			{Slug: "not-ok", Label: "IANA Not OK", Next: []string{"need-rev", "ok-act", "ok-noact"}},
		},
	})

	ianaAction = register(&Dimension{
		Slug:  IANAAction,
		Label: "IANA Action",
		States: []State{
			{Slug: "newdoc", Label: "New Document", Next: []string{"inprog", "noic"}},
			{Slug: "inprog", Label: "In Progress", Next: []string{"waitrfc", "onhold"}},
			{Slug: "waitrfc", Label: "Waiting on RFC Editor", Next: []string{"rfcedack"}},
			{Slug: "rfcedack", Label: "RFC-Ed-Ack", Next: nil},
			{Slug: "onhold", Label: "On Hold", Next: []string{"inprog"}},
			{Slug: "noic", Label: "No IC", Next: nil},
		},
	})

	rfcEditor = register(&Dimension{
		Slug:  RFCEditor,
		Label: "RFC Editor",
		States: []State{
			{Slug: "missref", Label: "MISSREF", Next: []string{"edit"}},
			{Slug: "edit", Label: "EDIT", Next: []string{"rfc-edit", "iana-crd"}},
			{Slug: "rfc-edit", Label: "RFC-EDITOR", Next: []string{"auth48"}},
			{Slug: "iana-crd", Label: "IANA", Next: []string{"rfc-edit"}},
			{Slug: "auth", Label: "AUTH", Next: []string{"auth48"}},
			{Slug: "auth48", Label: "AUTH48", Next: []string{"auth48-done"}},
			{Slug: "auth48-done", Label: "AUTH48-DONE", Next: nil},
			{Slug: "iesg", Label: "IESG", Next: []string{"edit"}},
			{Slug: "isr", Label: "ISR", Next: []string{"isr-auth"}},
			{Slug: "isr-auth", Label: "ISR-AUTH", Next: []string{"edit"}},
			{Slug: "ref", Label: "REF", Next: []string{"edit"}},
			{Slug: "timeout", Label: "TO", Next: []string{"edit"}},
		},
	})

	iesg = register(&Dimension{
		Slug:  IESG,
		Label: "IESG",
		States: []State{
			{Slug: "lc", Label: "In Last Call", Next: []string{"iesg-eva"}},
			{Slug: "iesg-eva", Label: "IESG Evaluation", Next: []string{"approved"}},
			{Slug: "approved", Label: "Approved-announcement to be sent", Next: []string{"ann"}},
			{Slug: "ann", Label: "Approved-announcement sent", Next: []string{"rfcqueue"}},
			{Slug: "rfcqueue", Label: "RFC Ed Queue", Next: []string{"pub"}},
			{Slug: "pub", Label: "RFC Published", Next: nil},
		},
	})

	draft = register(&Dimension{
		Slug:  Draft,
		Label: "Document",
		States: []State{
			{Slug: "active", Label: "Active", Next: []string{"rfc", "expired"}},
			{Slug: "expired", Label: "Expired", Next: []string{"active"}},
			{Slug: "rfc", Label: "RFC", Next: nil},
		},
	})
)

func init() {
	for _, slug := range StreamDimensions() {
		register(&Dimension{
			Slug:  slug,
			Label: slug,
			States: []State{
				{Slug: "active", Label: "Active", Next: []string{"rfc-edit"}},
				{Slug: "rfc-edit", Label: "In RFC Editor Queue", Next: []string{"pub"}},
				{Slug: "pub", Label: "Published RFC", Next: nil},
			},
		})
	}
}

// PreQueueIESG reports whether an IESG state slug precedes the editorial
// queue. Used by the queue-entry cascade to decide whether to advance.
func PreQueueIESG(slug string) bool {
	switch slug {
	case "", "lc", "iesg-eva", "approved", "ann":
		return true
	}
	return false
}

// TerminalIESG is the IESG slug set on final publication.
const TerminalIESG = "pub"

// QueueIESG is the IESG slug set when a document enters the editorial queue.
const QueueIESG = "rfcqueue"
