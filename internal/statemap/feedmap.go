package statemap

// Feed vocabulary mappings. The change-log feed names dimensions and states
// in its own vocabulary; these tables translate it. A label absent from its
// table is not an error; the normalizer drops such records (the feed
// reports intermediate informational statuses the tracker does not model).

// feedTypeDimension maps the change-log "type" key to a dimension slug.
var feedTypeDimension = map[string]string{
	"iana_review": IANAReview,
	"iana_state":  IANAAction,
}

// FeedTypeDimension resolves a change-log record type to a dimension slug.
func FeedTypeDimension(feedType string) (string, bool) {
	d, ok := feedTypeDimension[feedType]
	return d, ok
}

// reviewLabelSlug maps change-log review labels to iana-review slugs.
// "IANA - Review Needed" is intentionally absent: it is an informational
// interim status with no tracked counterpart.
var reviewLabelSlug = map[string]string{
	"IANA OK - Actions Needed":        "ok-act",
	"IANA OK - No Actions Needed":     "ok-noact",
	"IANA Not OK":                     "not-ok",
	"Version Changed - Review Needed": "need-rev",
}

// actionLabelSlug maps change-log action labels to iana-action slugs.
// The feed has historically spelled "RFC-Editor" both with and without the
// hyphen; both spellings are accepted.
var actionLabelSlug = map[string]string{
	"New Document":          "newdoc",
	"In Progress":           "inprog",
	"Waiting on RFC Editor": "waitrfc",
	"Waiting on RFC-Editor": "waitrfc",
	"RFC-Ed-Ack":            "rfcedack",
	"On Hold":               "onhold",
	"No IC":                 "noic",
}

// FeedLabelSlug resolves a change-log state label to a slug for the given
// dimension. The second result is false when the label is unmapped and the
// record should be dropped.
func FeedLabelSlug(dimension, label string) (string, bool) {
	switch dimension {
	case IANAReview:
		s, ok := reviewLabelSlug[label]
		return s, ok
	case IANAAction:
		s, ok := actionLabelSlug[label]
		return s, ok
	}
	return "", false
}

// queueBaseSlug maps editorial-queue compact-token base states to
// rfc-editor slugs.
var queueBaseSlug = map[string]string{
	"MISSREF":     "missref",
	"EDIT":        "edit",
	"RFC-EDITOR":  "rfc-edit",
	"IANA":        "iana-crd",
	"AUTH":        "auth",
	"AUTH48":      "auth48",
	"AUTH48-DONE": "auth48-done",
	"IESG":        "iesg",
	"ISR":         "isr",
	"ISR-AUTH":    "isr-auth",
	"REF":         "ref",
	"TO":          "timeout",
}

// QueueBaseSlug resolves an editorial-queue base-state token to an
// rfc-editor slug.
func QueueBaseSlug(base string) (string, bool) {
	s, ok := queueBaseSlug[base]
	return s, ok
}

// streamDimension maps an editorial-queue stream value to the per-stream
// dimension advanced at publication. The IETF stream is tracked by the IESG
// dimension instead, so it has no entry here.
var streamDimension = map[string]string{
	"ise":  StreamISE,
	"irtf": StreamIRTF,
	"iab":  StreamIAB,
}

// StreamDimension resolves a stream name (lowercased) to its dimension.
func StreamDimension(stream string) (string, bool) {
	d, ok := streamDimension[stream]
	return d, ok
}
