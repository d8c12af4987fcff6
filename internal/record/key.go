package record

import "time"

// OrderKey is the composite ordering key for events: wall-clock time plus
// the store-assigned insertion sequence.
//
// Feeds report second-granularity timestamps, so ties are common. The
// insertion sequence breaks them deterministically: of two events with the
// same Time, the one appended later is the more recent. "Current state"
// queries always mean max-by-OrderKey, never storage default order.
type OrderKey struct {
	Time time.Time
	Seq  int64
}

// Compare returns -1 if k orders before other, +1 if after, 0 if equal.
// Time is compared first; Seq breaks ties.
func (k OrderKey) Compare(other OrderKey) int {
	switch {
	case k.Time.Before(other.Time):
		return -1
	case k.Time.After(other.Time):
		return 1
	case k.Seq < other.Seq:
		return -1
	case k.Seq > other.Seq:
		return 1
	}
	return 0
}

// Before reports whether k orders strictly before other.
func (k OrderKey) Before(other OrderKey) bool {
	return k.Compare(other) < 0
}

// After reports whether k orders strictly after other.
func (k OrderKey) After(other OrderKey) bool {
	return k.Compare(other) > 0
}
