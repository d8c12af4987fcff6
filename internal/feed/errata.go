package feed

import (
	"encoding/json"
	"fmt"
)

// Erratum is one post-publication correction record from the registry's
// errata feed. Only the identification and status fields are used by the
// tracker; the rest ride along for operator display.
type Erratum struct {
	ID            int    `json:"errata_id"`
	DocID         string `json:"doc-id"`
	StatusCode    string `json:"errata_status_code"`
	TypeCode      string `json:"errata_type_code"`
	Section       string `json:"section"`
	OrigText      string `json:"orig_text"`
	CorrectText   string `json:"correct_text"`
	Notes         string `json:"notes"`
	SubmitDate    string `json:"submit_date"`
	SubmitterName string `json:"submitter_name"`
}

// ParseErrata parses the errata JSON feed: a flat list of erratum objects.
func ParseErrata(data []byte) ([]Erratum, error) {
	var errata []Erratum
	if err := json.Unmarshal(data, &errata); err != nil {
		return nil, fmt.Errorf("%w: errata: %v", ErrMalformedFeed, err)
	}
	return errata, nil
}

// ErrataNumbers returns the set of RFC numbers that have at least one
// erratum. Correlation with index entries happens downstream; entries whose
// doc-id is not an RFC are ignored.
func ErrataNumbers(errata []Erratum) map[int]bool {
	numbers := make(map[int]bool)
	for _, e := range errata {
		if n, ok := rfcNumber(e.DocID); ok {
			numbers[n] = true
		}
	}
	return numbers
}
