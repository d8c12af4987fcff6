// Package normalize converts raw feed parser output into canonical
// record.ChangeRecord values.
//
// The normalizer owns vocabulary translation (feed labels to state slugs,
// byte counts and zero-padded identifiers to canonical units) and the
// errata correlation for master-index records. It drops records whose
// textual state has no tracked counterpart; it never resolves document
// names against storage.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stdtrack/regsync/internal/feed"
	"github.com/stdtrack/regsync/internal/record"
	"github.com/stdtrack/regsync/internal/statemap"
)

// Changes normalizes change-log records. Records whose state label does not
// map to a tracked slug are dropped (the feed reports interim informational
// statuses); records with an unknown type cannot occur here because the
// parser rejects them.
func Changes(changes []feed.Change) ([]record.ChangeRecord, error) {
	var out []record.ChangeRecord
	for _, c := range changes {
		dimension, ok := statemap.FeedTypeDimension(c.Type)
		if !ok {
			return nil, fmt.Errorf("normalize changes: unknown record type %q", c.Type)
		}
		slug, ok := statemap.FeedLabelSlug(dimension, c.State)
		if !ok {
			continue
		}
		out = append(out, record.ChangeRecord{
			Doc:       c.Doc,
			Time:      c.Time,
			Dimension: dimension,
			State:     slug,
		})
	}
	return out, nil
}

// QueueEntries normalizes editorial-queue entries. Entries whose base state
// is unknown are dropped here (the parser already warned), so a
// newly-introduced queue state never produces a bogus transition.
//
// The state token's markers define the document's whole marker tag set:
// each record adds the markers present and removes the ones absent, so a
// queue run resyncs the set even when the base state has not moved.
func QueueEntries(entries []feed.QueueEntry, asOf time.Time) []record.ChangeRecord {
	var out []record.ChangeRecord
	for _, e := range entries {
		slug, ok := statemap.QueueBaseSlug(e.State)
		if !ok {
			continue
		}
		var refs []string
		for _, ref := range e.Refs {
			refs = append(refs, ref.Name)
		}
		out = append(out, record.ChangeRecord{
			Doc:        e.Name,
			Time:       asOf,
			Dimension:  statemap.RFCEditor,
			State:      slug,
			AddTags:    e.Tags,
			RemoveTags: staleMarkers(e.Tags),
			Auth48URL:  e.Auth48URL,
			Queue: &record.QueueData{
				Rev:               e.Rev,
				Cluster:           e.Cluster,
				MissRefGeneration: e.MissRefGeneration,
				Stream:            e.Stream,
				Refs:              refs,
			},
		})
	}
	return out
}

// IndexEntries normalizes master-index entries into publication records,
// correlating the errata list by RFC number to decide the errata tag.
// asOf stamps the records; publication feeds carry only month granularity,
// so the run time orders them against other feeds.
func IndexEntries(entries []feed.IndexEntry, errata []feed.Erratum, asOf time.Time) []record.ChangeRecord {
	withErrata := feed.ErrataNumbers(errata)

	var out []record.ChangeRecord
	for _, e := range entries {
		if e.Draft == "" {
			// Registry entries with no originating draft cannot be
			// reconciled against tracked documents.
			continue
		}
		out = append(out, record.ChangeRecord{
			Doc:       e.Draft,
			Time:      asOf,
			Dimension: statemap.Draft,
			State:     "rfc",
			Index: &record.IndexData{
				Number:    e.Number,
				Title:     e.Title,
				Authors:   e.Authors,
				Published: e.Published,
				Status:    e.Status,
				Stream:    e.Stream,
				Group:     e.Group,
				Pages:     e.Pages,
				Abstract:  e.Abstract,
				Draft:     e.Draft,
				DraftRev:  e.DraftRev,
				Also:      e.Also,
				Updates:   seriesNames(e.Updates),
				Obsoletes: seriesNames(e.Obsoletes),
				HasErrata: withErrata[e.Number],
				Formats:   e.Formats,
			},
		})
	}
	return out
}

// seriesNames canonicalizes registry doc-ids ("RFC2345", "BCP0001") into
// lowercase de-padded names ("rfc2345", "bcp1"). Identifiers with no
// numeric part pass through lowercased.
func seriesNames(docIDs []string) []string {
	var out []string
	for _, id := range docIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		i := 0
		for i < len(id) && (id[i] < '0' || id[i] > '9') {
			i++
		}
		if i == 0 || i == len(id) {
			out = append(out, strings.ToLower(id))
			continue
		}
		n, err := strconv.Atoi(id[i:])
		if err != nil {
			out = append(out, strings.ToLower(id))
			continue
		}
		out = append(out, strings.ToLower(id[:i])+strconv.Itoa(n))
	}
	return out
}

// staleMarkers returns the marker tag slugs absent from tags. A queue
// entry's markers replace the document's marker set, so absence means
// removal.
func staleMarkers(tags []string) []string {
	present := make(map[string]bool, len(tags))
	for _, t := range tags {
		present[t] = true
	}
	var out []string
	for _, slug := range feed.TagMarkerSlugs() {
		if !present[slug] {
			out = append(out, slug)
		}
	}
	return out
}

// Review normalizes a parsed review email into a comment record.
func Review(email feed.ReviewEmail) record.ChangeRecord {
	return record.ChangeRecord{
		Doc:  email.Name,
		Time: email.Time,
		Comment: &record.CommentData{
			Rev:      email.Rev,
			Reviewer: email.Reviewer,
			Text:     email.Comment,
		},
	}
}
