package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// IndexEntry is one fully-resolved rfc-entry from the master index.
// Alternate-series entries (bcp/fyi/std) do not appear on their own; their
// is-also references are folded into Also on the RFC they point at.
type IndexEntry struct {
	Number      int
	Title       string
	Authors     []string
	Published   time.Time
	Status      string // title-cased, e.g. "Proposed Standard"
	Updates     []string
	UpdatedBy   []string
	Obsoletes   []string
	ObsoletedBy []string
	Also        []string // de-padded series names, e.g. "bcp1"
	Draft       string   // originating draft name, revision stripped
	DraftRev    string
	ErrataURL   string
	Stream      string
	Group       string
	Formats     []string
	Pages       int
	Abstract    string
}

type indexXML struct {
	XMLName xml.Name         `xml:"rfc-index"`
	RFCs    []rfcEntryXML    `xml:"rfc-entry"`
	BCPs    []seriesEntryXML `xml:"bcp-entry"`
	FYIs    []seriesEntryXML `xml:"fyi-entry"`
	STDs    []seriesEntryXML `xml:"std-entry"`
}

type seriesEntryXML struct {
	DocID  string   `xml:"doc-id"`
	IsAlso []string `xml:"is-also>doc-id"`
}

type rfcEntryXML struct {
	DocID       string   `xml:"doc-id"`
	Title       string   `xml:"title"`
	Authors     []string `xml:"author>name"`
	DateMonth   string   `xml:"date>month"`
	DateYear    string   `xml:"date>year"`
	Formats     []string `xml:"format>file-format"`
	PageCount   string   `xml:"page-count"`
	Abstract    []string `xml:"abstract>p"`
	Draft       string   `xml:"draft"`
	Updates     []string `xml:"updates>doc-id"`
	UpdatedBy   []string `xml:"updated-by>doc-id"`
	Obsoletes   []string `xml:"obsoletes>doc-id"`
	ObsoletedBy []string `xml:"obsoleted-by>doc-id"`
	IsAlso      []string `xml:"is-also>doc-id"`
	Status      string   `xml:"current-status"`
	Stream      string   `xml:"stream"`
	Group       string   `xml:"wg_acronym"`
	ErrataURL   string   `xml:"errata-url"`
}

var statusCaser = cases.Title(language.English)

// ParseIndex parses the master-index XML feed into one entry per rfc-entry.
//
// is-also cross-references are resolved in both directions: an RFC listing a
// BCP and a BCP listing the RFC both contribute the alternate name to the
// RFC's Also set. Entry kinds other than rfc-entry carry no bibliographic
// data of their own.
func ParseIndex(r io.Reader) ([]IndexEntry, error) {
	var doc indexXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: index xml: %v", ErrMalformedFeed, err)
	}

	// Alternate names pointed at each RFC number by series entries.
	alsoByNumber := make(map[int][]string)
	for _, series := range [][]seriesEntryXML{doc.BCPs, doc.FYIs, doc.STDs} {
		for _, e := range series {
			seriesName, ok := normalizeDocID(e.DocID)
			if !ok {
				return nil, fmt.Errorf("%w: index: bad series doc-id %q", ErrMalformedFeed, e.DocID)
			}
			for _, ref := range e.IsAlso {
				if n, ok := rfcNumber(ref); ok {
					alsoByNumber[n] = append(alsoByNumber[n], seriesName)
				}
			}
		}
	}

	var entries []IndexEntry
	for _, e := range doc.RFCs {
		entry, err := convertRFCEntry(e, alsoByNumber)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func convertRFCEntry(e rfcEntryXML, alsoByNumber map[int][]string) (IndexEntry, error) {
	number, ok := rfcNumber(e.DocID)
	if !ok {
		return IndexEntry{}, fmt.Errorf("%w: index: bad rfc doc-id %q", ErrMalformedFeed, e.DocID)
	}

	entry := IndexEntry{
		Number:      number,
		Title:       strings.TrimSpace(e.Title),
		Status:      statusCaser.String(strings.ToLower(strings.TrimSpace(e.Status))),
		Updates:     trimAll(e.Updates),
		UpdatedBy:   trimAll(e.UpdatedBy),
		Obsoletes:   trimAll(e.Obsoletes),
		ObsoletedBy: trimAll(e.ObsoletedBy),
		ErrataURL:   strings.TrimSpace(e.ErrataURL),
		Stream:      strings.TrimSpace(e.Stream),
		Group:       strings.TrimSpace(e.Group),
		Formats:     trimAll(e.Formats),
		Abstract:    strings.TrimSpace(strings.Join(e.Abstract, "\n\n")),
	}

	for _, a := range e.Authors {
		entry.Authors = append(entry.Authors, strings.TrimSpace(a))
	}

	entry.Draft, entry.DraftRev = SplitDraftFilename(e.Draft)

	if e.PageCount != "" {
		pages, err := strconv.Atoi(strings.TrimSpace(e.PageCount))
		if err != nil {
			return IndexEntry{}, fmt.Errorf("%w: index: rfc%d: bad page-count %q", ErrMalformedFeed, number, e.PageCount)
		}
		entry.Pages = pages
	}

	if e.DateMonth != "" && e.DateYear != "" {
		published, err := time.Parse("January 2006", e.DateMonth+" "+e.DateYear)
		if err != nil {
			return IndexEntry{}, fmt.Errorf("%w: index: rfc%d: bad date %q %q", ErrMalformedFeed, number, e.DateMonth, e.DateYear)
		}
		entry.Published = published
	}

	// Merge is-also from both directions, deduplicated.
	seen := make(map[string]bool)
	for _, ref := range e.IsAlso {
		if name, ok := normalizeDocID(ref); ok && !seen[name] {
			seen[name] = true
			entry.Also = append(entry.Also, name)
		}
	}
	for _, name := range alsoByNumber[number] {
		if !seen[name] {
			seen[name] = true
			entry.Also = append(entry.Also, name)
		}
	}

	return entry, nil
}

// rfcNumber extracts the number from an "RFC1234"-style doc-id.
func rfcNumber(docID string) (int, bool) {
	s := strings.TrimSpace(docID)
	if len(s) < 4 || !strings.EqualFold(s[:3], "rfc") {
		return 0, false
	}
	n, err := strconv.Atoi(s[3:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// normalizeDocID turns a zero-padded series doc-id such as "BCP0001" into
// its canonical lowercase name "bcp1".
func normalizeDocID(docID string) (string, bool) {
	s := strings.TrimSpace(docID)
	i := 0
	for i < len(s) && (s[i] < '0' || s[i] > '9') {
		i++
	}
	if i == 0 || i == len(s) {
		return "", false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return "", false
	}
	return strings.ToLower(s[:i]) + strconv.Itoa(n), true
}

func trimAll(ss []string) []string {
	var out []string
	for _, s := range ss {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
