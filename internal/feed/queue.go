package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// QueueEntry is one raw editorial-queue entry, post token decomposition.
type QueueEntry struct {
	Name              string // draft name, revision stripped
	Rev               string
	DateReceived      string // as reported, YYYY-MM-DD
	State             string // base state token, e.g. "EDIT"
	StateUnknown      bool   // base state not in the known table
	Tags              []string
	MissRefGeneration int
	Stream            string // lowercased stream from the section name
	Auth48URL         string
	Cluster           string
	Refs              []QueueRef
	Authors           string
	Title             string
	Bytes             int64
	Source            string
}

// QueueRef is one normative reference reported for a queue entry.
type QueueRef struct {
	Name  string
	State string // e.g. "IN-QUEUE", "NOT-RECEIVED"
}

// QueueOption adjusts queue parsing behavior.
type QueueOption func(*queueOptions)

type queueOptions struct {
	tolerated map[string]bool
}

// WithToleratedStates declares base-state tokens that parse without a
// warning even though they are not in the known table. The queue introduces
// states ahead of tracker releases; tolerating them keeps known-benign
// additions out of the operator report. Defaults to {"TI"}.
func WithToleratedStates(states ...string) QueueOption {
	return func(o *queueOptions) {
		o.tolerated = make(map[string]bool, len(states))
		for _, s := range states {
			o.tolerated[s] = true
		}
	}
}

type queueXML struct {
	XMLName  xml.Name          `xml:"rfc-editor-queue"`
	Sections []queueSectionXML `xml:"section"`
}

type queueSectionXML struct {
	Name     string            `xml:"name,attr"`
	Entries  []queueEntryXML   `xml:"entry"`
	Clusters []queueClusterXML `xml:"cluster"`
}

type queueClusterXML struct {
	ID      string          `xml:"id,attr"`
	Entries []queueEntryXML `xml:"entry"`
}

type queueEntryXML struct {
	ID           string        `xml:"id,attr"`
	Draft        string        `xml:"draft"`
	DateReceived string        `xml:"date-received"`
	State        string        `xml:"state"`
	Auth48URL    string        `xml:"auth48-url"`
	NormRefs     []queueRefXML `xml:"normRef"`
	Authors      string        `xml:"authors"`
	Title        string        `xml:"title"`
	Bytes        int64         `xml:"bytes"`
	Source       string        `xml:"source"`
}

type queueRefXML struct {
	Name  string `xml:"ref-name"`
	State string `xml:"ref-state"`
}

// ParseQueue parses the editorial-queue XML feed.
//
// Entries with unrecognized base-state tokens are reported as warnings
// (unless tolerated, see WithToleratedStates) but still returned, so the
// caller can decide whether to skip them. Structurally invalid XML is a
// hard error.
func ParseQueue(r io.Reader, opts ...QueueOption) ([]QueueEntry, []string, error) {
	options := queueOptions{tolerated: map[string]bool{"TI": true}}
	for _, opt := range opts {
		opt(&options)
	}

	var doc queueXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("%w: queue xml: %v", ErrMalformedFeed, err)
	}

	var entries []QueueEntry
	var warnings []string
	for _, section := range doc.Sections {
		stream := sectionStream(section.Name)
		for _, e := range section.Entries {
			entry, warns, err := convertQueueEntry(e, stream, "", options)
			if err != nil {
				return nil, nil, err
			}
			warnings = append(warnings, warns...)
			entries = append(entries, entry)
		}
		for _, cluster := range section.Clusters {
			for _, e := range cluster.Entries {
				entry, warns, err := convertQueueEntry(e, stream, cluster.ID, options)
				if err != nil {
					return nil, nil, err
				}
				warnings = append(warnings, warns...)
				entries = append(entries, entry)
			}
		}
	}
	return entries, warnings, nil
}

func convertQueueEntry(e queueEntryXML, stream, cluster string, options queueOptions) (QueueEntry, []string, error) {
	name, rev := SplitDraftFilename(e.Draft)
	if name == "" {
		return QueueEntry{}, nil, fmt.Errorf("%w: queue entry %q: missing draft name", ErrMalformedFeed, e.ID)
	}

	tok, err := ParseStateToken(e.State)
	if err != nil {
		return QueueEntry{}, nil, fmt.Errorf("%w: queue entry %s: %v", ErrMalformedFeed, name, err)
	}

	var warnings []string
	if tok.Unknown && !options.tolerated[tok.Base] {
		warnings = append(warnings, fmt.Sprintf("queue entry %s: unrecognized state %q", name, tok.Base))
	}

	var refs []QueueRef
	for _, ref := range e.NormRefs {
		refs = append(refs, QueueRef{Name: strings.TrimSpace(ref.Name), State: strings.TrimSpace(ref.State)})
	}

	return QueueEntry{
		Name:              name,
		Rev:               rev,
		DateReceived:      strings.TrimSpace(e.DateReceived),
		State:             tok.Base,
		StateUnknown:      tok.Unknown,
		Tags:              tok.Tags,
		MissRefGeneration: tok.MissRefGeneration,
		Stream:            stream,
		Auth48URL:         strings.TrimSpace(e.Auth48URL),
		Cluster:           cluster,
		Refs:              refs,
		Authors:           strings.TrimSpace(e.Authors),
		Title:             strings.TrimSpace(e.Title),
		Bytes:             e.Bytes,
		Source:            strings.TrimSpace(e.Source),
	}, warnings, nil
}

// sectionStream derives the stream from a section name such as
// "IETF STREAM: WORKING GROUP STANDARDS TRACK".
func sectionStream(name string) string {
	upper := strings.ToUpper(name)
	i := strings.Index(upper, " STREAM")
	if i == -1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(upper[:i]))
}

// SplitDraftFilename splits "draft-ietf-foo-07.txt" into name and revision.
// The revision suffix is optional; a bare name returns an empty revision.
func SplitDraftFilename(filename string) (name, rev string) {
	s := strings.TrimSuffix(strings.TrimSpace(filename), ".txt")
	i := strings.LastIndex(s, "-")
	if i == -1 {
		return s, ""
	}
	tail := s[i+1:]
	if len(tail) != 2 || !isDigits(tail) {
		return s, ""
	}
	return s[:i], tail
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
