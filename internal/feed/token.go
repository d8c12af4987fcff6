package feed

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// StateToken is the decomposed form of an editorial-queue compact state
// token such as "EDIT*R*A(1G)": a base state, tag markers, and an optional
// parenthesized missing-reference generation.
type StateToken struct {
	Base              string
	Tags              []string
	MissRefGeneration int
	// Unknown is set when Base is not in the known base-state table. The
	// record is still usable; the caller decides whether to warn.
	Unknown bool
}

// tagMarkers maps a '*'-prefixed marker letter to the tag slug it sets.
// New markers are added here, not by patching string offsets.
var tagMarkers = map[byte]string{
	'R': "ref",  // holds a normative reference still in the queue
	'A': "iana", // IANA actions outstanding
}

// TagMarkerSlugs returns every tag slug a queue state token can carry, in
// a stable order. A queue run replaces this whole set on a document, so
// callers need the full vocabulary, not just the markers that are present.
func TagMarkerSlugs() []string {
	slugs := make([]string, 0, len(tagMarkers))
	for _, slug := range tagMarkers {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// knownBases is the set of base states the tokenizer recognizes, matching
// the rfc-editor dimension plus bases the queue emits without a tracked
// counterpart.
var knownBases = map[string]bool{
	"MISSREF": true, "EDIT": true, "RFC-EDITOR": true, "IANA": true,
	"AUTH": true, "AUTH48": true, "AUTH48-DONE": true, "IESG": true,
	"ISR": true, "ISR-AUTH": true, "REF": true, "TO": true,
}

// ParseStateToken tokenizes a compact state token.
//
// Grammar: BASE ( '*' MARKER )* ( '(' DIGITS 'G' ')' )?
//
// BASE runs to the first '*' or '('. An unrecognized BASE is not an error;
// the token is returned with Unknown set. An unrecognized MARKER or a
// malformed parenthesized group is a hard error, since it means the grammar
// itself has drifted from the feed.
func ParseStateToken(s string) (StateToken, error) {
	var tok StateToken

	rest := strings.TrimSpace(s)
	end := strings.IndexAny(rest, "*(")
	if end == -1 {
		end = len(rest)
	}
	tok.Base = rest[:end]
	rest = rest[end:]
	if tok.Base == "" {
		return tok, fmt.Errorf("state token %q: empty base state", s)
	}
	tok.Unknown = !knownBases[tok.Base]

	for strings.HasPrefix(rest, "*") {
		if len(rest) < 2 {
			return tok, fmt.Errorf("state token %q: dangling tag marker", s)
		}
		tag, ok := tagMarkers[rest[1]]
		if !ok {
			return tok, fmt.Errorf("state token %q: unknown tag marker %q", s, rest[1])
		}
		tok.Tags = append(tok.Tags, tag)
		rest = rest[2:]
	}

	if strings.HasPrefix(rest, "(") {
		closing := strings.IndexByte(rest, ')')
		if closing == -1 {
			return tok, fmt.Errorf("state token %q: unterminated generation marker", s)
		}
		gen := rest[1:closing]
		if !strings.HasSuffix(gen, "G") {
			return tok, fmt.Errorf("state token %q: bad generation marker %q", s, gen)
		}
		n, err := strconv.Atoi(strings.TrimSuffix(gen, "G"))
		if err != nil {
			return tok, fmt.Errorf("state token %q: bad generation marker %q", s, gen)
		}
		tok.MissRefGeneration = n
		rest = rest[closing+1:]
	}

	if rest != "" {
		return tok, fmt.Errorf("state token %q: trailing %q", s, rest)
	}
	return tok, nil
}
