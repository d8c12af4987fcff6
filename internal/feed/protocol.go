package feed

import (
	"regexp"
	"strings"
)

// protocolAnchorRe matches registry protocol-page anchors of the form
// href="/go/rfc1234/" (scheme+host prefix and trailing slash optional).
var protocolAnchorRe = regexp.MustCompile(`(?i)href="(?:https?://[^"/]*)?/go/((?:rfc|bcp|fyi|std)[0-9]+)/?"`)

// ParseProtocolPage scans registry listing markup for references to tracked
// documents and returns the referenced names, lowercased, in document order
// with duplicates removed.
//
// The page carries no timestamps; the caller supplies an as-of watermark
// when recording sightings.
func ParseProtocolPage(html string) []string {
	matches := protocolAnchorRe.FindAllStringSubmatch(html, -1)
	seen := make(map[string]bool, len(matches))
	var names []string
	for _, m := range matches {
		name := strings.ToLower(m[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
