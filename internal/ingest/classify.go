package ingest

import (
	"path/filepath"
	"strings"
)

// FeedKind identifies which feed a dropped file belongs to.
type FeedKind string

const (
	FeedChanges  FeedKind = "changes"
	FeedQueue    FeedKind = "queue"
	FeedIndex    FeedKind = "index"
	FeedErrata   FeedKind = "errata"
	FeedProtocol FeedKind = "protocol"
	FeedMail     FeedKind = "mail"
	FeedUnknown  FeedKind = "unknown"
)

// Classify maps an inbox filename to its feed by name prefix and
// extension: changes*.json, queue*.xml, index*.xml, errata*.json,
// protocol*.html, *.eml.
func Classify(path string) FeedKind {
	base := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(base)

	if ext == ".eml" {
		return FeedMail
	}

	switch {
	case strings.HasPrefix(base, "changes") && ext == ".json":
		return FeedChanges
	case strings.HasPrefix(base, "queue") && ext == ".xml":
		return FeedQueue
	case strings.HasPrefix(base, "index") && ext == ".xml":
		return FeedIndex
	case strings.HasPrefix(base, "errata") && ext == ".json":
		return FeedErrata
	case strings.HasPrefix(base, "protocol") && (ext == ".html" || ext == ".htm"):
		return FeedProtocol
	}
	return FeedUnknown
}
