package feed

import "errors"

var (
	// ErrFeedReported means the feed body carried an explicit error message
	// instead of data. The whole batch is rejected.
	ErrFeedReported = errors.New("feed reported an error")

	// ErrMalformedFeed means the feed envelope is structurally invalid
	// (missing required key, bad type, unparsable markup). The whole batch
	// is rejected.
	ErrMalformedFeed = errors.New("malformed feed")
)
