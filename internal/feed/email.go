package feed

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// ReviewEmail is the parsed form of one inbound registry review message.
type ReviewEmail struct {
	Name     string // document name, e.g. "draft-ietf-foo"
	Rev      string
	Reviewer string // display name from the From header, or the bare address
	Time     time.Time
	Comment  string // text of the tagged block
}

// reviewBeginRe matches the opening marker of a tagged review block, e.g.
// "(BEGIN IANA LAST CALL COMMENTS: draft-ietf-foo-07.txt)". The embedded
// document name is optional.
var reviewBeginRe = regexp.MustCompile(`\(BEGIN IANA ([A-Z][A-Z ]*[A-Z])(?::\s*(\S+?))?\)`)

// subjectDraftRe extracts a document reference from a subject line such as
// "Last Call: <draft-ietf-foo-07.txt> (Title) to Informational RFC".
var subjectDraftRe = regexp.MustCompile(`<(draft-[^<>]+)\.txt>`)

// ParseReviewEmail parses a raw registry review message.
//
// The review text sits in a block delimited by (BEGIN IANA <TAG>) and
// (END IANA <TAG>). The document name may come from the block's embedded
// name or from the subject line; the two are redundant and either may be
// absent, but when both are missing the message is rejected.
func ParseReviewEmail(raw []byte) (ReviewEmail, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return ReviewEmail{}, fmt.Errorf("%w: review email: %v", ErrMalformedFeed, err)
	}

	body, err := decodeBody(msg)
	if err != nil {
		return ReviewEmail{}, err
	}

	begin := reviewBeginRe.FindStringSubmatchIndex(body)
	if begin == nil {
		return ReviewEmail{}, fmt.Errorf("%w: review email: no review block found", ErrMalformedFeed)
	}
	tag := body[begin[2]:begin[3]]
	var embedded string
	if begin[4] != -1 {
		embedded = body[begin[4]:begin[5]]
	}

	endMarker := "(END IANA " + tag + ")"
	end := strings.Index(body[begin[1]:], endMarker)
	if end == -1 {
		return ReviewEmail{}, fmt.Errorf("%w: review email: missing %s", ErrMalformedFeed, endMarker)
	}
	comment := strings.TrimSpace(body[begin[1] : begin[1]+end])

	review := ReviewEmail{Comment: comment}

	if embedded != "" {
		review.Name, review.Rev = SplitDraftFilename(embedded)
	}
	if review.Name == "" {
		if m := subjectDraftRe.FindStringSubmatch(decodeHeader(msg.Header.Get("Subject"))); m != nil {
			review.Name, review.Rev = SplitDraftFilename(m[1] + ".txt")
		}
	}
	if review.Name == "" {
		return ReviewEmail{}, fmt.Errorf("%w: review email: no document name in block or subject", ErrMalformedFeed)
	}

	if date := msg.Header.Get("Date"); date != "" {
		t, err := mail.ParseDate(date)
		if err != nil {
			return ReviewEmail{}, fmt.Errorf("%w: review email: bad date %q: %v", ErrMalformedFeed, date, err)
		}
		review.Time = t
	}

	review.Reviewer = reviewerName(msg.Header.Get("From"))

	return review, nil
}

// decodeBody reads the message body, undoing quoted-printable transfer
// encoding and any non-UTF-8 charset declared on the content type.
func decodeBody(msg *mail.Message) (string, error) {
	var r io.Reader = msg.Body

	if strings.EqualFold(strings.TrimSpace(msg.Header.Get("Content-Transfer-Encoding")), "quoted-printable") {
		r = quotedprintable.NewReader(r)
	}

	if ct := msg.Header.Get("Content-Type"); ct != "" {
		if _, params, err := mime.ParseMediaType(ct); err == nil {
			if cs := params["charset"]; cs != "" && !isUTF8Charset(cs) {
				enc, err := ianaindex.MIME.Encoding(cs)
				if err != nil || enc == nil {
					return "", fmt.Errorf("%w: review email: unsupported charset %q", ErrMalformedFeed, cs)
				}
				r = transform.NewReader(r, enc.NewDecoder())
			}
		}
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: review email body: %v", ErrMalformedFeed, err)
	}
	return string(body), nil
}

func isUTF8Charset(cs string) bool {
	switch strings.ToLower(cs) {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return true
	}
	return false
}

// headerDecoder decodes RFC 2047 encoded-words, resolving charsets through
// the IANA registry so non-UTF-8 reviewer names survive.
var headerDecoder = mime.WordDecoder{
	CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := ianaindex.MIME.Encoding(charset)
		if err != nil || enc == nil {
			return nil, fmt.Errorf("unsupported charset %q", charset)
		}
		return transform.NewReader(input, enc.NewDecoder()), nil
	},
}

func decodeHeader(s string) string {
	decoded, err := headerDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}

// reviewerName extracts a display name from the From header, falling back
// to the bare address.
func reviewerName(from string) string {
	if from == "" {
		return ""
	}
	addr, err := mail.ParseAddress(decodeHeader(from))
	if err != nil {
		return strings.TrimSpace(from)
	}
	if addr.Name != "" {
		return addr.Name
	}
	return addr.Address
}
