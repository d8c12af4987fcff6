package feed

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewMessage(subject, tag, embeddedName string) []byte {
	msg := fmt.Sprintf(`From: "Iana Person" <iana@example.org>
Date: Thu, 10 May 2012 12:00:05 +0000
Content-Transfer-Encoding: quoted-printable
Content-Type: text/plain; charset=utf-8
%s

(BEGIN IANA %s%s)

IESG:

IANA has reviewed draft-ietf-example-07, which is=20
currently in Last Call, and has the following comments:

IANA understands that, upon approval of this document, there are no=20
IANA Actions that need completion.

Thanks,

Iana =E2=80=9CFake Test=E2=80=9D Person
ICANN

(END IANA %s)
`, subject, tag, embeddedName, tag)
	return []byte(strings.ReplaceAll(msg, "\n", "\r\n"))
}

func TestParseReviewEmail(t *testing.T) {
	subjects := []string{
		"Subject: [IANA #12345] Last Call: <draft-ietf-example-07.txt> (Long text) to Informational RFC",
		"Subject: Vacuous Subject",
	}
	tags := []string{"LAST CALL COMMENTS", "COMMENTS"}
	embeddedNames := []string{": draft-ietf-example-07.txt", ""}

	for _, subject := range subjects {
		for _, tag := range tags {
			for _, embedded := range embeddedNames {
				if embedded == "" && strings.Contains(subject, "Vacuous") {
					continue // no name source at all; covered separately
				}
				name := fmt.Sprintf("%.20s/%s/embedded=%v", subject[9:], tag, embedded != "")
				t.Run(name, func(t *testing.T) {
					review, err := ParseReviewEmail(reviewMessage(subject, tag, embedded))
					require.NoError(t, err)

					assert.Equal(t, "draft-ietf-example", review.Name)
					assert.Equal(t, "07", review.Rev)
					assert.Equal(t, "Iana Person", review.Reviewer)
					assert.True(t, review.Time.Equal(time.Date(2012, 5, 10, 12, 0, 5, 0, time.UTC)))
					assert.Contains(t, strings.ReplaceAll(review.Comment, "\r\n", ""), "there are no IANA Actions")
					// Quoted-printable soft breaks are undone.
					assert.NotContains(t, review.Comment, "=20")
					assert.Contains(t, review.Comment, "Iana “Fake Test” Person")
				})
			}
		}
	}
}

func TestParseReviewEmail_NoNameAnywhere(t *testing.T) {
	_, err := ParseReviewEmail(reviewMessage("Subject: Vacuous Subject", "COMMENTS", ""))
	require.ErrorIs(t, err, ErrMalformedFeed)
	assert.Contains(t, err.Error(), "no document name")
}

func TestParseReviewEmail_NoBlock(t *testing.T) {
	msg := "From: a@example.org\r\nSubject: hi\r\n\r\nno block here\r\n"
	_, err := ParseReviewEmail([]byte(msg))
	require.ErrorIs(t, err, ErrMalformedFeed)
}

func TestParseReviewEmail_MissingEndMarker(t *testing.T) {
	msg := "From: a@example.org\r\nSubject: hi\r\n\r\n(BEGIN IANA COMMENTS: draft-a-00.txt)\r\nbody\r\n"
	_, err := ParseReviewEmail([]byte(msg))
	require.ErrorIs(t, err, ErrMalformedFeed)
}

func TestParseReviewEmail_NotAnEmail(t *testing.T) {
	_, err := ParseReviewEmail([]byte("complete nonsense"))
	require.ErrorIs(t, err, ErrMalformedFeed)
}
