package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexSample = `<?xml version="1.0" encoding="UTF-8"?>
<rfc-index xmlns="http://www.rfc-editor.org/rfc-index">
    <bcp-entry>
        <doc-id>BCP0001</doc-id>
        <is-also>
            <doc-id>RFC1234</doc-id>
            <doc-id>RFC2345</doc-id>
        </is-also>
    </bcp-entry>
    <fyi-entry>
        <doc-id>FYI0001</doc-id>
        <is-also>
            <doc-id>RFC1234</doc-id>
        </is-also>
    </fyi-entry>
    <std-entry>
        <doc-id>STD0001</doc-id>
        <title>Test</title>
        <is-also>
            <doc-id>RFC1234</doc-id>
        </is-also>
    </std-entry>
    <rfc-entry>
        <doc-id>RFC1234</doc-id>
        <title>A Testing RFC</title>
        <author>
            <name>A. Irector</name>
        </author>
        <date>
            <month>August</month>
            <year>2010</year>
        </date>
        <format>
            <file-format>ASCII</file-format>
        </format>
        <page-count>42</page-count>
        <keywords>
            <kw>test</kw>
        </keywords>
        <abstract><p>This is some interesting text.</p></abstract>
        <draft>draft-ietf-example-07</draft>
        <updates>
            <doc-id>RFC123</doc-id>
        </updates>
        <is-also>
            <doc-id>BCP0001</doc-id>
        </is-also>
        <current-status>PROPOSED STANDARD</current-status>
        <publication-status>PROPOSED STANDARD</publication-status>
        <stream>IETF</stream>
        <area>gen</area>
        <wg_acronym>example</wg_acronym>
        <errata-url>http://www.rfc-editor.org/errata_search.php?rfc=1234</errata-url>
    </rfc-entry>
</rfc-index>`

func TestParseIndex(t *testing.T) {
	entries, err := ParseIndex(strings.NewReader(indexSample))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, 1234, e.Number)
	assert.Equal(t, "A Testing RFC", e.Title)
	assert.Equal(t, []string{"A. Irector"}, e.Authors)
	assert.Equal(t, 2010, e.Published.Year())
	assert.Equal(t, time.August, e.Published.Month())
	assert.Equal(t, "Proposed Standard", e.Status)
	assert.Equal(t, []string{"RFC123"}, e.Updates)
	assert.ElementsMatch(t, []string{"bcp1", "fyi1", "std1"}, e.Also)
	assert.Equal(t, "draft-ietf-example", e.Draft)
	assert.Equal(t, "07", e.DraftRev)
	assert.Equal(t, "example", e.Group)
	assert.Equal(t, "IETF", e.Stream)
	assert.Equal(t, 42, e.Pages)
	assert.Equal(t, "This is some interesting text.", e.Abstract)
	assert.NotEmpty(t, e.ErrataURL)
}

func TestParseIndex_Golden(t *testing.T) {
	entries, err := ParseIndex(strings.NewReader(indexSample))
	require.NoError(t, err)

	g := goldie.New(t)
	g.AssertJson(t, "index", entries)
}

func TestParseIndex_IsAlsoBothDirections(t *testing.T) {
	// The RFC entry points at no series; the series entries point at it.
	xml := `<rfc-index>
		<bcp-entry><doc-id>BCP0078</doc-id><is-also><doc-id>RFC5378</doc-id></is-also></bcp-entry>
		<rfc-entry><doc-id>RFC5378</doc-id><title>Rights</title></rfc-entry>
	</rfc-index>`

	entries, err := ParseIndex(strings.NewReader(xml))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"bcp78"}, entries[0].Also)
}

func TestParseIndex_MalformedXML(t *testing.T) {
	_, err := ParseIndex(strings.NewReader("<rfc-index><rfc-entry>"))
	require.ErrorIs(t, err, ErrMalformedFeed)
}

func TestParseIndex_BadPageCount(t *testing.T) {
	xml := `<rfc-index><rfc-entry><doc-id>RFC1</doc-id><page-count>many</page-count></rfc-entry></rfc-index>`
	_, err := ParseIndex(strings.NewReader(xml))
	require.ErrorIs(t, err, ErrMalformedFeed)
}

func TestNormalizeDocID(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"BCP0001", "bcp1", true},
		{"FYI0001", "fyi1", true},
		{"STD0068", "std68", true},
		{"RFC1234", "rfc1234", true},
		{"BCP", "", false},
		{"0042", "", false},
	}

	for _, tt := range tests {
		got, ok := normalizeDocID(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
