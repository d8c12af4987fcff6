package feed

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const queueSample = `<rfc-editor-queue xmlns="http://www.rfc-editor.org/rfc-editor-queue">
<section name="IETF STREAM: WORKING GROUP STANDARDS TRACK">
<entry xml:id="draft-ietf-example">
<draft>draft-ietf-example-07.txt</draft>
<date-received>2010-09-08</date-received>
<state>EDIT*R*A(1G)</state>
<auth48-url>http://www.rfc-editor.org/auth48/rfc1234</auth48-url>
<normRef>
<ref-name>draft-ietf-test</ref-name>
<ref-state>IN-QUEUE</ref-state>
</normRef>
<authors>A. Author</authors>
<title>
An Example Protocol
</title>
<bytes>10000000</bytes>
<source>Example Working Group</source>
</entry>
<cluster xml:id="C238">
<entry xml:id="draft-ietf-clustered">
<draft>draft-ietf-clustered-02.txt</draft>
<date-received>2011-01-14</date-received>
<state>MISSREF(2G)</state>
<authors>B. Author</authors>
<title>A Clustered Protocol</title>
<bytes>54321</bytes>
<source>Example Working Group</source>
</entry>
</cluster>
</section>
<section name="INDEPENDENT SUBMISSIONS">
<entry xml:id="draft-curious-independent">
<draft>draft-curious-independent-00.txt</draft>
<date-received>2012-02-01</date-received>
<state>ISR-AUTH</state>
<authors>C. Curious</authors>
<title>An Independent Thing</title>
<bytes>1000</bytes>
<source>Independent</source>
</entry>
</section>
</rfc-editor-queue>`

func TestParseQueue(t *testing.T) {
	entries, warnings, err := ParseQueue(strings.NewReader(queueSample))
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, entries, 3)

	e := entries[0]
	assert.Equal(t, "draft-ietf-example", e.Name)
	assert.Equal(t, "07", e.Rev)
	assert.Equal(t, "EDIT", e.State)
	assert.False(t, e.StateUnknown)
	assert.ElementsMatch(t, []string{"iana", "ref"}, e.Tags)
	assert.Equal(t, 1, e.MissRefGeneration)
	assert.Equal(t, "ietf", e.Stream)
	assert.Equal(t, "http://www.rfc-editor.org/auth48/rfc1234", e.Auth48URL)
	assert.Equal(t, []QueueRef{{Name: "draft-ietf-test", State: "IN-QUEUE"}}, e.Refs)
	assert.Equal(t, "An Example Protocol", e.Title)
	assert.Equal(t, int64(10000000), e.Bytes)

	clustered := entries[1]
	assert.Equal(t, "draft-ietf-clustered", clustered.Name)
	assert.Equal(t, "C238", clustered.Cluster)
	assert.Equal(t, "MISSREF", clustered.State)
	assert.Equal(t, 2, clustered.MissRefGeneration)

	independent := entries[2]
	assert.Equal(t, "", independent.Stream) // section name has no STREAM marker
	assert.Equal(t, "ISR-AUTH", independent.State)
}

func TestParseQueue_Golden(t *testing.T) {
	entries, warnings, err := ParseQueue(strings.NewReader(queueSample))
	require.NoError(t, err)
	require.Empty(t, warnings)

	g := goldie.New(t)
	g.AssertJson(t, "queue", entries)
}

func TestParseQueue_UnknownStateTolerated(t *testing.T) {
	xml := `<rfc-editor-queue>
<section name="IETF STREAM">
<entry xml:id="draft-a"><draft>draft-a-00.txt</draft><state>TI</state></entry>
</section>
</rfc-editor-queue>`

	// TI is tolerated by default: entry returned, no warning.
	entries, warnings, err := ParseQueue(strings.NewReader(xml))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, entries, 1)
	assert.Equal(t, "TI", entries[0].State)
	assert.True(t, entries[0].StateUnknown)

	// With an empty tolerance list the same entry warns, deterministically.
	entries, warnings, err = ParseQueue(strings.NewReader(xml), WithToleratedStates())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `unrecognized state "TI"`)
	require.Len(t, entries, 1)
}

func TestParseQueue_MalformedXML(t *testing.T) {
	_, _, err := ParseQueue(strings.NewReader("<rfc-editor-queue><section"))
	require.ErrorIs(t, err, ErrMalformedFeed)
}

func TestParseQueue_BadTokenIsFatal(t *testing.T) {
	xml := `<rfc-editor-queue>
<section name="IETF STREAM">
<entry xml:id="draft-a"><draft>draft-a-00.txt</draft><state>EDIT*X</state></entry>
</section>
</rfc-editor-queue>`

	_, _, err := ParseQueue(strings.NewReader(xml))
	require.ErrorIs(t, err, ErrMalformedFeed)
}

func TestSplitDraftFilename(t *testing.T) {
	tests := []struct {
		in   string
		name string
		rev  string
	}{
		{"draft-ietf-example-07.txt", "draft-ietf-example", "07"},
		{"draft-ietf-example-07", "draft-ietf-example", "07"},
		{"draft-ietf-example", "draft-ietf-example", ""},
		{"draft-ietf-example-100.txt", "draft-ietf-example-100", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		name, rev := SplitDraftFilename(tt.in)
		assert.Equal(t, tt.name, name, tt.in)
		assert.Equal(t, tt.rev, rev, tt.in)
	}
}
