package statemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_AllDimensionsRegistered(t *testing.T) {
	for _, slug := range All() {
		d, ok := Get(slug)
		require.True(t, ok, "dimension %q not registered", slug)
		assert.Equal(t, slug, d.Slug)
		assert.NotEmpty(t, d.States)
	}
}

func TestDimension_StateLabel(t *testing.T) {
	d, ok := Get(IANAAction)
	require.True(t, ok)

	assert.Equal(t, "Waiting on RFC Editor", d.StateLabel("waitrfc"))
	// Unknown slugs fall back to the slug itself.
	assert.Equal(t, "brand-new", d.StateLabel("brand-new"))
}

func TestFeedTypeDimension(t *testing.T) {
	d, ok := FeedTypeDimension("iana_review")
	require.True(t, ok)
	assert.Equal(t, IANAReview, d)

	d, ok = FeedTypeDimension("iana_state")
	require.True(t, ok)
	assert.Equal(t, IANAAction, d)

	_, ok = FeedTypeDimension("rfc_editor_state")
	assert.False(t, ok)
}

func TestFeedLabelSlug(t *testing.T) {
	tests := []struct {
		dimension string
		label     string
		want      string
		ok        bool
	}{
		{IANAReview, "IANA Not OK", "not-ok", true},
		{IANAReview, "IANA OK - Actions Needed", "ok-act", true},
		// Interim informational status is deliberately unmapped.
		{IANAReview, "IANA - Review Needed", "", false},
		{IANAAction, "In Progress", "inprog", true},
		{IANAAction, "Waiting on RFC-Editor", "waitrfc", true},
		{IANAAction, "Waiting on RFC Editor", "waitrfc", true},
		{IANAAction, "Totally Unknown", "", false},
		{Draft, "Active", "", false},
	}

	for _, tt := range tests {
		got, ok := FeedLabelSlug(tt.dimension, tt.label)
		assert.Equal(t, tt.ok, ok, "%s/%s", tt.dimension, tt.label)
		assert.Equal(t, tt.want, got, "%s/%s", tt.dimension, tt.label)
	}
}

func TestQueueBaseSlug(t *testing.T) {
	got, ok := QueueBaseSlug("EDIT")
	require.True(t, ok)
	assert.Equal(t, "edit", got)

	got, ok = QueueBaseSlug("AUTH48-DONE")
	require.True(t, ok)
	assert.Equal(t, "auth48-done", got)

	_, ok = QueueBaseSlug("TI")
	assert.False(t, ok)
}

func TestPreQueueIESG(t *testing.T) {
	assert.True(t, PreQueueIESG(""))
	assert.True(t, PreQueueIESG("ann"))
	assert.False(t, PreQueueIESG("rfcqueue"))
	assert.False(t, PreQueueIESG("pub"))
}

func TestStreamDimension(t *testing.T) {
	d, ok := StreamDimension("ise")
	require.True(t, ok)
	assert.Equal(t, StreamISE, d)

	_, ok = StreamDimension("ietf")
	assert.False(t, ok)
}
