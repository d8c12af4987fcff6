package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProtocolPage(t *testing.T) {
	names := ParseProtocolPage(`<html><a href="/go/rfc1234/">RFC 1234</a></html>`)
	assert.Equal(t, []string{"rfc1234"}, names)
}

func TestParseProtocolPage_DedupAndMixedSeries(t *testing.T) {
	html := `
		<a href="/go/rfc1234/">RFC 1234</a>
		<a href="https://example.org/go/bcp78/">BCP 78</a>
		<a href="/go/RFC1234/">RFC 1234 again</a>
		<a href="/go/std68">STD 68</a>
		<a href="/other/rfc999/">not a registry link</a>
	`
	names := ParseProtocolPage(html)
	assert.Equal(t, []string{"rfc1234", "bcp78", "std68"}, names)
}

func TestParseProtocolPage_Empty(t *testing.T) {
	assert.Empty(t, ParseProtocolPage("<html></html>"))
}
