package parsing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Überbewertet":   "uberbewertet",
		"ÄÖÜ äöü":        "aou aou",
		"Lieferkette":    "lieferkette",
		"Café Crème":     "cafe creme",
		"ﬁnance":    "finance",
		"P/E über 50":    "p/e uber 50",
		"":               "",
		"Straße bleibt":  "straße bleibt",
	}
	for in, want := range cases {
		assert.Equal(t, want, Fold(in), "input %q", in)
	}
}

func TestFoldIndexedOffsets(t *testing.T) {
	folded, offsets := foldIndexed("Äbﬁ")
	require.Equal(t, "abfi", folded)
	// Ä is two bytes, the ligature three and expands to two folded runes.
	assert.Equal(t, []int{0, 2, 3, 3, 6}, offsets)
}

func TestWindowMapsBackToSource(t *testing.T) {
	src := strings.Repeat("ä", 100) + " Zins " + strings.Repeat("ü", 100)
	folded, offsets := foldIndexed(src)
	at := strings.Index(folded, "zins")
	require.Equal(t, 101, at)

	got := window(src, offsets, 101, 105, snippetPad)
	assert.Equal(t, strings.Repeat("ä", 39)+" Zins "+strings.Repeat("ü", 39), got)
}
