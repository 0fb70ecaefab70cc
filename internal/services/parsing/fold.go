package parsing

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Fold returns the case- and diacritic-insensitive form of s ("Überbewertet" -> "uberbewertet").
func Fold(s string) string {
	folded, _ := foldIndexed(s)
	return folded
}

// foldIndexed folds s rune by rune. offsets[i] is the byte offset in s of the source rune
// that produced folded rune i; offsets has one extra trailing entry equal to len(s).
// A source rune may expand to several folded runes (ligatures) or to none.
func foldIndexed(s string) (string, []int) {
	var b strings.Builder
	b.Grow(len(s))
	offsets := make([]int, 0, len(s)+1)

	for i, r := range s {
		if r < utf8.RuneSelf {
			if 'A' <= r && r <= 'Z' {
				r += 'a' - 'A'
			}
			b.WriteByte(byte(r))
			offsets = append(offsets, i)
			continue
		}
		for _, d := range norm.NFKD.String(string(r)) {
			if unicode.Is(unicode.Mn, d) {
				continue
			}
			b.WriteRune(unicode.ToLower(d))
			offsets = append(offsets, i)
		}
	}
	offsets = append(offsets, len(s))
	return b.String(), offsets
}

// window cuts the source text around folded runes [start, end), widened by pad runes
// on each side and clamped to the text.
func window(src string, offsets []int, start, end, pad int) string {
	n := len(offsets) - 1
	lo := start - pad
	if lo < 0 {
		lo = 0
	}
	hi := end + pad
	if hi > n {
		hi = n
	}
	return src[offsets[lo]:offsets[hi]]
}
