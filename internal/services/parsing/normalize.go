package parsing

import (
	"regexp"
	"strings"
)

var (
	htmlImgRe     = regexp.MustCompile(`(?i)<img[^>]*>`)
	imageMDRe     = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	footnoteDefRe = regexp.MustCompile(`(?m)^\[\^[^\]]+\]:.*$`)
	footnoteRefRe = regexp.MustCompile(`\[\^[^\]]+\]`)
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	hSpaceRe      = regexp.MustCompile(`[\t ]+`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
)

// Clean strips markdown and HTML noise from a raw report and normalizes whitespace.
// The passes are repeated until the text stops changing, so Clean(Clean(x)) == Clean(x)
// even when removing one construct exposes another (e.g. "![a[^1]](u)").
func Clean(raw string) string {
	text := raw
	for {
		next := cleanPass(text)
		if next == text {
			return next
		}
		text = next
	}
}

func cleanPass(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = htmlImgRe.ReplaceAllString(text, "")
	text = imageMDRe.ReplaceAllString(text, "")
	text = footnoteDefRe.ReplaceAllString(text, "")
	text = footnoteRefRe.ReplaceAllString(text, "")
	text = htmlTagRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\u2212", "-")
	text = hSpaceRe.ReplaceAllString(text, " ")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
