package parsing

import (
	"regexp"
	"strings"
)

// RootHeading names the section holding text before the first heading.
const RootHeading = "root"

var sectionHeaderRe = regexp.MustCompile(`^#{1,6}\s+(.+)$`)

type Section struct {
	Heading string
	Body    string
}

// SplitSections splits cleaned text into heading-delimited sections in document order.
func SplitSections(text string) []Section {
	var (
		sections []Section
		heading  = RootHeading
		buffer   []string
	)
	for _, line := range splitLines(text) {
		if m := sectionHeaderRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			if len(buffer) > 0 {
				sections = append(sections, Section{Heading: heading, Body: strings.TrimSpace(strings.Join(buffer, "\n"))})
			}
			heading = strings.TrimSpace(m[1])
			buffer = buffer[:0]
			continue
		}
		buffer = append(buffer, line)
	}
	if len(buffer) > 0 {
		sections = append(sections, Section{Heading: heading, Body: strings.TrimSpace(strings.Join(buffer, "\n"))})
	}
	return sections
}

// FindSectionText returns "heading\nbody" of the first section whose heading, lower-cased
// or folded, contains one of the keywords. Keywords are expected in folded form.
func FindSectionText(sections []Section, keywords []string) string {
	for _, s := range sections {
		lower := strings.ToLower(s.Heading)
		folded := Fold(s.Heading)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) || strings.Contains(folded, kw) {
				return strings.TrimSpace(s.Heading + "\n" + s.Body)
			}
		}
	}
	return ""
}

// splitLines splits on "\n" without yielding a trailing empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
