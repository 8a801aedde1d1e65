package sheet

import (
	"strings"
	"unicode"
)

// sectionKeywords are the labels that open an instrumental block.
var sectionKeywords = []string{
	"Intro",
	"Ponte",
	"Solo",
	"Bridge",
	"Instrumental",
	"Interlude",
}

// SectionKeyword reports whether line is a section header: one keyword,
// any letter case, an optional trailing colon and trailing whitespace.
// It returns the canonical keyword and the label as written (without colon).
func SectionKeyword(line string) (keyword, label string, ok bool) {
	s := strings.TrimRightFunc(line, unicode.IsSpace)
	s = strings.TrimSuffix(s, ":")
	for _, kw := range sectionKeywords {
		if strings.EqualFold(s, kw) {
			return kw, s, true
		}
	}
	return "", "", false
}

// IsSectionHeader reports whether line is a section header.
func IsSectionHeader(line string) bool {
	_, _, ok := SectionKeyword(line)
	return ok
}
