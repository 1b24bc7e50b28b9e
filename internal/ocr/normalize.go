package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reColumnGap  = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reOInNumber  = regexp.MustCompile(`(\d)[Oo](\d)`)
	reBoxNoise   = regexp.MustCompile(`(?m)^\s*[_\-=|]{3,}\s*$`)
)

// NormalizeLayout cleans extracted text while keeping column structure:
// any run of two or more spaces (or tabs) becomes exactly two spaces, which
// downstream stages treat as a column gap. Page breaks (\f) are kept.
func NormalizeLayout(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, "  ")
	s = reColumnGap.ReplaceAllString(s, "  ")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	// "1O.50" -> "10.50"; applied twice for overlapping matches
	s = reOInNumber.ReplaceAllString(s, "${1}0${2}")
	s = reOInNumber.ReplaceAllString(s, "${1}0${2}")
	return strings.Trim(s, "\n ")
}
