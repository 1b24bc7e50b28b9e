package extract

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

// UnknownVendor is the vendor name used when nothing identifies the sender.
const UnknownVendor = entity.UnknownVendor

const (
	vendorPatternConfidence = 0.9
	vendorSuffixConfidence  = 0.7
	vendorHintConfidence    = 0.9
	vendorFileConfidence    = 0.4
)

var (
	reVendorLabel = regexp.MustCompile(`(?i)^\s*(?:vendor|supplier|seller|company|quoted\s+by|from)\s*(?:name)?\s*[:\-]\s*(.+?)\s*$`)
	reQuoteFrom   = regexp.MustCompile(`(?i)\bquot(?:e|ation)\s+(?:from|by)\s*[:\-]?\s*(.+?)\s*$`)
	reCompany     = regexp.MustCompile(`(?i)\b(?:inc|incorporated|llc|l\.l\.c|ltd|limited|corp|corporation|co|company|gmbh|plc|pty|llp)\.?\s*$`)
	reFileNoise   = regexp.MustCompile(`(?i)\b(?:quote|quotes|quotation|rfq|vendor|price|prices|pricing|final|draft|copy|v\d+|\d+)\b`)
	reSeparators  = regexp.MustCompile(`[\s_\-.()\[\]]+`)
)

var titleCaser = cases.Title(language.English)

type vendorResult struct {
	name       string
	source     entity.FieldSource
	confidence float64
}

// detectVendor looks for the vendor in this order: labeled lines, company-suffix
// lines near the top or bottom, the caller hint, the filename, then gives up.
func detectVendor(lines []string, hint, filename string) vendorResult {
	for _, ln := range lines {
		if m := reVendorLabel.FindStringSubmatch(ln); m != nil && usableName(m[1]) {
			return vendorResult{name: cleanVendor(m[1]), source: entity.SourcePattern, confidence: vendorPatternConfidence}
		}
		if m := reQuoteFrom.FindStringSubmatch(ln); m != nil && usableName(m[1]) {
			return vendorResult{name: cleanVendor(m[1]), source: entity.SourcePattern, confidence: vendorPatternConfidence}
		}
	}
	for _, ln := range edgeLines(lines, 5) {
		if reCompany.MatchString(ln) && usableName(ln) {
			return vendorResult{name: cleanVendor(ln), source: entity.SourcePattern, confidence: vendorSuffixConfidence}
		}
	}
	if h := strings.TrimSpace(hint); h != "" {
		return vendorResult{name: h, source: entity.SourceHint, confidence: vendorHintConfidence}
	}
	if n := vendorFromFilename(filename); n != "" {
		return vendorResult{name: n, source: entity.SourceHint, confidence: vendorFileConfidence}
	}
	return vendorResult{name: UnknownVendor}
}

func edgeLines(lines []string, n int) []string {
	if len(lines) <= 2*n {
		return lines
	}
	out := make([]string, 0, 2*n)
	out = append(out, lines[:n]...)
	return append(out, lines[len(lines)-n:]...)
}

// usableName rejects candidates that are mostly digits, addresses, or too long to be a name.
func usableName(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 || len(s) > 80 || strings.ContainsAny(s, "@/") {
		return false
	}
	letters, digits := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r != ' ':
			letters++
		}
	}
	return letters > digits
}

func cleanVendor(s string) string {
	s = strings.Trim(s, " \t:-|,")
	return strings.Join(strings.Fields(s), " ")
}

// vendorFromFilename turns "acme_corp-quote-2024.xlsx" into "Acme Corp".
func vendorFromFilename(name string) string {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." {
		return ""
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = reSeparators.ReplaceAllString(name, " ")
	name = reFileNoise.ReplaceAllString(name, " ")
	name = strings.Join(strings.Fields(name), " ")
	if !usableName(name) {
		return ""
	}
	return titleCaser.String(name)
}
