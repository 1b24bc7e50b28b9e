package normalize

import (
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"github.com/kljensen/snowball"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Similarity scores two strings in [0,1]. It must be symmetric.
type Similarity func(a, b string) float64

// Default thresholds.
const (
	// DefaultVendorThreshold is the normalized edit-distance similarity at
	// which two vendor names are the same vendor.
	DefaultVendorThreshold = 0.85
	// DefaultItemThreshold is the description token overlap at which two
	// line items are the same good.
	DefaultItemThreshold = 0.6
	// DefaultAmbiguityEpsilon is how close a second partner must score to the
	// best one for the match to be reported as ambiguous.
	DefaultAmbiguityEpsilon = 0.05
)

var folder = cases.Fold()

// fold applies NFKC, case folding and whitespace collapsing.
func fold(s string) string {
	s = folder.String(norm.NFKC.String(s))
	return strings.Join(strings.Fields(s), " ")
}

var legalSuffixes = map[string]struct{}{
	"inc": {}, "incorporated": {}, "llc": {}, "ltd": {}, "limited": {},
	"corp": {}, "corporation": {}, "co": {}, "company": {}, "gmbh": {},
	"plc": {}, "lp": {}, "llp": {}, "sa": {}, "ag": {}, "bv": {}, "pty": {},
}

// compactVendor drops punctuation, spacing and trailing legal suffixes so
// "TechSupply Solutions, Inc." and "Tech Supply Solutions" compare equal.
func compactVendor(name string) string {
	words := strings.FieldsFunc(fold(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '&'
	})
	for len(words) > 1 {
		if _, ok := legalSuffixes[words[len(words)-1]]; !ok {
			break
		}
		words = words[:len(words)-1]
	}
	return strings.Join(words, "")
}

// VendorSimilarity is the normalized Levenshtein similarity of the compacted names.
func VendorSimilarity(a, b string) float64 {
	ca, cb := compactVendor(a), compactVendor(b)
	if ca == "" || cb == "" {
		return 0
	}
	if ca == cb {
		return 1
	}
	return levenshtein.Similarity(ca, cb, nil)
}

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "of": {}, "for": {}, "with": {},
	"to": {}, "in": {}, "on": {}, "by": {}, "per": {}, "ea": {}, "each": {},
}

// tokens returns the stemmed, stop-word-free tokens of a description.
func tokens(s string) []string {
	words := strings.FieldsFunc(fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.'
	})
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".")
		if w == "" {
			continue
		}
		if _, ok := stopWords[w]; ok {
			continue
		}
		if stem, err := snowball.Stem(w, "english", true); err == nil && stem != "" {
			w = stem
		}
		out = append(out, w)
	}
	return out
}

// DescriptionSimilarity is the Jaccard overlap of stemmed description tokens.
func DescriptionSimilarity(a, b string) float64 {
	ta, tb := tokens(a), tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	set := make(map[string]uint8, len(ta)+len(tb))
	for _, t := range ta {
		set[t] |= 1
	}
	for _, t := range tb {
		set[t] |= 2
	}
	inter := 0
	for _, v := range set {
		if v == 3 {
			inter++
		}
	}
	return float64(inter) / float64(len(set))
}

// normalizeSKU uppercases a SKU and drops separators.
func normalizeSKU(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r):
			return unicode.ToUpper(r)
		case unicode.IsDigit(r):
			return r
		}
		return -1
	}, norm.NFKC.String(s))
}

// slug builds a lowercase, dash-separated key.
func slug(s string) string {
	words := strings.FieldsFunc(fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, "-")
}
