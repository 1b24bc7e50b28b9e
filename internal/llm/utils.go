package llm

import "unicode/utf8"

// MaxPromptChars bounds the document text sent to the model.
const MaxPromptChars = 12000

// ClipText cuts s to at most n bytes on a rune boundary.
func ClipText(s string, n int) (string, bool) {
	if len(s) <= n {
		return s, false
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}
