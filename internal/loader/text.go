package loader

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns data as UTF-8. Input that is not valid UTF-8 is assumed
// to be Windows-1252, the usual encoding of spreadsheet exports on desktops.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	fixed, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err == nil && utf8.Valid(fixed) {
		return string(fixed)
	}
	return strings.ToValidUTF8(string(data), "�")
}

// loadText emits one text block per non-empty line; form feeds start a new page.
func loadText(s string, confidence float64) []entity.Block {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	var out []entity.Block
	for p, page := range strings.Split(s, "\f") {
		for i, line := range strings.Split(page, "\n") {
			line = strings.TrimRight(line, " \t")
			if strings.TrimSpace(line) == "" {
				continue
			}
			out = append(out, entity.TextBlock(p+1, i+1, line, confidence))
		}
	}
	return out
}

func splitPages(text string, confidence float64) []entity.Block {
	return loadText(text, confidence)
}
