package loader

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

// loadDelimited reads CSV/TSV. With comma == 0 the delimiter is sniffed from the first line.
func loadDelimited(data []byte, comma rune) ([]entity.Block, error) {
	text := decodeText(data)
	if comma == 0 {
		comma = sniffDelimiter(text)
	}
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var out []entity.Block
	row := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if len(out) == 0 {
				return nil, err
			}
			// keep what parsed; a broken trailer should not lose the table
			break
		}
		row++
		out = append(out, entity.TableRow(1, row, rec, 1))
	}
	if len(out) == 0 {
		return nil, errors.New("no rows")
	}
	return out, nil
}

func sniffDelimiter(text string) rune {
	first := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		first = text[:i]
	}
	best, bestN := ',', strings.Count(first, ",")
	for _, c := range []rune{';', '\t', '|'} {
		if n := strings.Count(first, string(c)); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}
