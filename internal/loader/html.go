package loader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

// loadHTML reads e-mailed / web quotes. Every <table> becomes a page of table
// rows (page numbers follow document order, starting at 2); headings,
// paragraphs and list items outside tables become text blocks on page 1.
func loadHTML(data []byte) ([]entity.Block, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var out []entity.Block
	line := 0
	doc.Find("title, h1, h2, h3, h4, h5, h6, p, li, address, footer, header > div").Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered("table").Length() > 0 {
			return
		}
		for _, ln := range strings.Split(s.Text(), "\n") {
			ln = strings.Join(strings.Fields(ln), " ")
			if ln == "" {
				continue
			}
			line++
			out = append(out, entity.TextBlock(1, line, ln, 1))
		}
	})

	doc.Find("table").Each(func(ti int, table *goquery.Selection) {
		row := 0
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			// nested tables are visited on their own
			if tr.ParentsFiltered("table").First().Get(0) != table.Get(0) {
				return
			}
			var vals []string
			tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
				vals = append(vals, strings.Join(strings.Fields(cell.Text()), " "))
			})
			row++
			out = append(out, entity.TableRow(ti+2, row, vals, 1))
		})
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("no text or tables found")
	}
	return out, nil
}
