package entity

import (
	"strings"

	"github.com/joseph-ayodele/quote-optimizer/constants"
)

// BlockKind discriminates the two shapes a loader can emit.
type BlockKind string

const (
	BlockText  BlockKind = "text"
	BlockTable BlockKind = "table"
)

// Cell is one column of a table row.
type Cell struct {
	Col  int    `json:"col"`
	Text string `json:"text"`
}

// Block is either a line of free text or a row of table cells, with its
// position in the source document. Confidence is 1 for natively parsed
// input and the OCR confidence otherwise.
type Block struct {
	Kind       BlockKind `json:"kind"`
	Page       int       `json:"page"`
	Row        int       `json:"row"`
	Text       string    `json:"text,omitempty"`
	Cells      []Cell    `json:"cells,omitempty"`
	Confidence float64   `json:"confidence"`
}

// TextBlock builds a free-text block.
func TextBlock(page, line int, text string, confidence float64) Block {
	return Block{Kind: BlockText, Page: page, Row: line, Text: text, Confidence: confidence}
}

// TableRow builds a table row block from raw cell values; columns are numbered from 0.
func TableRow(page, row int, values []string, confidence float64) Block {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = Cell{Col: i, Text: strings.TrimSpace(v)}
	}
	return Block{Kind: BlockTable, Page: page, Row: row, Cells: cells, Confidence: confidence}
}

// Values returns the cell texts of a table row, or the text of a text block as a single value.
func (b Block) Values() []string {
	if b.Kind == BlockText {
		return []string{b.Text}
	}
	out := make([]string, len(b.Cells))
	for i, c := range b.Cells {
		out[i] = c.Text
	}
	return out
}

// Empty reports whether the block carries no visible content.
func (b Block) Empty() bool {
	if b.Kind == BlockText {
		return strings.TrimSpace(b.Text) == ""
	}
	for _, c := range b.Cells {
		if strings.TrimSpace(c.Text) != "" {
			return false
		}
	}
	return true
}

// QuoteDocument is the loader's output for one input. It is not modified after loading.
type QuoteDocument struct {
	ID           string           `json:"id"`
	Format       constants.Format `json:"format"`
	VendorHint   string           `json:"vendor_hint,omitempty"`
	FilenameHint string           `json:"filename_hint,omitempty"`
	Blocks       []Block          `json:"blocks"`
	Method       string           `json:"method"`
	Confidence   float64          `json:"confidence"`
	Warnings     []string         `json:"warnings,omitempty"`
}

// Text joins the document's blocks into plain text, one block per line and
// table cells separated by " | ".
func (d QuoteDocument) Text() string {
	var b strings.Builder
	for i, blk := range d.Blocks {
		if i > 0 {
			b.WriteByte('\n')
		}
		if blk.Kind == BlockText {
			b.WriteString(blk.Text)
			continue
		}
		b.WriteString(strings.Join(blk.Values(), " | "))
	}
	return b.String()
}
