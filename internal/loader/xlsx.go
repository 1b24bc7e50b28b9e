package loader

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

// loadXLSX emits every row of every sheet; the sheet's 1-based index is the page.
// Merged ranges are forward-filled so each covered cell carries the value.
func loadXLSX(data []byte) ([]entity.Block, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []entity.Block
	for idx, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		merges, err := f.GetMergeCells(sheet)
		if err != nil {
			return nil, fmt.Errorf("read merged cells %q: %w", sheet, err)
		}
		for _, mc := range merges {
			rows = fillMerged(rows, mc.GetStartAxis(), mc.GetEndAxis(), mc.GetCellValue())
		}
		for r, vals := range rows {
			out = append(out, entity.TableRow(idx+1, r+1, vals, 1))
		}
	}
	return out, nil
}

func fillMerged(rows [][]string, startAxis, endAxis, value string) [][]string {
	c1, r1, err := excelize.CellNameToCoordinates(startAxis)
	if err != nil {
		return rows
	}
	c2, r2, err := excelize.CellNameToCoordinates(endAxis)
	if err != nil {
		return rows
	}
	for len(rows) < r2 {
		rows = append(rows, nil)
	}
	for r := r1; r <= r2; r++ {
		for len(rows[r-1]) < c2 {
			rows[r-1] = append(rows[r-1], "")
		}
		for c := c1; c <= c2; c++ {
			rows[r-1][c-1] = value
		}
	}
	return rows
}
