package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Export"

func writeXLSX(t *Table) ([]byte, error) {
	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheetName); index == -1 {
		if _, err := f.NewSheet(sheetName); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(activeIndex)
	if defaultIndex, _ := f.GetSheetIndex("Sheet1"); defaultIndex != -1 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, err
		}
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheetName, cell, v)
	}

	for i, h := range t.Header {
		write(i+1, 1, h)
	}
	for rowIdx, row := range t.Rows {
		for colIdx, v := range row {
			write(colIdx+1, rowIdx+2, v)
		}
	}

	// Filename column is usually the widest.
	_ = f.SetColWidth(sheetName, "A", "A", 40)
	if len(t.Header) > 1 {
		last, _ := excelize.ColumnNumberToName(len(t.Header))
		_ = f.SetColWidth(sheetName, "B", last, 20)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
