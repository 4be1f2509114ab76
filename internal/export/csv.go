package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// utf8BOM keeps non-ASCII column values readable when the CSV is opened
// in spreadsheet tools.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func writeCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return nil, fmt.Errorf("csv write header: %w", err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("csv write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	return buf.Bytes(), nil
}
