package infra

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of the workbooks WriteWorkbook produces.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet is one tabular worksheet of an export workbook.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
	Widths  []float64
}

// WriteWorkbook renders sheets into a single XLSX workbook written to w.
func WriteWorkbook(w io.Writer, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("xlsx: no sheets")
	}
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#7F7F7F", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("xlsx: header style: %w", err)
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.Name); err != nil {
				return fmt.Errorf("xlsx: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			return fmt.Errorf("xlsx: new sheet %q: %w", sh.Name, err)
		}

		for c, h := range sh.Headers {
			cell, _ := excelize.CoordinatesToCellName(c+1, 1)
			f.SetCellValue(sh.Name, cell, h)
			f.SetCellStyle(sh.Name, cell, cell, headerStyle)
		}
		for r, values := range sh.Rows {
			for c, v := range values {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
				f.SetCellValue(sh.Name, cell, v)
			}
		}
		for c, width := range sh.Widths {
			col, _ := excelize.ColumnNumberToName(c + 1)
			f.SetColWidth(sh.Name, col, col, width)
		}
		if len(sh.Headers) > 0 {
			f.SetPanes(sh.Name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
		}
	}

	f.SetActiveSheet(0)
	_, err = f.WriteTo(w)
	return err
}
