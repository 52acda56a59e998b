package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
)

// SheetName is the worksheet holding exported cases.
const SheetName = "Test Cases"

var columnWidths = []float64{15, 30, 15, 10, 50}

// encodeXLSX writes a single-sheet workbook with the shared column layout.
// Steps are newline separated and the cells wrap.
func encodeXLSX(cases []schemas.TestCase) (data []byte, err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set width of column %s: %w", col, err)
		}
	}

	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return nil, fmt.Errorf("failed to create cell style: %w", err)
	}
	if err := f.SetColStyle(SheetName, "A:E", wrap); err != nil {
		return nil, fmt.Errorf("failed to apply cell style: %w", err)
	}

	if err := setRow(f, 1, columns); err != nil {
		return nil, err
	}
	for i, tc := range cases {
		if err := setRow(f, i+2, row(tc, "\n")); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}
