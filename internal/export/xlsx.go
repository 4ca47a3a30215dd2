package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSX writes the sheet rows under a bold header, plus a Summary sheet when
// the sheet carries summary lines.
func XLSX(sheet Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	name := sheetName(sheet.Title)
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRow(f, name, 1, sheet.Headers); err != nil {
		return nil, err
	}
	for i, row := range sheet.Rows {
		if err := writeRow(f, name, i+2, row); err != nil {
			return nil, err
		}
	}

	if len(sheet.Headers) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return nil, fmt.Errorf("header style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(sheet.Headers), 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(name, "A1", last, bold); err != nil {
			return nil, fmt.Errorf("apply header style: %w", err)
		}
		lastCol, _, _ := excelize.SplitCellName(last)
		if err := f.SetColWidth(name, "A", lastCol, 18); err != nil {
			return nil, fmt.Errorf("column width: %w", err)
		}
	}

	if len(sheet.Summary) > 0 {
		if _, err := f.NewSheet("Summary"); err != nil {
			return nil, fmt.Errorf("summary sheet: %w", err)
		}
		for i, line := range sheet.Summary {
			if err := writeRow(f, "Summary", i+1, []string{line}); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

// sheetName fits a title into excel's 31 character sheet name limit.
func sheetName(title string) string {
	if title == "" {
		return "Export"
	}
	if r := []rune(title); len(r) > 31 {
		return string(r[:31])
	}
	return title
}
