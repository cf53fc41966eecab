// Package export writes the grouped shopping list to an .xlsx workbook so a
// household member can take the list along without the app.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"grocify/internal/list"
)

// WriteXLSX writes one sheet with a row per item: section, name, quantity,
// unit and checked state, in the view's section order.
func WriteXLSX(view list.View, path string) error {
	f := excelize.NewFile()
	const sheet = "Sheet1"
	// StreamWriter keeps memory flat even for long lists
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := []interface{}{"section", "item", "quantity", "unit", "checked"}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	rowNum := 2
	for _, sec := range view.Sections {
		for _, item := range sec.Items {
			row := []interface{}{sec.Section, item.Name, item.Quantity, item.Unit, item.Checked}
			cellAddr, _ := excelize.CoordinatesToCellName(1, rowNum)
			if err := sw.SetRow(cellAddr, row); err != nil {
				return fmt.Errorf("failed to write row %d: %w", rowNum, err)
			}
			rowNum++
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
