// Package report writes dataset statistics into spreadsheet workbooks.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Tags"

// TagRow is one line of the tag summary sheet
type TagRow struct {
	Name       string
	Count      int64
	Background string
	Foreground string
}

// WriteTagSummary saves rows as an xlsx workbook at path. Each name cell is
// filled with the tag's own colors.
func WriteTagSummary(path string, rows []TagRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []any{"Tag", "Images", "Background", "Foreground"}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	styles := make(map[string]int)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		values := []any{row.Name, row.Count, row.Background, row.Foreground}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}

		key := row.Background + "|" + row.Foreground
		style, ok := styles[key]
		if !ok {
			style, err = f.NewStyle(&excelize.Style{
				Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{row.Background}},
				Font: &excelize.Font{Color: row.Foreground},
			})
			if err != nil {
				return fmt.Errorf("failed to create style for tag '%s': %w", row.Name, err)
			}
			styles[key] = style
		}
		if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}
