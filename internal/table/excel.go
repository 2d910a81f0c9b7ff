// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is a normalized table together with the label used for its worksheet
type Sheet struct {
	Name  string
	Table Table
}

// WriteXLSX writes each table to its own worksheet, header in the first row
func WriteXLSX(w io.Writer, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no tables to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		name := sheetName(s.Name, i)
		if i == 0 {
			// Rename the default sheet instead of leaving an empty one behind
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}

		if err := writeRow(f, name, 1, s.Table.Columns); err != nil {
			return err
		}
		for r, row := range s.Table.Rows {
			if err := writeRow(f, name, r+2, row); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", rowNum, err)
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("failed to write row %d on %s: %w", rowNum, sheet, err)
	}
	return nil
}

// sheetName keeps names within Excel's 31 character limit; the index prefix keeps them unique
func sheetName(label string, index int) string {
	name := fmt.Sprintf("%d %s", index+1, label)
	if label == "" {
		name = fmt.Sprintf("Table %d", index+1)
	}
	name = sheetNameReplacer.Replace(name)
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}

var sheetNameReplacer = strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")")
