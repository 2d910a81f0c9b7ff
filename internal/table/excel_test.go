// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package table

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	sheets := []Sheet{
		{Name: "Page 1 / Table 1", Table: Normalize([][]string{{"Name", "", "Name"}, {"Alice", "30", "Engineer"}})},
		{Name: "", Table: Normalize([][]string{{"A"}, {"1"}, {"2"}})},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sheets); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("Failed to reopen workbook: %v", err)
	}
	defer f.Close()

	list := f.GetSheetList()
	if len(list) != 2 {
		t.Fatalf("Expected 2 sheets, got %d (%v)", len(list), list)
	}
	if strings.Contains(list[0], "/") {
		t.Errorf("Sheet name kept an illegal character: %q", list[0])
	}
	if list[1] != "Table 2" {
		t.Errorf("Expected default name 'Table 2', got %q", list[1])
	}

	rows, err := f.GetRows(list[0])
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	want := [][]string{{"Name", "Column_2", "Name_1"}, {"Alice", "30", "Engineer"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Rows = %q, want %q", rows, want)
	}
}

func TestWriteXLSX_NoTables(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, nil); err == nil {
		t.Error("Expected error for empty export")
	}
}

func TestSheetName_Truncates(t *testing.T) {
	name := sheetName(strings.Repeat("x", 60), 0)
	if n := len([]rune(name)); n > 31 {
		t.Errorf("Sheet name has %d runes, want <= 31", n)
	}
}
