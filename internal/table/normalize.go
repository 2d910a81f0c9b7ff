// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package table

import (
	"fmt"
	"strings"
)

// Raw is a grid of cells as returned by a table extraction backend,
// tagged with the page it came from
type Raw struct {
	Page       int        `json:"page"`
	Index      int        `json:"index"`
	Rows       [][]string `json:"rows"`
	Confidence float64    `json:"confidence,omitempty"` // 0-100, zero when the backend does not score
	Whitespace float64    `json:"whitespace,omitempty"` // percentage of empty cells
}

// Table is a grid ready for display: unique non-empty column names plus data rows
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Empty reports whether the table has no columns and no rows
func (t Table) Empty() bool {
	return len(t.Columns) == 0 && len(t.Rows) == 0
}

// Normalize turns a raw grid into a Table. The first row is the header.
// Missing header cells become Column_{j+1} and repeated names get a numeric
// suffix in order of appearance. It never fails.
func Normalize(grid [][]string) Table {
	if len(grid) == 0 {
		return Table{}
	}

	header := grid[0]
	body := grid[1:]

	width := len(header)
	if headerBlank(header) {
		width = 1
		if len(body) > 0 && len(body[0]) > 0 {
			width = len(body[0])
		}
	}
	// data rows wider than the header still get a column each
	for _, row := range body {
		if len(row) > width {
			width = len(row)
		}
	}

	names := make([]string, width)
	for j := 0; j < width; j++ {
		var cell string
		if j < len(header) {
			cell = header[j]
		}
		if cell == "" {
			cell = fmt.Sprintf("Column_%d", j+1)
		}
		names[j] = cell
	}

	rows := make([][]string, 0, len(body))
	for _, row := range body {
		out := make([]string, width)
		copy(out, row)
		rows = append(rows, out)
	}

	return Table{Columns: Dedupe(names), Rows: rows}
}

// Dedupe suffixes repeated names with _1, _2, ... so that every name is unique.
// A suffixed name that is already taken is skipped.
func Dedupe(names []string) []string {
	seen := make(map[string]int, len(names))
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}

	out := make([]string, 0, len(names))
	used := make(map[string]bool, len(names))
	for _, name := range names {
		if !used[name] {
			used[name] = true
			out = append(out, name)
			continue
		}
		n := seen[name]
		var candidate string
		for {
			n++
			candidate = fmt.Sprintf("%s_%d", name, n)
			if !used[candidate] && !taken[candidate] {
				break
			}
		}
		seen[name] = n
		used[candidate] = true
		out = append(out, candidate)
	}
	return out
}

func headerBlank(header []string) bool {
	for _, cell := range header {
		if cell != "" {
			return false
		}
	}
	return true
}

// WhitespacePercent returns the share of empty cells in a grid, 0-100
func WhitespacePercent(grid [][]string) float64 {
	total, empty := 0, 0
	for _, row := range grid {
		for _, cell := range row {
			total++
			if strings.TrimSpace(cell) == "" {
				empty++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(empty) / float64(total) * 100
}
