// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package extract

import (
	"fmt"
	"strings"
)

// PageMarker is the separator written before each page when markers are requested
func PageMarker(page int) string {
	return fmt.Sprintf("\n--- Page %d ---\n", page)
}

// JoinPages concatenates per-page text. pages[0] is page 1.
func JoinPages(pages []string, markers bool) string {
	var sb strings.Builder
	for i, text := range pages {
		if markers {
			sb.WriteString(PageMarker(i + 1))
			sb.WriteString(text)
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(text)
		if i < len(pages)-1 && !strings.HasSuffix(text, "\n") {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
