// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package plain

import (
	"context"
	"fmt"
	"math"
	"sort"
	"unicode"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"github.com/pdf-bench/internal/extract"
)

// rowTolerance is how far apart two baselines may be and still share a row
const rowTolerance = 2.0

// glyph is one rune of a row with the box of the glyph it came from
type glyph struct {
	r   rune
	box extract.Rect
}

// Search finds case-insensitive literal matches of query, row by row. The query
// is not trimmed, so surrounding spaces must match too. Matches do not span rows. Boxes use a top-left origin in PDF points.
func (b *Backend) Search(ctx context.Context, path, query string) ([]extract.SearchHit, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is empty")
	}

	needle := fold(query)

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var hits []extract.SearchHit
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		content, err := Content(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		_, height := MediaBox(page)

		var boxes []extract.Rect
		for _, row := range rows(content.Text, height) {
			boxes = append(boxes, matchRow(row, needle)...)
		}
		if len(boxes) > 0 {
			hits = append(hits, extract.SearchHit{Page: i, Count: len(boxes), Boxes: boxes})
		}
	}
	return hits, nil
}

// rows groups glyphs sharing a baseline, top to bottom, each row left to right
func rows(texts []pdf.Text, pageHeight float64) [][]glyph {
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > rowTolerance {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var out [][]glyph
	var current []glyph
	lastY := math.NaN()
	for _, t := range sorted {
		if !math.IsNaN(lastY) && math.Abs(t.Y-lastY) > rowTolerance {
			out = append(out, current)
			current = nil
		}
		lastY = t.Y

		box := extract.Rect{
			X0: t.X,
			Y0: pageHeight - (t.Y + t.FontSize),
			X1: t.X + t.W,
			Y1: pageHeight - t.Y,
		}
		for _, r := range fold(t.S) {
			current = append(current, glyph{r: r, box: box})
		}
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}

// matchRow returns one box per non-overlapping occurrence of needle in row
func matchRow(row []glyph, needle []rune) []extract.Rect {
	var out []extract.Rect
	for i := 0; i+len(needle) <= len(row); {
		if !hasPrefix(row[i:], needle) {
			i++
			continue
		}
		box := row[i].box
		for _, g := range row[i+1 : i+len(needle)] {
			box.X0 = math.Min(box.X0, g.box.X0)
			box.Y0 = math.Min(box.Y0, g.box.Y0)
			box.X1 = math.Max(box.X1, g.box.X1)
			box.Y1 = math.Max(box.Y1, g.box.Y1)
		}
		out = append(out, box)
		i += len(needle)
	}
	return out
}

func hasPrefix(row []glyph, needle []rune) bool {
	for j, r := range needle {
		if row[j].r != r {
			return false
		}
	}
	return true
}

// fold applies NFC and lower-cases rune by rune so text and query compare equal
// regardless of how the PDF encoded composed characters
func fold(s string) []rune {
	runes := []rune(norm.NFC.String(s))
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

