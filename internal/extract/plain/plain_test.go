// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package plain

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"

	"github.com/pdf-bench/internal/extract"
)

const samplePDF = "../../../testdata/sample.pdf"

func word(s string, x, y float64) []pdf.Text {
	var out []pdf.Text
	for _, r := range s {
		out = append(out, pdf.Text{S: string(r), X: x, Y: y, W: 5, FontSize: 10})
		x += 5
	}
	return out
}

func TestRowsAndMatch(t *testing.T) {
	var texts []pdf.Text
	texts = append(texts, word("Hello", 72, 700)...)
	texts = append(texts, word("world hello", 72, 680)...)
	texts = append(texts, word("HELLO", 300, 700.5)...) // same row as the first word

	rs := rows(texts, 792)
	if len(rs) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rs))
	}

	needle := fold("hello")
	var total int
	for _, row := range rs {
		total += len(matchRow(row, needle))
	}
	if total != 3 {
		t.Errorf("Expected 3 matches, got %d", total)
	}

	box := matchRow(rs[0], needle)[0]
	if box.X0 != 72 || box.X1 != 72+5*5 {
		t.Errorf("Unexpected x extent: %+v", box)
	}
	if box.Y0 != 792-710 || box.Y1 != 792-700 {
		t.Errorf("Unexpected y extent: %+v", box)
	}
}

func TestFold_ComposesAccents(t *testing.T) {
	decomposed := "Cafe\u0301"
	if got, want := string(fold(decomposed)), "caf\u00e9"; got != want {
		t.Errorf("fold(%q) = %q, want %q", decomposed, got, want)
	}
}

func TestMatchRow_QueryIsLiteral(t *testing.T) {
	row := rows(word("the other one", 0, 10), 100)[0]
	if got := len(matchRow(row, fold(" the "))); got != 0 {
		t.Errorf("Padded query matched inside a word: %d matches", got)
	}
	if got := len(matchRow(row, fold("the"))); got != 2 {
		t.Errorf("Expected 2 matches for bare query, got %d", got)
	}
	if got := len(matchRow(row, fold(" one"))); got != 1 {
		t.Errorf("Expected leading space to match once, got %d", got)
	}
}

func TestMatchRow_NoOverlap(t *testing.T) {
	row := rows(word("aaaa", 0, 10), 100)[0]
	if got := len(matchRow(row, fold("aa"))); got != 2 {
		t.Errorf("Expected 2 non-overlapping matches, got %d", got)
	}
}

func TestSample(t *testing.T) {
	if _, err := os.Stat(samplePDF); err != nil {
		t.Skipf("Skipping: sample PDF not available: %v", err)
	}
	b := New()
	ctx := context.Background()

	text, err := b.PageText(ctx, samplePDF, 2)
	if err != nil {
		t.Fatalf("PageText failed: %v", err)
	}
	if !strings.Contains(text, "Second page") {
		t.Errorf("Unexpected page 2 text: %q", text)
	}

	hits, err := b.Search(ctx, samplePDF, "hello")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Expected hits on both pages, got %+v", hits)
	}
	for _, h := range hits {
		if h.Count != len(h.Boxes) {
			t.Errorf("Page %d: count %d does not match %d boxes", h.Page, h.Count, len(h.Boxes))
		}
	}

	if _, err := b.Search(ctx, samplePDF, ""); err == nil {
		t.Error("Expected error for empty query")
	}

	if _, err := b.PageText(ctx, samplePDF, 0); !errors.Is(err, extract.ErrPageOutOfRange) {
		t.Errorf("Expected ErrPageOutOfRange for page 0, got %v", err)
	}
}
