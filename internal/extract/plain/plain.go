// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package plain adapts ledongthuc/pdf, a pure Go reader, to the extract interfaces.
package plain

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdf-bench/internal/extract"
)

// Backend extracts text and runs literal searches without cgo
type Backend struct{}

// New creates the pure Go reader backend
func New() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string { return "pdfreader" }

func (b *Backend) Description() string {
	return "ledongthuc/pdf: pure Go text extraction and search with glyph boxes"
}

// Text extracts the plain text of every page
func (b *Backend) Text(ctx context.Context, path string, opts extract.TextOptions) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := pageText(r.Page(i))
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return extract.JoinPages(pages, opts.PageMarkers), nil
}

// PageText extracts one 1-based page
func (b *Backend) PageText(ctx context.Context, path string, page int) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	if err := extract.CheckPage(page, r.NumPage()); err != nil {
		return "", err
	}
	text, err := pageText(r.Page(page))
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d: %w", page, err)
	}
	return text, nil
}

func pageText(page pdf.Page) (string, error) {
	if page.V.IsNull() {
		return "", nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Content returns the glyphs and rectangles of a page. The reader panics on some
// malformed content streams; that is reported as an error instead.
func Content(page pdf.Page) (content pdf.Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed page content: %v", r)
		}
	}()
	if page.V.IsNull() {
		return pdf.Content{}, nil
	}
	return page.Content(), nil
}

// MediaBox returns the page width and height, defaulting to US Letter
func MediaBox(page pdf.Page) (width, height float64) {
	width, height = 612, 792
	box := page.V.Key("MediaBox")
	if box.Kind() == pdf.Array && box.Len() == 4 {
		width = box.Index(2).Float64() - box.Index(0).Float64()
		height = box.Index(3).Float64() - box.Index(1).Float64()
	}
	return width, height
}
