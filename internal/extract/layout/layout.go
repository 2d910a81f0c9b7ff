// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package layout adapts tsawler/tabula, a layout-aware pure Go reader, to the
// extract interfaces: reading-order text, markdown, categorized elements and
// geometric table detection.
package layout

import (
	"context"
	"fmt"
	"strings"

	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/model"

	"github.com/pdf-bench/internal/extract"
	"github.com/pdf-bench/internal/logger"
)

// Backend runs tabula's layout analysis one page at a time so every result
// keeps its page number
type Backend struct{}

// New creates the tabula backend
func New() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string { return "tabula" }

func (b *Backend) Description() string {
	return "tabula: layout analysis, markdown, element categories and table detection"
}

func pageCount(path string) (int, error) {
	ext := tabula.Open(path)
	defer ext.Close()
	n, err := ext.PageCount()
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	return n, nil
}

func pageText(path string, page int) (string, error) {
	text, warnings, err := tabula.Open(path).Pages(page).Text()
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d: %w", page, err)
	}
	if len(warnings) > 0 {
		logger.Debugf("[TABULA] page %d: %d extraction warnings", page, len(warnings))
	}
	return text, nil
}

// Text extracts reading-order text for every page
func (b *Backend) Text(ctx context.Context, path string, opts extract.TextOptions) (string, error) {
	n, err := pageCount(path)
	if err != nil {
		return "", err
	}
	pages := make([]string, 0, n)
	for p := 1; p <= n; p++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := pageText(path, p)
		if err != nil {
			return "", err
		}
		pages = append(pages, text)
	}
	return extract.JoinPages(pages, opts.PageMarkers), nil
}

// PageText extracts one 1-based page
func (b *Backend) PageText(ctx context.Context, path string, page int) (string, error) {
	n, err := pageCount(path)
	if err != nil {
		return "", err
	}
	if err := extract.CheckPage(page, n); err != nil {
		return "", err
	}
	return pageText(path, page)
}

// Markdown renders each page to markdown separately
func (b *Backend) Markdown(ctx context.Context, path string) ([]extract.PageText, error) {
	n, err := pageCount(path)
	if err != nil {
		return nil, err
	}
	out := make([]extract.PageText, 0, n)
	for p := 1; p <= n; p++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		md, _, err := tabula.Open(path).Pages(p).ToMarkdown()
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d as markdown: %w", p, err)
		}
		out = append(out, extract.PageText{Page: p, Text: strings.TrimSpace(md)})
	}
	return out, nil
}

// Elements returns categorized layout elements in reading order. With
// PageBreaks set a PageBreak element separates consecutive pages.
func (b *Backend) Elements(ctx context.Context, path string, opts extract.ElementOptions) ([]extract.Element, error) {
	n, err := pageCount(path)
	if err != nil {
		return nil, err
	}
	var out []extract.Element
	for p := 1; p <= n; p++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opts.PageBreaks && p > 1 {
			out = append(out, extract.Element{Page: p, Category: extract.CategoryPageBreak})
		}
		elems, err := tabula.Open(path).Pages(p).Elements()
		if err != nil {
			return nil, fmt.Errorf("failed to analyze page %d: %w", p, err)
		}
		for _, e := range elems {
			out = append(out, extract.Element{
				Page:     p,
				Category: category(e.Type),
				Text:     strings.TrimSpace(e.Text),
			})
		}
	}
	return out, nil
}

// category maps tabula's element types onto the category names the UI filters on
func category(t model.ElementType) string {
	switch t {
	case model.ElementTypeHeading:
		return extract.CategoryTitle
	case model.ElementTypeParagraph, model.ElementTypeCaption:
		return extract.CategoryNarrativeText
	case model.ElementTypeList:
		return extract.CategoryListItem
	case model.ElementTypeTable:
		return extract.CategoryTable
	case model.ElementTypeImage, model.ElementTypeFigure:
		return extract.CategoryImage
	default:
		return extract.CategoryUncategorized
	}
}

