// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package mupdf adapts go-fitz (MuPDF) to the extract interfaces.
// API reference: https://pkg.go.dev/github.com/gen2brain/go-fitz
package mupdf

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"github.com/pdf-bench/internal/extract"
)

// Backend extracts text, page structure and page renders through MuPDF
type Backend struct{}

// New creates the MuPDF backend
func New() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string { return "mupdf" }

func (b *Backend) Description() string {
	return "MuPDF via go-fitz: fast text, positioned blocks and page rendering"
}

// Text extracts every page, optionally separated by page markers
func (b *Backend) Text(ctx context.Context, path string, opts extract.TextOptions) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", i+1, err)
		}
		pages = append(pages, text)
	}
	return extract.JoinPages(pages, opts.PageMarkers), nil
}

// PageText extracts one 1-based page
func (b *Backend) PageText(ctx context.Context, path string, page int) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if err := extract.CheckPage(page, doc.NumPage()); err != nil {
		return "", err
	}
	text, err := doc.Text(page - 1)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d: %w", page, err)
	}
	return text, nil
}

// Render rasterizes one 1-based page to PNG
func (b *Backend) Render(ctx context.Context, path string, page int, dpi float64) (extract.Image, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return extract.Image{}, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if err := extract.CheckPage(page, doc.NumPage()); err != nil {
		return extract.Image{}, err
	}
	return renderPage(doc, page, dpi)
}

// RenderAll rasterizes every page in order, stopping early if ctx is cancelled.
// fn receives each page as it is rendered.
func RenderAll(ctx context.Context, path string, dpi float64, fn func(img extract.Image, total int) error) error {
	doc, err := fitz.New(path)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	for p := 1; p <= total; p++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := renderPage(doc, p, dpi)
		if err != nil {
			return err
		}
		if err := fn(img, total); err != nil {
			return err
		}
	}
	return nil
}

// PageCount opens the document only to count its pages
func PageCount(path string) (int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

func renderPage(doc *fitz.Document, page int, dpi float64) (extract.Image, error) {
	if dpi <= 0 {
		dpi = 150
	}
	data, err := doc.ImagePNG(page-1, dpi)
	if err != nil {
		return extract.Image{}, fmt.Errorf("failed to render page %d: %w", page, err)
	}
	img := extract.Image{
		Page:   page,
		Index:  1,
		Name:   fmt.Sprintf("page-%d.png", page),
		Format: "png",
		Data:   data,
	}
	if rect, err := doc.Bound(page - 1); err == nil {
		scale := dpi / 72
		img.Width = int(float64(rect.Dx()) * scale)
		img.Height = int(float64(rect.Dy()) * scale)
	}
	return img, nil
}
