// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package ocr runs Tesseract over rendered pages. The engine is compiled in
// with the "ocr" build tag; without it the backend registers as unavailable.
//
//	go build -tags ocr ./cmd/bench-server
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"github.com/pdf-bench/internal/extract"
	"github.com/pdf-bench/internal/extract/mupdf"
	"github.com/pdf-bench/internal/logger"
)

// ErrOCRNotEnabled is returned when the binary was built without the "ocr" tag
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// DefaultDPI is the render resolution used when the caller passes none
const DefaultDPI = 200

// engine is the recognizer behind the backend; images are passed by path
type engine interface {
	probe() error
	text(imagePath, lang string) (string, error)
	words(imagePath, lang string) ([]Word, error)
}

// Backend renders each page with MuPDF and hands it to Tesseract
type Backend struct {
	engine engine
}

// New creates the Tesseract backend
func New() *Backend {
	return &Backend{engine: newEngine()}
}

func (b *Backend) Name() string { return "tesseract" }

func (b *Backend) Description() string {
	return "Tesseract via gosseract: OCR text and OCR table detection for scanned PDFs"
}

// Probe reports whether the OCR engine was compiled in and can start
func (b *Backend) Probe() error {
	return b.engine.probe()
}

// RecognizeText OCRs every page. Pages are separated by markers when requested.
func (b *Backend) RecognizeText(ctx context.Context, path string, opts extract.OCROptions) (string, error) {
	lang, dpi, err := resolve(opts)
	if err != nil {
		return "", err
	}

	var pages []string
	err = mupdf.RenderAll(ctx, path, dpi, func(img extract.Image, total int) error {
		var text string
		err := withTempImage(img.Data, func(imgPath string) error {
			var err error
			text, err = b.engine.text(imgPath, lang)
			return err
		})
		if err != nil {
			return fmt.Errorf("OCR failed on page %d: %w", img.Page, err)
		}
		pages = append(pages, strings.TrimSpace(text))
		if opts.Progress != nil {
			opts.Progress(img.Page, total)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return extract.JoinPages(pages, opts.PageMarkers), nil
}

// RecognizeTables OCRs every page at word level. Words are joined by spaces,
// one line per page, and tables are detected from the word layout.
func (b *Backend) RecognizeTables(ctx context.Context, path string, opts extract.OCROptions) (extract.OCRLayout, error) {
	var out extract.OCRLayout
	lang, dpi, err := resolve(opts)
	if err != nil {
		return out, err
	}

	var sb strings.Builder
	err = mupdf.RenderAll(ctx, path, dpi, func(img extract.Image, total int) error {
		var words []Word
		err := withTempImage(img.Data, func(imgPath string) error {
			var err error
			words, err = b.engine.words(imgPath, lang)
			return err
		})
		if err != nil {
			return fmt.Errorf("OCR failed on page %d: %w", img.Page, err)
		}
		sb.WriteString(joinWords(words))
		sb.WriteString("\n")

		cfg, err := png.DecodeConfig(bytes.NewReader(img.Data))
		if err != nil {
			return fmt.Errorf("failed to read rendered page %d: %w", img.Page, err)
		}
		found, err := wordTables(words, cfg.Height, dpi, img.Page)
		if err != nil {
			return fmt.Errorf("table detection failed on page %d: %w", img.Page, err)
		}
		logger.Debugf("[OCR] page %d/%d: %d words, %d tables", img.Page, total, len(words), len(found))
		out.Tables = append(out.Tables, found...)
		if opts.Progress != nil {
			opts.Progress(img.Page, total)
		}
		return nil
	})
	if err != nil {
		return extract.OCRLayout{}, err
	}
	out.Text = sb.String()
	return out, nil
}

func resolve(opts extract.OCROptions) (string, float64, error) {
	lang := opts.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	tess, err := ResolveLanguage(lang)
	if err != nil {
		return "", 0, err
	}
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return tess, dpi, nil
}
