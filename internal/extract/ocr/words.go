// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package ocr

import (
	"image"
	"strings"

	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/tables"

	"github.com/pdf-bench/internal/extract/layout"
	"github.com/pdf-bench/internal/table"
)

// Word is one recognized word with its box in image pixels (top-left origin)
type Word struct {
	Text       string
	Box        image.Rectangle
	Confidence float64
}

// joinWords flattens recognized words into a single line of text
func joinWords(words []Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if t := strings.TrimSpace(w.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// wordTables runs tabula's whitespace detector over word boxes. Pixel boxes are
// converted to points with a bottom-left origin so detector tolerances keep
// their meaning.
func wordTables(words []Word, imgHeight int, dpi float64, page int) ([]table.Raw, error) {
	if len(words) == 0 {
		return nil, nil
	}
	scale := 72 / dpi
	height := float64(imgHeight) * scale

	mp := model.NewPage(0, height)
	mp.Number = page
	for _, w := range words {
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		x := float64(w.Box.Min.X) * scale
		y := height - float64(w.Box.Max.Y)*scale
		mp.RawText = append(mp.RawText, model.TextFragment{
			Text:     w.Text,
			BBox:     model.NewBBox(x, y, float64(w.Box.Dx())*scale, float64(w.Box.Dy())*scale),
			FontSize: float64(w.Box.Dy()) * scale,
		})
	}

	cfg := tables.DefaultConfig()
	cfg.UseLines = false
	cfg.UseWhitespace = true
	detector := tables.NewGeometricDetector()
	if err := detector.Configure(cfg); err != nil {
		return nil, err
	}
	found, err := detector.Detect(mp)
	if err != nil {
		return nil, err
	}
	return layout.RawTables(found, page, false), nil
}
