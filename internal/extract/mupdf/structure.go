// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package mupdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gen2brain/go-fitz"

	"github.com/pdf-bench/internal/extract"
)

// Structure returns positioned text blocks for every page. MuPDF's HTML device
// places each line in an absolutely positioned <p>; those become blocks.
func (b *Backend) Structure(ctx context.Context, path string) ([]extract.PageStructure, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	out := make([]extract.PageStructure, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		html, err := doc.HTML(i, false)
		if err != nil {
			return nil, fmt.Errorf("failed to extract structure from page %d: %w", i+1, err)
		}
		ps, err := parsePageHTML(html, i+1)
		if err != nil {
			return nil, err
		}
		if ps.Width == 0 {
			if rect, err := doc.Bound(i); err == nil {
				ps.Width = float64(rect.Dx())
				ps.Height = float64(rect.Dy())
			}
		}
		out = append(out, ps)
	}
	return out, nil
}

func parsePageHTML(html string, page int) (extract.PageStructure, error) {
	ps := extract.PageStructure{Page: page, Blocks: []extract.Block{}}

	dom, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ps, fmt.Errorf("failed to parse page %d markup: %w", page, err)
	}

	if div := dom.Find(`div[id^="page"]`).First(); div.Length() > 0 {
		style := parseStyle(div.AttrOr("style", ""))
		ps.Width = points(style["width"])
		ps.Height = points(style["height"])
	}

	dom.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if text == "" {
			return
		}
		style := parseStyle(p.AttrOr("style", ""))
		block := extract.Block{
			Text: text,
			X:    points(style["left"]),
			Y:    points(style["top"]),
		}
		if span := p.Find("span").First(); span.Length() > 0 {
			spanStyle := parseStyle(span.AttrOr("style", ""))
			block.FontSize = points(spanStyle["font-size"])
			block.Font = strings.Split(spanStyle["font-family"], ",")[0]
		}
		ps.Blocks = append(ps.Blocks, block)
	})
	return ps, nil
}

// parseStyle splits an inline CSS declaration list into a map
func parseStyle(style string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(strings.ToLower(k))] = strings.TrimSpace(v)
	}
	return out
}

// points parses "12.5pt" (or a bare number) and returns 0 when unparsable
func points(v string) float64 {
	v = strings.TrimSuffix(strings.TrimSpace(v), "pt")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}
