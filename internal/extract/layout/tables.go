// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package layout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/graphicsstate"
	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/tables"
	tabtext "github.com/tsawler/tabula/text"

	"github.com/pdf-bench/internal/extract"
	"github.com/pdf-bench/internal/table"
)

// Table flavors. Stream infers cells from whitespace alignment; lattice needs
// ruling lines drawn on the page.
const (
	FlavorStream  = "stream"
	FlavorLattice = "lattice"
)

// ErrInvalidFlavor is returned for a flavor other than stream or lattice
var ErrInvalidFlavor = errors.New("invalid table flavor")

// detectorConfig returns the tabula detector settings for a flavor
func detectorConfig(flavor string) (tables.Config, error) {
	cfg := tables.DefaultConfig()
	switch flavor {
	case "", FlavorStream:
		cfg.UseLines = false
		cfg.UseWhitespace = true
	case FlavorLattice:
		cfg.UseLines = true
		cfg.UseWhitespace = false
	default:
		return cfg, fmt.Errorf("%w: %q (want %s or %s)", ErrInvalidFlavor, flavor, FlavorStream, FlavorLattice)
	}
	return cfg, nil
}

// Tables detects tables page by page. Confidence is reported on a 0-100 scale.
func (b *Backend) Tables(ctx context.Context, path string, opts extract.TableOptions) ([]table.Raw, error) {
	cfg, err := detectorConfig(opts.Flavor)
	if err != nil {
		return nil, err
	}
	detector := tables.NewGeometricDetector()
	if err := detector.Configure(cfg); err != nil {
		return nil, fmt.Errorf("failed to configure detector: %w", err)
	}

	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer r.Close()

	n, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	var out []table.Raw
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := modelPage(r, i, opts.Flavor == FlavorLattice)
		if err != nil {
			return nil, err
		}
		found, err := detector.Detect(page)
		if err != nil {
			return nil, fmt.Errorf("table detection failed on page %d: %w", i+1, err)
		}
		out = append(out, RawTables(found, i+1, opts.Flavor == FlavorLattice)...)
	}
	return out, nil
}

// RawTables converts detected tables to raw grids tagged with page. With
// requireGrid set, tables without visible ruling lines are dropped.
func RawTables(found []*model.Table, page int, requireGrid bool) []table.Raw {
	var out []table.Raw
	for _, t := range found {
		if t == nil || (requireGrid && !t.HasGrid) {
			continue
		}
		rows := make([][]string, len(t.Rows))
		for r, cells := range t.Rows {
			rows[r] = make([]string, len(cells))
			for c, cell := range cells {
				rows[r][c] = strings.TrimSpace(cell.Text)
			}
		}
		out = append(out, table.Raw{
			Page:       page,
			Index:      len(out) + 1,
			Rows:       rows,
			Confidence: t.Confidence * 100,
			Whitespace: table.WhitespacePercent(rows),
		})
	}
	return out
}

// modelPage builds the tabula page model the detector works on
func modelPage(r *reader.Reader, index int, withLines bool) (*model.Page, error) {
	pdfPage, err := r.GetPage(index)
	if err != nil {
		return nil, fmt.Errorf("failed to load page %d: %w", index+1, err)
	}
	width, _ := pdfPage.Width()
	height, _ := pdfPage.Height()

	page := model.NewPage(width, height)
	page.Number = index + 1

	fragments, err := r.ExtractTextFragments(pdfPage)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from page %d: %w", index+1, err)
	}
	page.RawText = ModelFragments(fragments)

	if withLines {
		lines, err := rulingLines(pdfPage)
		if err != nil {
			return nil, fmt.Errorf("failed to extract ruling lines from page %d: %w", index+1, err)
		}
		page.RawLines = lines
	}
	return page, nil
}

// ModelFragments converts reader fragments to the detector's fragment type
func ModelFragments(fragments []tabtext.TextFragment) []model.TextFragment {
	out := make([]model.TextFragment, 0, len(fragments))
	for _, f := range fragments {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		out = append(out, model.TextFragment{
			Text:     f.Text,
			BBox:     model.NewBBox(f.X, f.Y, f.Width, f.Height),
			FontSize: f.FontSize,
			FontName: f.FontName,
		})
	}
	return out
}

// rulingLines decodes the page content and collects stroked lines and rectangles
func rulingLines(page *pages.Page) ([]model.Line, error) {
	data, err := pageContent(page)
	if err != nil || len(data) == 0 {
		return nil, err
	}

	ge := graphicsstate.NewGraphicsExtractor()
	if err := ge.ExtractFromBytes(data); err != nil {
		return nil, err
	}
	return append(ge.ToModelLines(), ge.ToModelRectangles()...), nil
}

// pageContent concatenates the page's decoded content streams
func pageContent(page *pages.Page) ([]byte, error) {
	contents, err := page.Contents()
	if err != nil {
		return nil, err
	}
	var data []byte
	for _, obj := range contents {
		stream, ok := obj.(*core.Stream)
		if !ok {
			continue
		}
		decoded, err := stream.Decode()
		if err != nil {
			return nil, err
		}
		data = append(data, decoded...)
		data = append(data, '\n')
	}
	return data, nil
}
