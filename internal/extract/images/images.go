// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package images adapts pdfcpu's raw image extraction to the extract interfaces.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/tiff"

	"github.com/pdf-bench/internal/extract"
	"github.com/pdf-bench/internal/extract/layout"
	"github.com/pdf-bench/internal/logger"
)

// Backend pulls embedded images out of the document's XObjects
type Backend struct {
	conf *model.Configuration
}

// New creates the pdfcpu image backend
func New() *Backend {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Backend{conf: conf}
}

func (b *Backend) Name() string { return "pdfcpu" }

func (b *Backend) Description() string {
	return "pdfcpu: embedded image extraction with original format tags"
}

// Images returns every embedded image ordered by page then object number.
// TIFF images are converted to PNG so browsers can show them. Placement on the
// page comes from the content stream and is left nil when it cannot be read.
func (b *Backend) Images(ctx context.Context, path string) ([]extract.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pages, err := api.ExtractImagesRaw(f, nil, b.conf)
	if err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	var raw []model.Image
	for _, byObj := range pages {
		for _, img := range byObj {
			raw = append(raw, img)
		}
	}
	sort.Slice(raw, func(i, j int) bool {
		if raw[i].PageNr != raw[j].PageNr {
			return raw[i].PageNr < raw[j].PageNr
		}
		return raw[i].ObjNr < raw[j].ObjNr
	})

	placed, err := layout.ImagePlacements(path)
	if err != nil {
		logger.Warnf("[IMAGES] No placements for %s: %v", path, err)
	}

	out := make([]extract.Image, 0, len(raw))
	perPage := make(map[int]int)
	for _, img := range raw {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := io.ReadAll(img)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s on page %d: %w", img.Name, img.PageNr, err)
		}
		format := strings.ToLower(img.FileType)
		if format == "tif" || format == "tiff" {
			if converted, err := tiffToPNG(data); err == nil {
				data, format = converted, "png"
			}
		}
		perPage[img.PageNr]++
		var box *extract.Rect
		if r, ok := placed[img.PageNr][img.Name]; ok {
			box = &r
		}
		out = append(out, extract.Image{
			Page:   img.PageNr,
			Index:  perPage[img.PageNr],
			Name:   img.Name,
			Format: format,
			Width:  img.Width,
			Height: img.Height,
			Box:    box,
			Data:   data,
		})
	}
	return out, nil
}

// PageCount reads the page count from the document's page tree
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

func tiffToPNG(data []byte) ([]byte, error) {
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
