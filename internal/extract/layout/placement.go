// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package layout

import (
	"fmt"
	"math"

	"github.com/tsawler/tabula/contentstream"
	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/reader"

	"github.com/pdf-bench/internal/extract"
)

// ImagePlacements returns, per page number, where each XObject is drawn, keyed
// by its resource name. Only the page's own content is walked, so images
// drawn inside form XObjects have no placement.
func ImagePlacements(path string) (map[int]map[string]extract.Rect, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer r.Close()

	n, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	out := make(map[int]map[string]extract.Rect, n)
	for i := 0; i < n; i++ {
		page, err := r.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("failed to load page %d: %w", i+1, err)
		}
		height, _ := page.Height()
		data, err := pageContent(page)
		if err != nil {
			return nil, fmt.Errorf("failed to read content of page %d: %w", i+1, err)
		}
		if len(data) == 0 {
			continue
		}
		placed, err := Placements(data, height)
		if err != nil {
			return nil, fmt.Errorf("failed to parse content of page %d: %w", i+1, err)
		}
		if len(placed) > 0 {
			out[i+1] = placed
		}
	}
	return out, nil
}

// Placements tracks the transformation matrix through a content stream and
// records the box of the unit square at each Do operator. Boxes use a top-left
// origin like search hits. The first placement of a name wins.
func Placements(content []byte, pageHeight float64) (map[string]extract.Rect, error) {
	ops, err := contentstream.NewParser(content).Parse()
	if err != nil {
		return nil, err
	}

	ctm := model.Identity()
	var stack []model.Matrix
	out := make(map[string]extract.Rect)
	for _, op := range ops {
		switch op.Operator {
		case "q":
			stack = append(stack, ctm)
		case "Q":
			if len(stack) > 0 {
				ctm = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}
		case "cm":
			if m, ok := matrix(op.Operands); ok {
				ctm = m.Multiply(ctm)
			}
		case "Do":
			if len(op.Operands) != 1 {
				continue
			}
			name, ok := op.Operands[0].(core.Name)
			if !ok {
				continue
			}
			if _, seen := out[string(name)]; !seen {
				out[string(name)] = unitSquare(ctm, pageHeight)
			}
		}
	}
	return out, nil
}

func matrix(operands []core.Object) (model.Matrix, bool) {
	var m model.Matrix
	if len(operands) != 6 {
		return m, false
	}
	for i, obj := range operands {
		switch v := obj.(type) {
		case core.Int:
			m[i] = float64(v)
		case core.Real:
			m[i] = float64(v)
		default:
			return m, false
		}
	}
	return m, true
}

// unitSquare maps the image space unit square through ctm
func unitSquare(ctm model.Matrix, pageHeight float64) extract.Rect {
	x0, y0 := math.Inf(1), math.Inf(1)
	x1, y1 := math.Inf(-1), math.Inf(-1)
	for _, p := range []model.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}} {
		q := ctm.Transform(p)
		x0, x1 = math.Min(x0, q.X), math.Max(x1, q.X)
		y0, y1 = math.Min(y0, q.Y), math.Max(y1, q.Y)
	}
	return extract.Rect{X0: x0, Y0: pageHeight - y1, X1: x1, Y1: pageHeight - y0}
}
