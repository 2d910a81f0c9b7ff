// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/pdf-bench/internal/database"
	"github.com/pdf-bench/internal/events"
	"github.com/pdf-bench/internal/extract"
	"github.com/pdf-bench/internal/extract/backends"
	"github.com/pdf-bench/internal/logger"
	"github.com/pdf-bench/internal/staging"
	"github.com/pdf-bench/internal/table"
	"github.com/pdf-bench/internal/workbench"
)

var (
	backend    = flag.String("backend", "mupdf", "Extraction library")
	mode       = flag.String("mode", "text", "Extraction mode")
	page       = flag.Int("page", 1, "Page number for page and render modes")
	query      = flag.String("query", "", "Search query")
	flavor     = flag.String("flavor", "stream", "Table flavor: stream or lattice")
	language   = flag.String("lang", "", "OCR language code, or tesseract languages for ocr_tables")
	markers    = flag.Bool("markers", false, "Insert page markers between pages")
	textOnly   = flag.Bool("text-only", false, "Keep only text elements")
	pageBreaks = flag.Bool("page-breaks", false, "Include page break elements")
	output     = flag.String("output", "both", "OCR table output: text, tables or both")
	dpi        = flag.Float64("dpi", 0, "Render resolution")
	asJSON     = flag.Bool("json", false, "Print the result as JSON")
	xlsxPath   = flag.String("xlsx", "", "Write detected tables to this .xlsx file")
	outDir     = flag.String("out", ".", "Directory for extracted images")
	list       = flag.Bool("list", false, "List backends and exit")
	verbose    = flag.Bool("v", false, "Verbose logging")
)

// fileResolver serves a single local file as the only document
type fileResolver struct {
	doc *database.Document
}

func (f fileResolver) Resolve(id string) (*database.Document, error) {
	if id != f.doc.ID {
		return nil, database.ErrNotFound
	}
	if _, err := os.Stat(f.doc.Path); err != nil {
		return f.doc, database.ErrFileMissing
	}
	return f.doc, nil
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: bench-cli [flags] file.pdf\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if !*verbose {
		logger.GetDefault().SetLevel(logger.LevelWarn)
	}
	registry := backends.NewRegistry()

	if *list {
		listBackends(registry)
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	path := flag.Arg(0)
	pages, err := staging.CountPages(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", path, err)
		os.Exit(1)
	}
	doc := &database.Document{ID: "local", Filename: filepath.Base(path), Path: path, PageCount: pages}

	broadcaster := events.NewBroadcaster()
	progress := broadcaster.Subscribe()
	go func() {
		for ev := range progress {
			if ev.Type == events.TypeRunProgress {
				fmt.Fprintf(os.Stderr, "\rpage %d/%d", ev.Done, ev.Total)
				if ev.Done == ev.Total {
					fmt.Fprintln(os.Stderr)
				}
			}
		}
	}()

	bench := workbench.New(registry, fileResolver{doc: doc}, nil, broadcaster, workbench.Options{})
	res := bench.Run(context.Background(), workbench.Request{
		DocumentID:  doc.ID,
		Backend:     *backend,
		Mode:        extract.Mode(*mode),
		Page:        *page,
		Query:       *query,
		Flavor:      *flavor,
		Language:    *language,
		PageMarkers: *markers,
		TextOnly:    *textOnly,
		PageBreaks:  *pageBreaks,
		Output:      *output,
		DPI:         *dpi,
	})
	broadcaster.Unsubscribe(progress)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(res)
	} else {
		printResult(res)
	}

	if *xlsxPath != "" && len(res.Tables) > 0 {
		if err := writeXLSX(*xlsxPath, res.Sheets()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", *xlsxPath, err)
			os.Exit(1)
		}
	}
	if len(res.Images) > 0 {
		if err := writeImages(*outDir, res.Images); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write images: %v\n", err)
			os.Exit(1)
		}
	}

	switch res.Status {
	case workbench.StatusOK, workbench.StatusEmpty:
	default:
		os.Exit(1)
	}
}

func listBackends(registry *extract.Registry) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BACKEND\tSTATUS\tMODES")
	for _, e := range registry.Entries() {
		status := "available"
		if !e.Available {
			status = "unavailable: " + e.Reason
		}
		modes := make([]string, len(e.Modes))
		for i, m := range e.Modes {
			modes[i] = string(m)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, status, strings.Join(modes, ","))
	}
	tw.Flush()
}

func printResult(res *workbench.Result) {
	if res.Message != "" {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", res.Status, res.Message)
	}
	if res.Hint != "" {
		fmt.Fprintln(os.Stderr, res.Hint)
	}

	if res.Text != "" {
		fmt.Println(res.Text)
	}
	for _, p := range res.Pages {
		fmt.Printf("%s%s\n", extract.PageMarker(p.Page), p.Text)
	}
	if len(res.Structure) > 0 {
		b, _ := json.MarshalIndent(res.Structure, "", "  ")
		fmt.Println(string(b))
	}
	for _, h := range res.Hits {
		fmt.Printf("page %d: %d matches\n", h.Page, h.Count)
		for _, box := range h.Boxes {
			fmt.Printf("  (%.1f, %.1f) - (%.1f, %.1f)\n", box.X0, box.Y0, box.X1, box.Y1)
		}
	}
	for _, t := range res.Tables {
		fmt.Printf("\n%s", t.Label())
		if t.Confidence > 0 {
			fmt.Printf(" (accuracy %.1f%%, whitespace %.1f%%)", t.Confidence, t.Whitespace)
		}
		fmt.Println()
		printTable(t.Table)
	}
	for _, e := range res.Elements {
		fmt.Printf("[%d] %-18s %s\n", e.Page, e.Category, e.Text)
	}
}

func printTable(t table.Table) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

func writeXLSX(path string, sheets []table.Sheet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := table.WriteXLSX(f, sheets); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeImages(dir string, imgs []extract.Image) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, img := range imgs {
		name := filepath.Join(dir, fmt.Sprintf("page%d_image%d.%s", img.Page, img.Index, img.Format))
		if err := os.WriteFile(name, img.Data, 0644); err != nil {
			return err
		}
		if img.Box != nil {
			fmt.Fprintf(os.Stderr, "wrote %s (page %d at %.1f,%.1f size %.1fx%.1f pt)\n", name, img.Page,
				img.Box.X0, img.Box.Y0, img.Box.X1-img.Box.X0, img.Box.Y1-img.Box.Y0)
		} else {
			fmt.Fprintf(os.Stderr, "wrote %s\n", name)
		}
	}
	return nil
}
