// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package extract defines the adapter surface shared by every extraction backend.
// A backend implements Backend plus whichever capability interfaces its library
// supports; the registry and workbench discover capabilities by type assertion.
package extract

import (
	"context"

	"github.com/pdf-bench/internal/table"
)

// Mode names one kind of extraction a user can pick
type Mode string

const (
	ModeText      Mode = "text"       // whole document text
	ModePage      Mode = "page"       // one page of text
	ModeMarkdown  Mode = "markdown"   // per-page markdown
	ModeStructure Mode = "structure"  // per-page positioned blocks (JSON)
	ModeSearch    Mode = "search"     // literal search with bounding boxes
	ModeTables    Mode = "tables"     // table detection
	ModeImages    Mode = "images"     // embedded images
	ModeRender    Mode = "render"     // page rendered to an image
	ModeElements  Mode = "elements"   // categorized layout elements
	ModeOCRText   Mode = "ocr_text"   // OCR text of every page
	ModeOCRTables Mode = "ocr_tables" // OCR text and/or tables
)

// AllModes lists modes in the order the UI presents them
var AllModes = []Mode{
	ModeText, ModePage, ModeMarkdown, ModeStructure, ModeSearch, ModeTables,
	ModeImages, ModeRender, ModeElements, ModeOCRText, ModeOCRTables,
}

// Label returns a human readable label for a mode
func (m Mode) Label() string {
	switch m {
	case ModeText:
		return "All Text"
	case ModePage:
		return "Specific Page"
	case ModeMarkdown:
		return "Markdown Output"
	case ModeStructure:
		return "JSON Output"
	case ModeSearch:
		return "Search Text"
	case ModeTables:
		return "Table Detection"
	case ModeImages:
		return "Image Extraction"
	case ModeRender:
		return "Page Render"
	case ModeElements:
		return "Layout Elements"
	case ModeOCRText:
		return "OCR Text"
	case ModeOCRTables:
		return "OCR Tables"
	default:
		return string(m)
	}
}

// Backend is implemented by every adapter
type Backend interface {
	// Name is the registry key, e.g. "mupdf"
	Name() string
	// Description is shown next to the backend in the UI
	Description() string
}

// Prober is implemented by backends whose library may be missing at runtime.
// A non-nil error marks the backend unavailable.
type Prober interface {
	Probe() error
}

// TextOptions controls whole-document text extraction
type TextOptions struct {
	PageMarkers bool
}

// TextExtractor returns the text of the whole document
type TextExtractor interface {
	Text(ctx context.Context, path string, opts TextOptions) (string, error)
}

// PageExtractor returns the text of one page (1-based)
type PageExtractor interface {
	PageText(ctx context.Context, path string, page int) (string, error)
}

// PageText is a chunk of output tied to its page
type PageText struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// MarkdownExtractor returns markdown per page
type MarkdownExtractor interface {
	Markdown(ctx context.Context, path string) ([]PageText, error)
}

// Block is a positioned run of text on a page
type Block struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize float64 `json:"font_size,omitempty"`
	Font     string  `json:"font,omitempty"`
}

// PageStructure is the structured dump of one page
type PageStructure struct {
	Page   int     `json:"page"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Blocks []Block `json:"blocks"`
}

// StructureExtractor returns positioned blocks per page
type StructureExtractor interface {
	Structure(ctx context.Context, path string) ([]PageStructure, error)
}

// Rect is an axis-aligned box in page coordinates
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// SearchHit lists the matches of a query on one page
type SearchHit struct {
	Page  int    `json:"page"`
	Count int    `json:"count"`
	Boxes []Rect `json:"boxes"`
}

// Searcher finds literal occurrences of a query. Matching rules are the library's.
type Searcher interface {
	Search(ctx context.Context, path, query string) ([]SearchHit, error)
}

// TableOptions is passed through to the table backend unchanged
type TableOptions struct {
	Flavor string // backend specific, e.g. "stream" or "lattice"
}

// TableExtractor returns raw grids tagged with their page
type TableExtractor interface {
	Tables(ctx context.Context, path string, opts TableOptions) ([]table.Raw, error)
}

// Image is binary image data with its format tag
type Image struct {
	Page   int    `json:"page"`
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	Format string `json:"format"` // file extension without dot, e.g. "png"
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Box    *Rect  `json:"box,omitempty"` // where the image is drawn, when known
	Data   []byte `json:"-"`
}

// ImageExtractor returns the images embedded in the document
type ImageExtractor interface {
	Images(ctx context.Context, path string) ([]Image, error)
}

// Renderer rasterizes one page (1-based) at the given resolution
type Renderer interface {
	Render(ctx context.Context, path string, page int, dpi float64) (Image, error)
}

// Element categories, named after the categories the UI filters on
const (
	CategoryTitle         = "Title"
	CategoryNarrativeText = "NarrativeText"
	CategoryListItem      = "ListItem"
	CategoryUncategorized = "UncategorizedText"
	CategoryTable         = "Table"
	CategoryImage         = "Image"
	CategoryPageBreak     = "PageBreak"
)

// TextCategories are the element categories kept by the text-only filter
var TextCategories = map[string]bool{
	CategoryNarrativeText: true,
	CategoryTitle:         true,
	CategoryListItem:      true,
	CategoryUncategorized: true,
}

// Element is a categorized piece of page layout
type Element struct {
	Page     int    `json:"page"`
	Category string `json:"category"`
	Text     string `json:"text"`
}

// ElementOptions controls layout element extraction
type ElementOptions struct {
	PageBreaks bool
}

// ElementExtractor returns layout elements in reading order
type ElementExtractor interface {
	Elements(ctx context.Context, path string, opts ElementOptions) ([]Element, error)
}

// ProgressFunc is called after each page of a long running extraction
type ProgressFunc func(done, total int)

// OCROptions is passed through to the OCR engine unchanged
type OCROptions struct {
	Language    string // engine language string, e.g. "tur" or "eng+tur"
	DPI         float64
	PageMarkers bool
	Progress    ProgressFunc
}

// OCRLayout is the word-level OCR result: words joined per page and the tables
// detected from their positions
type OCRLayout struct {
	Text   string      `json:"text"`
	Tables []table.Raw `json:"tables"`
}

// Recognizer runs OCR over rendered pages
type Recognizer interface {
	RecognizeText(ctx context.Context, path string, opts OCROptions) (string, error)
	RecognizeTables(ctx context.Context, path string, opts OCROptions) (OCRLayout, error)
}

// Supports reports whether a backend implements the capability behind a mode
func Supports(b Backend, m Mode) bool {
	switch m {
	case ModeText:
		_, ok := b.(TextExtractor)
		return ok
	case ModePage:
		_, ok := b.(PageExtractor)
		return ok
	case ModeMarkdown:
		_, ok := b.(MarkdownExtractor)
		return ok
	case ModeStructure:
		_, ok := b.(StructureExtractor)
		return ok
	case ModeSearch:
		_, ok := b.(Searcher)
		return ok
	case ModeTables:
		_, ok := b.(TableExtractor)
		return ok
	case ModeImages:
		_, ok := b.(ImageExtractor)
		return ok
	case ModeRender:
		_, ok := b.(Renderer)
		return ok
	case ModeElements:
		_, ok := b.(ElementExtractor)
		return ok
	case ModeOCRText, ModeOCRTables:
		_, ok := b.(Recognizer)
		return ok
	default:
		return false
	}
}

// Modes lists the modes a backend supports, in UI order
func Modes(b Backend) []Mode {
	var modes []Mode
	for _, m := range AllModes {
		if Supports(b, m) {
			modes = append(modes, m)
		}
	}
	return modes
}
