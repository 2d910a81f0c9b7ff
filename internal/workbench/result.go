// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package workbench

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdf-bench/internal/extract"
	"github.com/pdf-bench/internal/table"
)

// Status classifies the outcome of one run
type Status string

const (
	StatusOK          Status = "ok"
	StatusEmpty       Status = "empty"       // the call worked but found nothing
	StatusUnavailable Status = "unavailable" // backend library missing at start-up
	StatusInvalid     Status = "invalid"     // bad parameters, nothing was called
	StatusMissing     Status = "missing"     // document or its file is gone
	StatusFailed      Status = "failed"      // the library call returned an error
)

// FileMissingMessage is shown when the staged PDF can no longer be read
const FileMissingMessage = "PDF file not found. Please upload again."

// OCR table run outputs
const (
	OutputText   = "text"
	OutputTables = "tables"
	OutputBoth   = "both"
)

// Request is one user-triggered extraction. Parameters are passed through to
// the backend unchanged.
type Request struct {
	DocumentID  string       `json:"document_id"`
	Backend     string       `json:"backend"`
	Mode        extract.Mode `json:"mode"`
	Page        int          `json:"page,omitempty"`
	Query       string       `json:"query,omitempty"`
	Flavor      string       `json:"flavor,omitempty"`
	Language    string       `json:"language,omitempty"`
	PageMarkers bool         `json:"page_markers,omitempty"`
	TextOnly    bool         `json:"text_only,omitempty"`
	PageBreaks  bool         `json:"page_breaks,omitempty"`
	Output      string       `json:"output,omitempty"`
	DPI         float64      `json:"dpi,omitempty"`
}

// TableResult is a normalized table with the metadata of its raw grid
type TableResult struct {
	Page       int         `json:"page"`
	Index      int         `json:"index"`
	Confidence float64     `json:"confidence,omitempty"`
	Whitespace float64     `json:"whitespace,omitempty"`
	Table      table.Table `json:"table"`
}

// Label names the table for captions and worksheet names
func (t TableResult) Label() string {
	return fmt.Sprintf("Page %d Table %d", t.Page, t.Index)
}

// Result is what the display layer renders for one run
type Result struct {
	DocumentID string        `json:"document_id"`
	Filename   string        `json:"filename,omitempty"`
	Backend    string        `json:"backend"`
	Mode       extract.Mode  `json:"mode"`
	Status     Status        `json:"status"`
	Message    string        `json:"message,omitempty"`
	Hint       string        `json:"hint,omitempty"`
	Duration   time.Duration `json:"duration_ns"`

	Text      string                  `json:"text,omitempty"`
	Pages     []extract.PageText      `json:"pages,omitempty"`
	Structure []extract.PageStructure `json:"structure,omitempty"`
	Hits      []extract.SearchHit     `json:"hits,omitempty"`
	Tables    []TableResult           `json:"tables,omitempty"`
	Images    []extract.Image         `json:"images,omitempty"`
	Elements  []extract.Element       `json:"elements,omitempty"`

	Err error `json:"-"`
}

// OK reports whether the run produced output
func (r *Result) OK() bool {
	return r.Status == StatusOK
}

// Sheets converts the result tables for spreadsheet export
func (r *Result) Sheets() []table.Sheet {
	sheets := make([]table.Sheet, 0, len(r.Tables))
	for _, t := range r.Tables {
		sheets = append(sheets, table.Sheet{Name: t.Label(), Table: t.Table})
	}
	return sheets
}

// HitCount sums the matches over all pages
func (r *Result) HitCount() int {
	n := 0
	for _, h := range r.Hits {
		n += h.Count
	}
	return n
}

func (r *Result) empty() bool {
	switch r.Mode {
	case extract.ModeText, extract.ModePage, extract.ModeOCRText:
		return isBlank(r.Text)
	case extract.ModeMarkdown:
		for _, p := range r.Pages {
			if !isBlank(p.Text) {
				return false
			}
		}
		return true
	case extract.ModeStructure:
		for _, p := range r.Structure {
			if len(p.Blocks) > 0 {
				return false
			}
		}
		return true
	case extract.ModeSearch:
		return r.HitCount() == 0
	case extract.ModeTables:
		return len(r.Tables) == 0
	case extract.ModeImages, extract.ModeRender:
		return len(r.Images) == 0
	case extract.ModeElements:
		return len(r.Elements) == 0
	case extract.ModeOCRTables:
		return isBlank(r.Text) && len(r.Tables) == 0
	}
	return false
}

// emptyMessage is the informational message for a run that found nothing
func emptyMessage(mode extract.Mode) string {
	switch mode {
	case extract.ModeSearch:
		return "No matches found."
	case extract.ModeTables, extract.ModeOCRTables:
		return "No tables found."
	case extract.ModeImages:
		return "No images found in the PDF."
	case extract.ModeElements:
		return "No elements found."
	default:
		return "No text found."
	}
}

// failureHint suggests a remediation for a failed library call
func failureHint(mode extract.Mode) string {
	switch mode {
	case extract.ModeText, extract.ModePage, extract.ModeMarkdown, extract.ModeStructure,
		extract.ModeSearch, extract.ModeTables, extract.ModeElements:
		return "This method only works on text-based PDFs. Try an OCR method for scanned documents."
	case extract.ModeOCRText, extract.ModeOCRTables:
		return "Check that Tesseract and the traineddata for the selected language are installed."
	}
	return ""
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
