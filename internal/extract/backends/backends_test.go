// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package backends

import (
	"testing"

	"github.com/pdf-bench/internal/extract"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	names := map[string]bool{}
	for _, e := range reg.Entries() {
		names[e.Name] = true
		if e.Name == "tesseract" && len(e.Modes) != 2 {
			t.Errorf("tesseract modes = %v, want OCR text and tables", e.Modes)
		}
	}
	for _, want := range []string{"mupdf", "pdfreader", "pdfcpu", "tabula", "tesseract"} {
		if !names[want] {
			t.Errorf("Backend %s not registered", want)
		}
	}

	tests := []struct {
		backend string
		mode    extract.Mode
	}{
		{"mupdf", extract.ModeText},
		{"mupdf", extract.ModeStructure},
		{"mupdf", extract.ModeRender},
		{"pdfreader", extract.ModeSearch},
		{"pdfcpu", extract.ModeImages},
		{"tabula", extract.ModeTables},
		{"tabula", extract.ModeMarkdown},
		{"tabula", extract.ModeElements},
	}
	for _, tt := range tests {
		if !reg.Supports(tt.backend, tt.mode) {
			t.Errorf("%s should support %s", tt.backend, tt.mode)
		}
	}
	if reg.Supports("pdfcpu", extract.ModeText) {
		t.Error("pdfcpu should not offer text")
	}
}
