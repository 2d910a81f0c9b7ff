// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"errors"
	"net/http"

	"github.com/pdf-bench/internal/database"
	"github.com/pdf-bench/internal/extract"
	"github.com/pdf-bench/internal/extract/layout"
	"github.com/pdf-bench/internal/extract/ocr"
	"github.com/pdf-bench/internal/logger"
	"github.com/pdf-bench/internal/workbench"
)

type indexPage struct {
	Documents []database.Document
	Backends  []extract.Entry
	MaxMB     int64
}

type documentPage struct {
	Document  *database.Document
	Blocking  string
	Backends  []extract.Entry
	Modes     []extract.Mode
	Languages []ocr.Language
	Flavors   []string
	Outputs   []string
	Request   workbench.Request
	Language  string // selected closed-set OCR language
	Tesseract string // tesseract language string for OCR tables
	Result    *workbench.Result
	Runs      []database.Run
}

// HandleIndex serves the upload form and the document list
func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.List()
	if err != nil {
		logger.Errorf("[WEB] Failed to list documents: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := indexPage{
		Documents: docs,
		Backends:  s.bench.Registry().Entries(),
		MaxMB:     s.maxUpload >> 20,
	}
	if err := renderTemplate(w, "index.html", data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// HandleDocument serves the workbench page for one document. When the query
// names a mode the run happens here and its result is embedded in the page.
func (s *Server) HandleDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, err := s.docs.Resolve(id)
	if errors.Is(err, database.ErrNotFound) {
		http.NotFound(w, r)
		return
	}

	data := documentPage{
		Document:  doc,
		Backends:  s.bench.Registry().Entries(),
		Modes:     extract.AllModes,
		Languages: ocr.Languages,
		Flavors:   []string{layout.FlavorStream, layout.FlavorLattice},
		Outputs:   []string{workbench.OutputBoth, workbench.OutputText, workbench.OutputTables},
		Request:   s.defaultRequest(id, r),
		Language:  r.URL.Query().Get("language"),
		Tesseract: r.URL.Query().Get("tesseract"),
	}
	if data.Language == "" {
		data.Language = ocr.DefaultLanguage
	}
	if data.Tesseract == "" {
		data.Tesseract = s.tesseract
	}

	switch {
	case errors.Is(err, database.ErrFileMissing):
		data.Blocking = workbench.FileMissingMessage
	case err != nil:
		logger.Errorf("[WEB] Failed to load document %s: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	case r.URL.Query().Get("mode") != "":
		data.Result = s.bench.Run(r.Context(), data.Request)
	}

	if s.runs != nil {
		if data.Runs, err = s.runs.Recent(id, 10); err != nil {
			logger.Warnf("[WEB] Failed to load run history for %s: %v", id, err)
		}
	}

	if err := renderTemplate(w, "document.html", data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// defaultRequest fills the form with the submitted values or sensible defaults
func (s *Server) defaultRequest(id string, r *http.Request) workbench.Request {
	req := parseRequest(id, r.URL.Query())
	if req.Backend == "" {
		if names := s.bench.Registry().ForMode(extract.ModeText); len(names) > 0 {
			req.Backend = names[0]
		}
	}
	if req.Mode == "" {
		req.Mode = extract.ModeText
	}
	if req.Flavor == "" {
		req.Flavor = layout.FlavorStream
	}
	if req.Output == "" {
		req.Output = workbench.OutputBoth
	}
	return req
}
