// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdf-bench/internal/extract"
	"github.com/pdf-bench/internal/table"
	"github.com/pdf-bench/internal/workbench"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// parseRequest reads run parameters from the query string
func parseRequest(id string, q url.Values) workbench.Request {
	req := workbench.Request{
		DocumentID:  id,
		Backend:     q.Get("backend"),
		Mode:        extract.Mode(q.Get("mode")),
		Query:       q.Get("query"),
		Flavor:      q.Get("flavor"),
		Language:    strings.TrimSpace(q.Get("language")),
		PageMarkers: checked(q.Get("markers")),
		TextOnly:    checked(q.Get("text_only")),
		PageBreaks:  checked(q.Get("page_breaks")),
		Output:      q.Get("output"),
		Page:        1,
	}
	if req.Mode == extract.ModeOCRTables {
		if v := strings.TrimSpace(q.Get("tesseract")); v != "" {
			req.Language = v
		}
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil {
		req.Page = p
	}
	if dpi, err := strconv.ParseFloat(q.Get("dpi"), 64); err == nil && dpi > 0 {
		req.DPI = dpi
	}
	return req
}

func checked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// statusCode maps a run outcome to an HTTP status for API clients
func statusCode(res *workbench.Result) int {
	switch res.Status {
	case workbench.StatusOK, workbench.StatusEmpty:
		return http.StatusOK
	case workbench.StatusInvalid:
		return http.StatusBadRequest
	case workbench.StatusMissing:
		return http.StatusNotFound
	case workbench.StatusUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

// downloadError reports a run that produced nothing to download
func downloadError(w http.ResponseWriter, res *workbench.Result) {
	code := statusCode(res)
	if res.Status == workbench.StatusEmpty {
		code = http.StatusNotFound
	}
	http.Error(w, res.Message, code)
}

// HandleRunFragment handles GET /documents/{id}/run and returns the result
// as an HTML fragment
func (s *Server) HandleRunFragment(w http.ResponseWriter, r *http.Request) {
	res := s.bench.Run(r.Context(), parseRequest(r.PathValue("id"), r.URL.Query()))
	if res.Status == workbench.StatusMissing {
		w.WriteHeader(http.StatusNotFound)
	}
	if err := renderFragment(w, "result", res); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// HandleRunJSON handles GET /api/documents/{id}/run
func (s *Server) HandleRunJSON(w http.ResponseWriter, r *http.Request) {
	res := s.bench.Run(r.Context(), parseRequest(r.PathValue("id"), r.URL.Query()))
	writeJSON(w, statusCode(res), res)
}

// HandleOCRDownload handles GET /documents/{id}/ocr.txt: every page OCR'd,
// separated by page markers, as a plain text attachment
func (s *Server) HandleOCRDownload(w http.ResponseWriter, r *http.Request) {
	req := parseRequest(r.PathValue("id"), r.URL.Query())
	req.Mode = extract.ModeOCRText
	req.PageMarkers = true
	if req.Backend == "" {
		req.Backend = "tesseract"
	}

	res := s.bench.Run(r.Context(), req)
	if !res.OK() {
		downloadError(w, res)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="extracted_text.txt"`)
	fmt.Fprint(w, res.Text)
}

// HandleTablesDownload handles GET /documents/{id}/tables.xlsx, one worksheet
// per normalized table
func (s *Server) HandleTablesDownload(w http.ResponseWriter, r *http.Request) {
	req := parseRequest(r.PathValue("id"), r.URL.Query())
	if req.Mode != extract.ModeOCRTables {
		req.Mode = extract.ModeTables
	}
	if req.Backend == "" {
		req.Backend = "tabula"
	}
	if req.Mode == extract.ModeOCRTables {
		req.Output = workbench.OutputTables
	}

	res := s.bench.Run(r.Context(), req)
	if !res.OK() {
		downloadError(w, res)
		return
	}
	var buf bytes.Buffer
	if err := table.WriteXLSX(&buf, res.Sheets()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	name := strings.TrimSuffix(res.Filename, filepath.Ext(res.Filename)) + "_tables.xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	buf.WriteTo(w)
}
