// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/pdf-bench/internal/database"
	"github.com/pdf-bench/internal/events"
	"github.com/pdf-bench/internal/logger"
	"github.com/pdf-bench/internal/staging"
	"github.com/pdf-bench/internal/workbench"
)

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// HandleUpload handles POST /documents (multipart field "file")
func (s *Server) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds the %d MB upload limit", s.maxUpload>>20))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds the %d MB upload limit", s.maxUpload>>20))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid upload: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	doc, err := s.stager.Save(header.Filename, file)
	if errors.Is(err, staging.ErrNotPDF) {
		writeError(w, http.StatusBadRequest, "please upload a PDF file")
		return
	}
	if err != nil {
		logger.Errorf("[UPLOAD] Failed to stage %s: %v", header.Filename, err)
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("could not read PDF: %v", err))
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, doc)
		return
	}
	http.Redirect(w, r, "/documents/"+doc.ID, http.StatusSeeOther)
}

// HandleDelete handles POST /documents/{id}/delete. Uploaded copies are
// removed from disk; files staged from the watch directory are left alone.
func (s *Server) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, err := s.docs.Get(id)
	if errors.Is(err, database.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := s.docs.Delete(id, s.stager.Owns(doc.Path)); err != nil {
		logger.Errorf("[DELETE] %s: %v", id, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	logger.Printf("[DELETE] Removed %s (%s)", doc.Filename, id)

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(events.Event{Type: events.TypeDocumentDeleted, DocumentID: id, Message: doc.Filename})
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleFile handles GET /documents/{id}/file, serving the PDF inline for
// the browser's viewer
func (s *Server) HandleFile(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docs.Resolve(r.PathValue("id"))
	if errors.Is(err, database.ErrFileMissing) {
		http.Error(w, workbench.FileMissingMessage, http.StatusNotFound)
		return
	}
	if err != nil {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(doc.Path)
	if err != nil {
		http.Error(w, workbench.FileMissingMessage, http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.Filename))
	http.ServeContent(w, r, doc.Filename, info.ModTime(), f)
}

// HandleListDocuments handles GET /api/documents
func (s *Server) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []database.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}
