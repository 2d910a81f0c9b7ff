// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package staging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdf-bench/internal/database"
	"github.com/pdf-bench/internal/events"
	"github.com/pdf-bench/internal/extract/images"
	"github.com/pdf-bench/internal/extract/mupdf"
	"github.com/pdf-bench/internal/logger"
)

// ErrNotPDF is returned for files that do not start with the PDF header
var ErrNotPDF = errors.New("file is not a PDF")

// PageCounter returns the number of pages in the PDF at path
type PageCounter func(path string) (int, error)

// CountPages asks pdfcpu first and falls back to MuPDF, which tolerates
// more damaged files
func CountPages(path string) (int, error) {
	n, err := images.PageCount(path)
	if err == nil && n > 0 {
		return n, nil
	}
	logger.Debugf("[STAGING] pdfcpu page count failed for %s: %v", path, err)

	n, ferr := mupdf.PageCount(path)
	if ferr != nil {
		return 0, fmt.Errorf("failed to count pages: %w", ferr)
	}
	return n, nil
}

// Stager registers PDFs as documents, from uploads or the watch directory
type Stager struct {
	docs        *database.DocumentStore
	broadcaster *events.Broadcaster
	uploadDir   string
	countPages  PageCounter
}

// NewStager creates a stager that saves uploads under uploadDir
func NewStager(docs *database.DocumentStore, broadcaster *events.Broadcaster, uploadDir string) *Stager {
	return &Stager{
		docs:        docs,
		broadcaster: broadcaster,
		uploadDir:   uploadDir,
		countPages:  CountPages,
	}
}

// SetPageCounter replaces the page counter
func (s *Stager) SetPageCounter(fn PageCounter) {
	s.countPages = fn
}

// Save copies an uploaded PDF into the upload directory and registers it
func (s *Stager) Save(filename string, r io.Reader) (*database.Document, error) {
	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	base := filepath.Base(filename)
	if !IsPDF(base) {
		return nil, ErrNotPDF
	}

	f, err := os.CreateTemp(s.uploadDir, "upload-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	path := f.Name()

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, err
	}

	doc, err := s.Register(path, base)
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	return doc, nil
}

// Owns reports whether path was saved by this stager, as opposed to a file
// staged in place from the watch directory
func (s *Stager) Owns(path string) bool {
	return filepath.Clean(filepath.Dir(path)) == filepath.Clean(s.uploadDir)
}

// Register records the PDF at path under the display name filename. A path
// that is already registered returns the existing document.
func (s *Stager) Register(path, filename string) (*database.Document, error) {
	if existing, err := s.docs.FindByPath(path); err == nil {
		return existing, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := checkHeader(path); err != nil {
		return nil, err
	}

	pages, err := s.countPages(path)
	if err != nil {
		return nil, err
	}

	doc := &database.Document{
		Filename:  filename,
		Path:      path,
		SizeBytes: info.Size(),
		PageCount: pages,
	}
	if err := s.docs.Create(doc); err != nil {
		return nil, err
	}

	logger.Printf("[STAGING] Registered %s (%d pages) as %s", filename, pages, doc.ID)
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(events.Event{
			Type:       events.TypeDocumentStaged,
			DocumentID: doc.ID,
			Total:      pages,
			Message:    filename,
		})
	}
	return doc, nil
}

// IsPDF reports whether name looks like a PDF the watcher should pick up
func IsPDF(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, "._") || strings.HasPrefix(base, ".") {
		return false
	}
	if strings.HasSuffix(strings.ToLower(base), ".tmp") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".pdf")
}

func checkHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	head := make([]byte, 5)
	if _, err := io.ReadFull(f, head); err != nil || string(head) != "%PDF-" {
		return ErrNotPDF
	}
	return nil
}
