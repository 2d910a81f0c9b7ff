// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for an unknown document ID
	ErrNotFound = errors.New("document not found")

	// ErrFileMissing is returned when a document row exists but its file is gone
	ErrFileMissing = errors.New("staged PDF file is missing")
)

// Document is a staged PDF
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Path       string    `json:"-"`
	SizeBytes  int64     `json:"size_bytes"`
	PageCount  int       `json:"page_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// DocumentStore persists staged documents in SQLite
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore creates a document store
func NewDocumentStore(db *sql.DB) (*DocumentStore, error) {
	store := &DocumentStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize documents schema: %w", err)
	}
	return store, nil
}

// initSchema creates the documents table if it doesn't exist
func (s *DocumentStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		path TEXT NOT NULL UNIQUE,
		size_bytes INTEGER NOT NULL,
		page_count INTEGER NOT NULL,
		uploaded_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON documents(uploaded_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Create stores doc, assigning an ID and upload time when they are unset
func (s *DocumentStore) Create(doc *Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		"INSERT INTO documents (id, filename, path, size_bytes, page_count, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)",
		doc.ID, doc.Filename, doc.Path, doc.SizeBytes, doc.PageCount, doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// Get returns the document with id
func (s *DocumentStore) Get(id string) (*Document, error) {
	row := s.db.QueryRow(
		"SELECT id, filename, path, size_bytes, page_count, uploaded_at FROM documents WHERE id = ?", id)
	return scanDocument(row)
}

// FindByPath returns the document stored at path
func (s *DocumentStore) FindByPath(path string) (*Document, error) {
	row := s.db.QueryRow(
		"SELECT id, filename, path, size_bytes, page_count, uploaded_at FROM documents WHERE path = ?", path)
	return scanDocument(row)
}

// Resolve is Get plus a check that the file is still on disk
func (s *DocumentStore) Resolve(id string) (*Document, error) {
	doc, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(doc.Path); err != nil {
		return doc, ErrFileMissing
	}
	return doc, nil
}

// List returns every document, newest first
func (s *DocumentStore) List() ([]Document, error) {
	rows, err := s.db.Query(
		"SELECT id, filename, path, size_bytes, page_count, uploaded_at FROM documents ORDER BY uploaded_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Filename, &d.Path, &d.SizeBytes, &d.PageCount, &d.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Delete removes the row and, when removeFile is set, the staged file
func (s *DocumentStore) Delete(id string, removeFile bool) error {
	doc, err := s.Get(id)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec("DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if removeFile {
		if err := os.Remove(doc.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", doc.Path, err)
		}
	}
	return nil
}

func scanDocument(row *sql.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.Filename, &d.Path, &d.SizeBytes, &d.PageCount, &d.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
