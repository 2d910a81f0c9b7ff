// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Run records one extraction attempt against a document
type Run struct {
	ID         int64     `json:"id"`
	DocumentID string    `json:"document_id"`
	Backend    string    `json:"backend"`
	Mode       string    `json:"mode"`
	Status     string    `json:"status"` // ok, empty, unavailable, failed
	DurationMS int64     `json:"duration_ms"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunStore keeps the extraction history shown next to each document
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a run store. The documents table must exist first.
func NewRunStore(db *sql.DB) (*RunStore, error) {
	store := &RunStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize runs schema: %w", err)
	}
	return store, nil
}

func (s *RunStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		backend TEXT NOT NULL,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		message TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_document ON runs(document_id, created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores a run
func (s *RunStore) Record(run *Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(
		"INSERT INTO runs (document_id, backend, mode, status, duration_ms, message, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		run.DocumentID, run.Backend, run.Mode, run.Status, run.DurationMS, run.Message, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	run.ID, _ = res.LastInsertId()
	return nil
}

// Recent returns the latest runs for a document, newest first
func (s *RunStore) Recent(documentID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		"SELECT id, document_id, backend, mode, status, duration_ms, COALESCE(message, ''), created_at FROM runs WHERE document_id = ? ORDER BY created_at DESC, id DESC LIMIT ?",
		documentID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.Backend, &r.Mode, &r.Status, &r.DurationMS, &r.Message, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
