// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setupStores(t *testing.T) (*DocumentStore, *RunStore, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "bench.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	docs, err := NewDocumentStore(db)
	if err != nil {
		t.Fatalf("NewDocumentStore failed: %v", err)
	}
	runs, err := NewRunStore(db)
	if err != nil {
		t.Fatalf("NewRunStore failed: %v", err)
	}
	return docs, runs, dir
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestDocumentStore_Lifecycle(t *testing.T) {
	docs, _, dir := setupStores(t)

	path := filepath.Join(dir, "report.pdf")
	writeFile(t, path)

	doc := &Document{Filename: "report.pdf", Path: path, SizeBytes: 8, PageCount: 3}
	if err := docs.Create(doc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if doc.ID == "" || doc.UploadedAt.IsZero() {
		t.Fatalf("Create did not assign ID and time: %+v", doc)
	}

	got, err := docs.Resolve(doc.ID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Filename != "report.pdf" || got.PageCount != 3 {
		t.Errorf("Unexpected document: %+v", got)
	}

	byPath, err := docs.FindByPath(path)
	if err != nil || byPath.ID != doc.ID {
		t.Errorf("FindByPath = %+v, %v", byPath, err)
	}

	if err := docs.Delete(doc.ID, true); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Staged file not removed")
	}
	if _, err := docs.Get(doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestDocumentStore_FileMissing(t *testing.T) {
	docs, _, dir := setupStores(t)

	doc := &Document{Filename: "gone.pdf", Path: filepath.Join(dir, "gone.pdf")}
	if err := docs.Create(doc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := docs.Resolve(doc.ID); !errors.Is(err, ErrFileMissing) {
		t.Errorf("Expected ErrFileMissing, got %v", err)
	}
}

func TestDocumentStore_ListNewestFirst(t *testing.T) {
	docs, _, dir := setupStores(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a.pdf", "b.pdf"} {
		doc := &Document{Filename: name, Path: filepath.Join(dir, name), UploadedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := docs.Create(doc); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	list, err := docs.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].Filename != "b.pdf" {
		t.Errorf("Expected b.pdf first, got %+v", list)
	}
}

func TestRunStore_RecordAndCascade(t *testing.T) {
	docs, runs, dir := setupStores(t)

	doc := &Document{Filename: "r.pdf", Path: filepath.Join(dir, "r.pdf")}
	if err := docs.Create(doc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for _, status := range []string{"ok", "empty"} {
		run := &Run{DocumentID: doc.ID, Backend: "mupdf", Mode: "text", Status: status, DurationMS: 12}
		if err := runs.Record(run); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if run.ID == 0 {
			t.Errorf("Record did not assign ID")
		}
	}

	recent, err := runs.Recent(doc.ID, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 || recent[0].Status != "empty" {
		t.Errorf("Expected newest run first, got %+v", recent)
	}

	if err := docs.Delete(doc.ID, false); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	recent, err = runs.Recent(doc.ID, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("Expected runs to cascade on delete, got %d", len(recent))
	}
}
