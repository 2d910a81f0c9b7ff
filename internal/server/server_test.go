// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pdf-bench/internal/database"
	"github.com/pdf-bench/internal/events"
	"github.com/pdf-bench/internal/extract"
	"github.com/pdf-bench/internal/staging"
	"github.com/pdf-bench/internal/table"
	"github.com/pdf-bench/internal/workbench"
)

const fakePDF = "%PDF-1.4\n%%EOF\n"

// benchLib is a backend with fixed answers
type benchLib struct{}

func (benchLib) Name() string { return "bench" }
func (benchLib) Description() string { return "fixed answers" }

func (benchLib) Text(ctx context.Context, path string, opts extract.TextOptions) (string, error) {
	return extract.JoinPages([]string{"first page", "second page"}, opts.PageMarkers), nil
}

func (benchLib) PageText(ctx context.Context, path string, page int) (string, error) {
	return "page text", nil
}

func (benchLib) Tables(ctx context.Context, path string, opts extract.TableOptions) ([]table.Raw, error) {
	return []table.Raw{{Page: 1, Index: 1, Rows: [][]string{{"Name", ""}, {"Alice", "30"}}}}, nil
}

func (benchLib) RecognizeText(ctx context.Context, path string, opts extract.OCROptions) (string, error) {
	return extract.JoinPages([]string{"ocr one", "ocr two"}, opts.PageMarkers), nil
}

func (benchLib) RecognizeTables(ctx context.Context, path string, opts extract.OCROptions) (extract.OCRLayout, error) {
	return extract.OCRLayout{}, nil
}

type testEnv struct {
	srv    *Server
	docs   *database.DocumentStore
	stager *staging.Stager
	eb     *events.Broadcaster
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := database.Open(filepath.Join(dir, "bench.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	docs, err := database.NewDocumentStore(db)
	if err != nil {
		t.Fatalf("NewDocumentStore failed: %v", err)
	}
	runs, err := database.NewRunStore(db)
	if err != nil {
		t.Fatalf("NewRunStore failed: %v", err)
	}

	eb := events.NewBroadcaster()
	stager := staging.NewStager(docs, eb, filepath.Join(dir, "uploads"))
	stager.SetPageCounter(func(string) (int, error) { return 2, nil })

	reg := extract.NewRegistry()
	reg.Register(benchLib{})
	bench := workbench.New(reg, docs, runs, eb, workbench.Options{})

	srv := New(Config{
		Documents:          docs,
		Runs:               runs,
		Stager:             stager,
		Workbench:          bench,
		Broadcaster:        eb,
		MaxUploadBytes:     1 << 20,
		TesseractLanguages: "eng+tur",
	})
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, docs: docs, stager: stager, eb: eb}
}

func (e *testEnv) stage(t *testing.T) *database.Document {
	t.Helper()
	doc, err := e.stager.Save("report.pdf", strings.NewReader(fakePDF))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return doc
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, "report.pdf", fakePDF)
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	env.srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Status = %d, want 303: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/documents/") {
		t.Errorf("Unexpected redirect %q", loc)
	}

	list, _ := env.docs.List()
	if len(list) != 1 || list[0].PageCount != 2 {
		t.Errorf("Unexpected documents after upload: %+v", list)
	}
}

func TestUpload_JSONAndRejections(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, "report.pdf", fakePDF)
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	env.srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want 201", rec.Code)
	}
	var doc database.Document
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil || doc.ID == "" {
		t.Errorf("Bad JSON document: %+v, %v", doc, err)
	}

	body, ct = multipartBody(t, "notes.txt", "hello")
	req = httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", ct)
	rec = httptest.NewRecorder()
	env.srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Non-PDF upload status = %d, want 400", rec.Code)
	}

	body, ct = multipartBody(t, "big.pdf", fakePDF+strings.Repeat("x", 2<<20))
	req = httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", ct)
	rec = httptest.NewRecorder()
	env.srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Oversized upload status = %d, want 413", rec.Code)
	}
}

func TestIndexAndDocumentPage(t *testing.T) {
	env := newTestEnv(t)
	doc := env.stage(t)

	rec := env.get(t, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "report.pdf") {
		t.Fatalf("Index missing document: %d", rec.Code)
	}

	rec = env.get(t, "/documents/"+doc.ID+"?backend=bench&mode=text&markers=on")
	if rec.Code != http.StatusOK {
		t.Fatalf("Document page status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"--- Page 1 ---", "second page", "status-ok", "Recent runs"} {
		if !strings.Contains(body, want) {
			t.Errorf("Document page missing %q", want)
		}
	}

	if rec := env.get(t, "/documents/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("Unknown document status = %d, want 404", rec.Code)
	}
}

func TestDocumentPage_FileMissing(t *testing.T) {
	env := newTestEnv(t)
	doc := env.stage(t)
	os.Remove(doc.Path)

	rec := env.get(t, "/documents/"+doc.ID)
	if !strings.Contains(rec.Body.String(), workbench.FileMissingMessage) {
		t.Errorf("Expected blocking message, got %s", rec.Body.String())
	}
	if rec := env.get(t, "/documents/"+doc.ID+"/file"); rec.Code != http.StatusNotFound {
		t.Errorf("File status = %d, want 404", rec.Code)
	}
}

func TestRunEndpoints(t *testing.T) {
	env := newTestEnv(t)
	doc := env.stage(t)

	rec := env.get(t, "/documents/"+doc.ID+"/run?backend=bench&mode=tables")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Column_2") {
		t.Errorf("Fragment missing normalized header: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.get(t, "/api/documents/"+doc.ID+"/run?backend=bench&mode=page&page=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("Run status = %d: %s", rec.Code, rec.Body.String())
	}
	var res workbench.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("Bad JSON: %v", err)
	}
	if res.Status != workbench.StatusOK || res.Text != "page text" {
		t.Errorf("Unexpected result: %+v", res)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"backend=bench&mode=page&page=3", http.StatusBadRequest},
		{"backend=bench&mode=render&page=1", http.StatusBadRequest},
		{"backend=nope&mode=text", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := env.get(t, "/api/documents/"+doc.ID+"/run?"+tt.query)
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.query, rec.Code, tt.want)
		}
	}

	if rec := env.get(t, "/api/documents/nope/run?backend=bench&mode=text"); rec.Code != http.StatusNotFound {
		t.Errorf("Unknown document status = %d, want 404", rec.Code)
	}
}

func TestDownloads(t *testing.T) {
	env := newTestEnv(t)
	doc := env.stage(t)

	rec := env.get(t, "/documents/"+doc.ID+"/ocr.txt?backend=bench&language=en")
	if rec.Code != http.StatusOK {
		t.Fatalf("OCR download status = %d: %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "extracted_text.txt") {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "--- Page 2 ---") {
		t.Errorf("OCR text missing page markers: %q", rec.Body.String())
	}

	rec = env.get(t, "/documents/"+doc.ID+"/tables.xlsx?backend=bench")
	if rec.Code != http.StatusOK {
		t.Fatalf("XLSX download status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("XLSX body is not a zip archive")
	}

	rec = env.get(t, "/documents/"+doc.ID+"/tables.xlsx?backend=bench&mode=ocr_tables")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Empty table download status = %d, want 404", rec.Code)
	}
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	doc := env.stage(t)

	req := httptest.NewRequest(http.MethodPost, "/documents/"+doc.ID+"/delete", nil)
	rec := httptest.NewRecorder()
	env.srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Delete status = %d", rec.Code)
	}
	if _, err := os.Stat(doc.Path); !os.IsNotExist(err) {
		t.Error("Uploaded file should be removed")
	}
	if _, err := env.docs.Get(doc.ID); err == nil {
		t.Error("Document row should be removed")
	}
}

func TestDelete_KeepsWatchedFile(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "watched.pdf")
	if err := os.WriteFile(path, []byte(fakePDF), 0644); err != nil {
		t.Fatal(err)
	}
	doc, err := env.stager.Register(path, "watched.pdf")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/documents/"+doc.ID+"/delete", nil)
	env.srv.Routes().ServeHTTP(httptest.NewRecorder(), req)
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Watched file should survive delete: %v", err)
	}
}

func TestAPIEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/api/v1/health")
	var health map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil || health["status"] != "up" {
		t.Errorf("Unexpected health: %v %v", health, err)
	}

	rec = env.get(t, "/api/backends")
	var backends backendsResponse
	if err := json.NewDecoder(rec.Body).Decode(&backends); err != nil {
		t.Fatalf("Bad JSON: %v", err)
	}
	if len(backends.Backends) != 1 || backends.Backends[0].Name != "bench" {
		t.Errorf("Unexpected backends: %+v", backends.Backends)
	}
	if len(backends.Languages) != 12 {
		t.Errorf("Expected 12 OCR languages, got %d", len(backends.Languages))
	}

	rec = env.get(t, "/api/documents")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("Expected empty list, got %s", rec.Body.String())
	}
}

func TestWebSocketForwardsEvents(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.srv.Routes())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws?document=doc-1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.eb.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	env.eb.Broadcast(events.Event{Type: events.TypeRunProgress, DocumentID: "other", Done: 9})
	env.eb.Broadcast(events.Event{Type: events.TypeRunProgress, DocumentID: "doc-1", Done: 1, Total: 2})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev events.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if ev.DocumentID != "doc-1" || ev.Done != 1 {
		t.Errorf("Expected filtered event for doc-1, got %+v", ev)
	}
}

func TestRenderHelpers(t *testing.T) {
	if got := mimeType("jpg"); got != "image/jpeg" {
		t.Errorf("mimeType(jpg) = %q", got)
	}
	if got := humanSize(1536); got != "1.5 KB" {
		t.Errorf("humanSize(1536) = %q", got)
	}
	html := string(renderMarkdown("| a | b |\n|---|---|\n| 1 | 2 |\n\n<script>x</script>"))
	if !strings.Contains(html, "<table>") {
		t.Errorf("Markdown tables not rendered: %s", html)
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("Raw HTML passed through: %s", html)
	}
	if got := pageNumbers(3); len(got) != 3 || got[2] != 3 {
		t.Errorf("pageNumbers(3) = %v", got)
	}
}
