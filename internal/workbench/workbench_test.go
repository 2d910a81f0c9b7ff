// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package workbench

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pdf-bench/internal/database"
	"github.com/pdf-bench/internal/events"
	"github.com/pdf-bench/internal/extract"
	"github.com/pdf-bench/internal/table"
)

type fakeDocs map[string]*database.Document

func (f fakeDocs) Resolve(id string) (*database.Document, error) {
	doc, ok := f[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if doc.Path == "" {
		return doc, database.ErrFileMissing
	}
	return doc, nil
}

type fakeRuns struct {
	runs []*database.Run
}

func (f *fakeRuns) Record(run *database.Run) error {
	f.runs = append(f.runs, run)
	return nil
}

// fakeLib answers every mode from canned values
type fakeLib struct {
	text   string
	grids  []table.Raw
	err    error
	panics bool
}

func (f *fakeLib) Name() string { return "fake" }
func (f *fakeLib) Description() string { return "canned answers" }

func (f *fakeLib) Text(ctx context.Context, path string, opts extract.TextOptions) (string, error) {
	if f.panics {
		panic("boom")
	}
	if opts.PageMarkers {
		return extract.JoinPages([]string{f.text}, true), f.err
	}
	return f.text, f.err
}

func (f *fakeLib) PageText(ctx context.Context, path string, page int) (string, error) {
	return f.text, f.err
}

func (f *fakeLib) Search(ctx context.Context, path, query string) ([]extract.SearchHit, error) {
	if strings.Contains(f.text, query) {
		return []extract.SearchHit{{Page: 1, Count: 1, Boxes: []extract.Rect{{X1: 10, Y1: 10}}}}, nil
	}
	return nil, nil
}

func (f *fakeLib) Tables(ctx context.Context, path string, opts extract.TableOptions) ([]table.Raw, error) {
	return f.grids, f.err
}

func (f *fakeLib) Elements(ctx context.Context, path string, opts extract.ElementOptions) ([]extract.Element, error) {
	return []extract.Element{
		{Page: 1, Category: extract.CategoryTitle, Text: "Report"},
		{Page: 1, Category: extract.CategoryImage},
		{Page: 1, Category: extract.CategoryPageBreak},
		{Page: 2, Category: extract.CategoryNarrativeText, Text: "Body"},
	}, nil
}

func (f *fakeLib) RecognizeText(ctx context.Context, path string, opts extract.OCROptions) (string, error) {
	for i := 1; i <= 2; i++ {
		opts.Progress(i, 2)
	}
	return "ocr:" + opts.Language, nil
}

func (f *fakeLib) RecognizeTables(ctx context.Context, path string, opts extract.OCROptions) (extract.OCRLayout, error) {
	return extract.OCRLayout{Text: "words " + opts.Language, Tables: f.grids}, nil
}

type missingLib struct{ fakeLib }

func (m *missingLib) Name() string { return "missing" }
func (m *missingLib) Probe() error { return errors.New("library not installed") }

func setup(t *testing.T, lib *fakeLib) (*Workbench, *fakeRuns, *events.Broadcaster) {
	t.Helper()
	reg := extract.NewRegistry()
	reg.Register(lib)
	reg.Register(&missingLib{})

	docs := fakeDocs{
		"doc":  {ID: "doc", Filename: "a.pdf", Path: "/tmp/a.pdf", PageCount: 2},
		"gone": {ID: "gone", Filename: "b.pdf", PageCount: 1},
	}
	runs := &fakeRuns{}
	eb := events.NewBroadcaster()
	return New(reg, docs, runs, eb, Options{}), runs, eb
}

func TestRun_Classification(t *testing.T) {
	grid := table.Raw{Page: 1, Index: 1, Rows: [][]string{{"Name", "", "Name"}, {"Alice", "30", "Engineer"}}, Confidence: 80}

	tests := []struct {
		name    string
		lib     *fakeLib
		req     Request
		want    Status
		message string
	}{
		{"text ok", &fakeLib{text: "hello"}, Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeText}, StatusOK, ""},
		{"blank text is empty", &fakeLib{text: "  \n"}, Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeText}, StatusEmpty, "No text found."},
		{"library error", &fakeLib{err: errors.New("not a PDF")}, Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeText}, StatusFailed, "fake failed: not a PDF"},
		{"library panic", &fakeLib{panics: true}, Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeText}, StatusFailed, "fake failed: library panic: boom"},
		{"unknown document", &fakeLib{}, Request{DocumentID: "nope", Backend: "fake", Mode: extract.ModeText}, StatusMissing, "Document not found."},
		{"file missing", &fakeLib{}, Request{DocumentID: "gone", Backend: "fake", Mode: extract.ModeText}, StatusMissing, FileMissingMessage},
		{"unavailable backend", &fakeLib{}, Request{DocumentID: "doc", Backend: "missing", Mode: extract.ModeText}, StatusUnavailable, ""},
		{"unsupported mode", &fakeLib{}, Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeRender, Page: 1}, StatusInvalid, ""},
		{"page out of range", &fakeLib{text: "x"}, Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModePage, Page: 3}, StatusInvalid, ""},
		{"empty query", &fakeLib{text: "x"}, Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeSearch, Query: ""}, StatusInvalid, ErrEmptyQuery.Error()},
		{"blank query is searched literally", &fakeLib{text: "a b"}, Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeSearch, Query: " "}, StatusOK, ""},
		{"no matches", &fakeLib{text: "x"}, Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeSearch, Query: "y"}, StatusEmpty, "No matches found."},
		{"no tables", &fakeLib{}, Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeTables}, StatusEmpty, "No tables found."},
		{"tables ok", &fakeLib{grids: []table.Raw{grid}}, Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeTables}, StatusOK, ""},
		{"bad language", &fakeLib{}, Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeOCRText, Language: "xx"}, StatusInvalid, ""},
		{"bad tesseract string", &fakeLib{}, Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeOCRTables, Language: "eng tur"}, StatusInvalid, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb, _, _ := setup(t, tt.lib)
			res := wb.Run(context.Background(), tt.req)
			if res.Status != tt.want {
				t.Fatalf("Status = %s (%s), want %s", res.Status, res.Message, tt.want)
			}
			if tt.message != "" && res.Message != tt.message {
				t.Errorf("Message = %q, want %q", res.Message, tt.message)
			}
			if tt.want == StatusFailed && res.Hint == "" {
				t.Error("Failed runs should carry a hint")
			}
		})
	}
}

func TestRun_NormalizesTables(t *testing.T) {
	lib := &fakeLib{grids: []table.Raw{
		{Page: 1, Index: 1, Rows: [][]string{{"Name", "", "Name"}, {"Alice", "30", "Engineer"}}, Confidence: 80},
		{Page: 2, Index: 1},
	}}
	wb, _, _ := setup(t, lib)

	res := wb.Run(context.Background(), Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeTables, Flavor: "stream"})
	if len(res.Tables) != 1 {
		t.Fatalf("Expected empty grid to be dropped, got %d tables", len(res.Tables))
	}
	got := res.Tables[0]
	want := []string{"Name", "Column_2", "Name_1"}
	for i, c := range want {
		if got.Table.Columns[i] != c {
			t.Errorf("Column %d = %q, want %q", i, got.Table.Columns[i], c)
		}
	}
	if got.Confidence != 80 || got.Label() != "Page 1 Table 1" {
		t.Errorf("Unexpected metadata: %+v label %q", got, got.Label())
	}
	if sheets := res.Sheets(); len(sheets) != 1 || sheets[0].Name != "Page 1 Table 1" {
		t.Errorf("Unexpected sheets: %+v", sheets)
	}
}

func TestRun_ElementFilter(t *testing.T) {
	wb, _, _ := setup(t, &fakeLib{})

	all := wb.Run(context.Background(), Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeElements})
	filtered := wb.Run(context.Background(), Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeElements, TextOnly: true})

	if len(all.Elements) != 4 {
		t.Errorf("Expected 4 elements, got %d", len(all.Elements))
	}
	if len(filtered.Elements) != 3 {
		t.Fatalf("Expected image element to be filtered, got %+v", filtered.Elements)
	}
	for _, e := range filtered.Elements {
		if e.Category == extract.CategoryImage {
			t.Errorf("Image element survived the text filter")
		}
	}
}

func TestRun_OCRDefaultsAndProgress(t *testing.T) {
	wb, _, eb := setup(t, &fakeLib{grids: []table.Raw{{Page: 1, Index: 1, Rows: [][]string{{"a"}, {"b"}}}}})
	ch := eb.Subscribe()

	res := wb.Run(context.Background(), Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeOCRText})
	if res.Text != "ocr:tr" {
		t.Errorf("Expected default language tr, got %q", res.Text)
	}

	var progress []int
	for len(ch) > 0 {
		ev := <-ch
		if ev.Type == events.TypeRunProgress {
			progress = append(progress, ev.Done)
		}
	}
	if len(progress) != 2 || progress[1] != 2 {
		t.Errorf("Unexpected progress events: %v", progress)
	}

	res = wb.Run(context.Background(), Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeOCRTables, Output: OutputTables})
	if res.Text != "" || len(res.Tables) != 1 {
		t.Errorf("Tables-only output should drop text: %+v", res)
	}
	res = wb.Run(context.Background(), Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeOCRTables, Output: OutputText})
	if res.Text != "words eng+tur" || len(res.Tables) != 0 {
		t.Errorf("Text-only output should drop tables: %+v", res)
	}
}

func TestRun_RecordsHistory(t *testing.T) {
	wb, runs, _ := setup(t, &fakeLib{text: "hello"})

	wb.Run(context.Background(), Request{DocumentID: "doc", Backend: "fake", Mode: extract.ModeText})
	wb.Run(context.Background(), Request{DocumentID: "nope", Backend: "fake", Mode: extract.ModeText})

	if len(runs.runs) != 1 {
		t.Fatalf("Expected 1 recorded run, got %d", len(runs.runs))
	}
	if r := runs.runs[0]; r.DocumentID != "doc" || r.Status != string(StatusOK) || r.Mode != "text" {
		t.Errorf("Unexpected run: %+v", r)
	}
}
