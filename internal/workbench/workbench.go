// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package workbench dispatches one extraction request to the chosen backend and
// turns whatever comes back into a Result the display layer can render.
// Every failure is contained in the Result; Run never panics or aborts.
package workbench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pdf-bench/internal/database"
	"github.com/pdf-bench/internal/events"
	"github.com/pdf-bench/internal/extract"
	"github.com/pdf-bench/internal/extract/layout"
	"github.com/pdf-bench/internal/extract/ocr"
	"github.com/pdf-bench/internal/logger"
	"github.com/pdf-bench/internal/table"
	"github.com/pdf-bench/internal/telemetry"
)

// ErrEmptyQuery is returned for a search without a query
var ErrEmptyQuery = errors.New("search query is empty")

// DocumentResolver looks up a staged document and checks its file
type DocumentResolver interface {
	Resolve(id string) (*database.Document, error)
}

// RunRecorder stores the run history
type RunRecorder interface {
	Record(run *database.Run) error
}

// Options holds the defaults applied to requests that leave them unset
type Options struct {
	DPI                float64
	DefaultLanguage    string // closed-set code for OCR text
	TesseractLanguages string // free-form string for OCR tables
}

// Workbench runs extraction requests against the registry
type Workbench struct {
	registry    *extract.Registry
	docs        DocumentResolver
	runs        RunRecorder
	broadcaster *events.Broadcaster
	tracer      trace.Tracer
	opts        Options
}

// New creates a workbench. runs and broadcaster may be nil.
func New(registry *extract.Registry, docs DocumentResolver, runs RunRecorder, broadcaster *events.Broadcaster, opts Options) *Workbench {
	if opts.DPI <= 0 {
		opts.DPI = ocr.DefaultDPI
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = ocr.DefaultLanguage
	}
	if opts.TesseractLanguages == "" {
		opts.TesseractLanguages = "eng+tur"
	}
	return &Workbench{
		registry:    registry,
		docs:        docs,
		runs:        runs,
		broadcaster: broadcaster,
		tracer:      telemetry.Tracer(),
		opts:        opts,
	}
}

// Registry returns the backend registry
func (w *Workbench) Registry() *extract.Registry {
	return w.registry
}

// Run executes one request
func (w *Workbench) Run(ctx context.Context, req Request) *Result {
	start := time.Now()
	res := &Result{
		DocumentID: req.DocumentID,
		Backend:    req.Backend,
		Mode:       req.Mode,
	}

	ctx, span := w.tracer.Start(ctx, "workbench.run", trace.WithAttributes(
		attribute.String("bench.backend", req.Backend),
		attribute.String("bench.mode", string(req.Mode)),
		attribute.String("bench.document_id", req.DocumentID),
	))
	defer span.End()

	if w.broadcaster != nil {
		w.broadcaster.Broadcast(events.Event{
			Type:       events.TypeRunStarted,
			DocumentID: req.DocumentID,
			Backend:    req.Backend,
			Mode:       string(req.Mode),
		})
	}

	w.execute(ctx, req, res)

	res.Duration = time.Since(start)
	span.SetAttributes(attribute.String("bench.status", string(res.Status)))
	if res.Status == StatusFailed {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Message)
	}

	w.record(res)
	return res
}

func (w *Workbench) execute(ctx context.Context, req Request, res *Result) {
	doc, err := w.docs.Resolve(req.DocumentID)
	if err != nil {
		res.Status = StatusMissing
		res.Err = err
		if errors.Is(err, database.ErrFileMissing) {
			res.Message = FileMissingMessage
		} else {
			res.Message = "Document not found."
		}
		return
	}
	res.Filename = doc.Filename

	backend, err := w.registry.Resolve(req.Backend, req.Mode)
	if err != nil {
		res.Err = err
		res.Message = err.Error()
		if extract.IsUnavailable(err) {
			res.Status = StatusUnavailable
		} else {
			res.Status = StatusInvalid
		}
		return
	}

	if err := w.validate(req, doc); err != nil {
		res.Status = StatusInvalid
		res.Err = err
		res.Message = err.Error()
		return
	}

	if err := w.call(ctx, backend, doc, req, res); err != nil {
		res.Err = err
		switch {
		case errors.Is(err, ocr.ErrUnknownLanguage), errors.Is(err, ocr.ErrInvalidLanguageSpec),
			errors.Is(err, extract.ErrPageOutOfRange), errors.Is(err, ErrEmptyQuery),
			errors.Is(err, layout.ErrInvalidFlavor):
			res.Status = StatusInvalid
			res.Message = err.Error()
		case errors.Is(err, ocr.ErrOCRNotEnabled):
			res.Status = StatusUnavailable
			res.Message = err.Error()
		default:
			res.Status = StatusFailed
			res.Message = fmt.Sprintf("%s failed: %v", req.Backend, err)
			res.Hint = failureHint(req.Mode)
		}
		logger.Warnf("[WORKBENCH] %s/%s on %s: %v", req.Backend, req.Mode, doc.ID, err)
		return
	}

	if res.empty() {
		res.Status = StatusEmpty
		res.Message = emptyMessage(req.Mode)
		return
	}
	res.Status = StatusOK
}

// validate checks parameters before any library is called
func (w *Workbench) validate(req Request, doc *database.Document) error {
	switch req.Mode {
	case extract.ModePage, extract.ModeRender:
		return extract.CheckPage(req.Page, doc.PageCount)
	case extract.ModeSearch:
		if req.Query == "" {
			return ErrEmptyQuery
		}
	case extract.ModeOCRText:
		if req.Language != "" {
			if _, err := ocr.LookupLanguage(req.Language); err != nil {
				return err
			}
		}
	case extract.ModeOCRTables:
		if req.Language != "" {
			if err := ocr.ValidateTesseract(req.Language); err != nil {
				return err
			}
		}
		switch req.Output {
		case "", OutputText, OutputTables, OutputBoth:
		default:
			return fmt.Errorf("unknown OCR output %q", req.Output)
		}
	}
	return nil
}

// call invokes the backend capability for the mode. A panicking library is
// reported as a failure.
func (w *Workbench) call(ctx context.Context, backend extract.Backend, doc *database.Document, req Request, res *Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("library panic: %v", r)
		}
	}()

	path := doc.Path
	switch req.Mode {
	case extract.ModeText:
		res.Text, err = backend.(extract.TextExtractor).Text(ctx, path, extract.TextOptions{PageMarkers: req.PageMarkers})

	case extract.ModePage:
		res.Text, err = backend.(extract.PageExtractor).PageText(ctx, path, req.Page)

	case extract.ModeMarkdown:
		res.Pages, err = backend.(extract.MarkdownExtractor).Markdown(ctx, path)

	case extract.ModeStructure:
		res.Structure, err = backend.(extract.StructureExtractor).Structure(ctx, path)

	case extract.ModeSearch:
		res.Hits, err = backend.(extract.Searcher).Search(ctx, path, req.Query)

	case extract.ModeTables:
		var raws []table.Raw
		raws, err = backend.(extract.TableExtractor).Tables(ctx, path, extract.TableOptions{Flavor: req.Flavor})
		res.Tables = normalizeAll(raws)

	case extract.ModeImages:
		res.Images, err = backend.(extract.ImageExtractor).Images(ctx, path)

	case extract.ModeRender:
		var img extract.Image
		img, err = backend.(extract.Renderer).Render(ctx, path, req.Page, w.dpi(req))
		if err == nil {
			res.Images = []extract.Image{img}
		}

	case extract.ModeElements:
		res.Elements, err = backend.(extract.ElementExtractor).Elements(ctx, path, extract.ElementOptions{PageBreaks: req.PageBreaks})
		if req.TextOnly {
			res.Elements = FilterText(res.Elements)
		}

	case extract.ModeOCRText:
		lang := req.Language
		if lang == "" {
			lang = w.opts.DefaultLanguage
		}
		res.Text, err = backend.(extract.Recognizer).RecognizeText(ctx, path, extract.OCROptions{
			Language:    lang,
			DPI:         w.dpi(req),
			PageMarkers: req.PageMarkers,
			Progress:    w.progress(req),
		})

	case extract.ModeOCRTables:
		lang := req.Language
		if lang == "" {
			lang = w.opts.TesseractLanguages
		}
		var layout extract.OCRLayout
		layout, err = backend.(extract.Recognizer).RecognizeTables(ctx, path, extract.OCROptions{
			Language: lang,
			DPI:      w.dpi(req),
			Progress: w.progress(req),
		})
		if req.Output != OutputTables {
			res.Text = layout.Text
		}
		if req.Output != OutputText {
			res.Tables = normalizeAll(layout.Tables)
		}

	default:
		err = fmt.Errorf("%w: %s", extract.ErrUnsupportedMode, req.Mode)
	}
	return err
}

func (w *Workbench) dpi(req Request) float64 {
	if req.DPI > 0 {
		return req.DPI
	}
	return w.opts.DPI
}

// progress forwards per-page OCR progress to websocket subscribers
func (w *Workbench) progress(req Request) extract.ProgressFunc {
	return func(done, total int) {
		logger.Debugf("[WORKBENCH] %s page %d/%d", req.Mode, done, total)
		if w.broadcaster == nil {
			return
		}
		w.broadcaster.Broadcast(events.Event{
			Type:       events.TypeRunProgress,
			DocumentID: req.DocumentID,
			Backend:    req.Backend,
			Mode:       string(req.Mode),
			Done:       done,
			Total:      total,
		})
	}
}

func (w *Workbench) record(res *Result) {
	logger.Printf("[WORKBENCH] %s/%s on %s: %s in %v", res.Backend, res.Mode, res.DocumentID, res.Status, res.Duration.Round(time.Millisecond))

	if w.broadcaster != nil {
		w.broadcaster.Broadcast(events.Event{
			Type:       events.TypeRunFinished,
			DocumentID: res.DocumentID,
			Backend:    res.Backend,
			Mode:       string(res.Mode),
			Status:     string(res.Status),
			Message:    res.Message,
		})
	}

	// Runs against unknown documents have nothing to attach to
	if w.runs == nil || res.Status == StatusMissing {
		return
	}
	err := w.runs.Record(&database.Run{
		DocumentID: res.DocumentID,
		Backend:    res.Backend,
		Mode:       string(res.Mode),
		Status:     string(res.Status),
		DurationMS: res.Duration.Milliseconds(),
		Message:    res.Message,
	})
	if err != nil {
		logger.Errorf("[WORKBENCH] Failed to record run: %v", err)
	}
}

// normalizeAll runs every raw grid through the table normalizer
func normalizeAll(raws []table.Raw) []TableResult {
	out := make([]TableResult, 0, len(raws))
	for _, raw := range raws {
		t := table.Normalize(raw.Rows)
		if t.Empty() {
			continue
		}
		out = append(out, TableResult{
			Page:       raw.Page,
			Index:      raw.Index,
			Confidence: raw.Confidence,
			Whitespace: raw.Whitespace,
			Table:      t,
		})
	}
	return out
}

// FilterText keeps only text-bearing elements and page breaks
func FilterText(elements []extract.Element) []extract.Element {
	var out []extract.Element
	for _, e := range elements {
		if extract.TextCategories[e.Category] || e.Category == extract.CategoryPageBreak {
			out = append(out, e)
		}
	}
	return out
}
