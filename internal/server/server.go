// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package server is the browser surface of the workbench: upload, document
// pages, run results, downloads and the progress/log streams.
package server

import (
	"net/http"

	"github.com/pdf-bench/internal/database"
	"github.com/pdf-bench/internal/events"
	"github.com/pdf-bench/internal/server/middleware"
	"github.com/pdf-bench/internal/staging"
	"github.com/pdf-bench/internal/workbench"
)

// Server holds the handler dependencies
type Server struct {
	docs        *database.DocumentStore
	runs        *database.RunStore
	metadata    *database.MetadataStore
	stager      *staging.Stager
	bench       *workbench.Workbench
	broadcaster *events.Broadcaster
	ws          *WebSocketManager
	maxUpload   int64
	tesseract   string
	version     string
}

// Config wires a Server
type Config struct {
	Documents      *database.DocumentStore
	Runs           *database.RunStore
	Metadata       *database.MetadataStore // optional
	Stager         *staging.Stager
	Workbench      *workbench.Workbench
	Broadcaster    *events.Broadcaster
	MaxUploadBytes int64
	// TesseractLanguages prefills the OCR tables language field
	TesseractLanguages string
	Version            string
}

// New creates a server
func New(cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 50 << 20
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	return &Server{
		docs:        cfg.Documents,
		runs:        cfg.Runs,
		metadata:    cfg.Metadata,
		stager:      cfg.Stager,
		bench:       cfg.Workbench,
		broadcaster: cfg.Broadcaster,
		ws:          NewWebSocketManager(cfg.Broadcaster),
		maxUpload:   cfg.MaxUploadBytes,
		tesseract:   cfg.TesseractLanguages,
		version:     cfg.Version,
	}
}

// Routes returns the HTTP handler for the whole application
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.HandleIndex)
	mux.HandleFunc("POST /documents", s.HandleUpload)
	mux.HandleFunc("POST /documents/{id}/delete", s.HandleDelete)
	mux.HandleFunc("GET /documents/{id}", s.HandleDocument)
	mux.HandleFunc("GET /documents/{id}/file", s.HandleFile)
	mux.HandleFunc("GET /documents/{id}/run", s.HandleRunFragment)
	mux.HandleFunc("GET /documents/{id}/ocr.txt", s.HandleOCRDownload)
	mux.HandleFunc("GET /documents/{id}/tables.xlsx", s.HandleTablesDownload)

	mux.HandleFunc("GET /api/documents", s.HandleListDocuments)
	mux.HandleFunc("GET /api/documents/{id}/run", s.HandleRunJSON)
	mux.HandleFunc("GET /api/backends", s.HandleBackends)
	mux.HandleFunc("GET /api/v1/health", s.HandleHealth)
	mux.HandleFunc("GET /api/logs/stream", HandleLogStream)
	mux.HandleFunc("GET /api/ws", s.ws.HandleWebSocket)

	return middleware.TrafficLogger(mux)
}

// Close stops background connections
func (s *Server) Close() {
	s.ws.Stop()
}
