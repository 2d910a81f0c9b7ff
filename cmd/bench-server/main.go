// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pdf-bench/internal/config"
	"github.com/pdf-bench/internal/database"
	"github.com/pdf-bench/internal/events"
	"github.com/pdf-bench/internal/extract/backends"
	"github.com/pdf-bench/internal/logger"
	"github.com/pdf-bench/internal/server"
	"github.com/pdf-bench/internal/staging"
	"github.com/pdf-bench/internal/telemetry"
	"github.com/pdf-bench/internal/workbench"
)

var version = "dev"

var (
	configPath = flag.String("config", "bench.yaml", "Path to the YAML config file")
	httpPort   = flag.Int("http-port", 0, "HTTP server port (overrides config)")
	uploadDir  = flag.String("upload-dir", "", "Directory for uploaded PDFs (overrides config)")
	watchDir   = flag.String("watch-dir", "", "Stage PDFs dropped into this directory (overrides config)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	config.ApplyCLIFlags(cfg, *httpPort, *uploadDir, *watchDir)

	appLogger, err := logger.Init(cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Close()
	appLogger.SetLevel(logger.ParseLevel(cfg.Log.Level))

	ctx := context.Background()
	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry.Enabled, cfg.Telemetry.ServiceName)
	if err != nil {
		logger.Fatalf("failed to initialize telemetry: %v", err)
	}

	db, err := database.Open(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	docs, err := database.NewDocumentStore(db)
	if err != nil {
		logger.Fatalf("failed to initialize document store: %v", err)
	}
	runs, err := database.NewRunStore(db)
	if err != nil {
		logger.Fatalf("failed to initialize run store: %v", err)
	}
	metadata, err := database.NewMetadataStore(db)
	if err != nil {
		logger.Fatalf("failed to initialize metadata store: %v", err)
	}
	if err := metadata.EnsureFirstStart(); err != nil {
		logger.Warnf("failed to record first start: %v", err)
	}

	broadcaster := events.NewBroadcaster()
	stager := staging.NewStager(docs, broadcaster, cfg.Storage.UploadDir)

	var watcher *staging.Watcher
	if cfg.Staging.WatchDir != "" {
		watcher, err = staging.NewWatcher(cfg.Staging.WatchDir, stager)
		if err != nil {
			logger.Fatalf("failed to start watcher: %v", err)
		}
		watcher.Start(ctx)
	}

	registry := backends.NewRegistry()
	bench := workbench.New(registry, docs, runs, broadcaster, workbench.Options{
		DPI:                cfg.OCR.DPI,
		DefaultLanguage:    cfg.OCR.DefaultLanguage,
		TesseractLanguages: cfg.OCR.TesseractLanguages,
	})

	srv := server.New(server.Config{
		Documents:          docs,
		Runs:               runs,
		Metadata:           metadata,
		Stager:             stager,
		Workbench:          bench,
		Broadcaster:        broadcaster,
		MaxUploadBytes:     cfg.MaxUploadBytes(),
		TesseractLanguages: cfg.OCR.TesseractLanguages,
		Version:            version,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Printf("HTTP server listening on %d", cfg.HTTP.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	waitForShutdown(httpServer, func() {
		srv.Close()
		if watcher != nil {
			watcher.Stop()
		}
	}, shutdownTracing)
}

func waitForShutdown(httpServer *http.Server, stopBackground func(), shutdownTracing telemetry.Shutdown) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Printf("Shutting down server...")

	stopBackground()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("HTTP shutdown error: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Warnf("Telemetry shutdown error: %v", err)
	}
}
