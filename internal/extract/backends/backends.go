// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package backends registers every extraction library the bench ships with.
package backends

import (
	"github.com/pdf-bench/internal/extract"
	"github.com/pdf-bench/internal/extract/images"
	"github.com/pdf-bench/internal/extract/layout"
	"github.com/pdf-bench/internal/extract/mupdf"
	"github.com/pdf-bench/internal/extract/ocr"
	"github.com/pdf-bench/internal/extract/plain"
	"github.com/pdf-bench/internal/logger"
)

// NewRegistry probes and registers all backends. Availability is fixed from
// here on.
func NewRegistry() *extract.Registry {
	reg := extract.NewRegistry()
	for _, b := range []extract.Backend{
		mupdf.New(),
		plain.New(),
		images.New(),
		layout.New(),
		ocr.New(),
	} {
		e := reg.Register(b)
		if e.Available {
			logger.Printf("[BACKENDS] %s available: %d modes", e.Name, len(e.Modes))
		} else {
			logger.Warnf("[BACKENDS] %s unavailable: %s", e.Name, e.Reason)
		}
	}
	return reg
}
