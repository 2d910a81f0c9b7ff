// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"encoding/json"
	"net/http"

	"github.com/pdf-bench/internal/extract"
	"github.com/pdf-bench/internal/extract/ocr"
)

// writeJSON writes v with the given status code
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// HandleHealth handles GET /api/v1/health requests
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	available := 0
	entries := s.bench.Registry().Entries()
	for _, e := range entries {
		if e.Available {
			available++
		}
	}

	resp := map[string]interface{}{
		"status":             "up",
		"version":            s.version,
		"backends":           len(entries),
		"backends_available": available,
	}
	if s.metadata != nil {
		if days, err := s.metadata.DaysActive(); err == nil {
			resp["days_active"] = days
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// backendsResponse lists backends with their availability and the OCR languages
type backendsResponse struct {
	Backends  []extract.Entry `json:"backends"`
	Modes     []modeInfo      `json:"modes"`
	Languages []ocr.Language  `json:"languages"`
}

type modeInfo struct {
	Mode     extract.Mode `json:"mode"`
	Label    string       `json:"label"`
	Backends []string     `json:"backends"`
}

// HandleBackends handles GET /api/backends
func (s *Server) HandleBackends(w http.ResponseWriter, r *http.Request) {
	reg := s.bench.Registry()
	resp := backendsResponse{
		Backends:  reg.Entries(),
		Languages: ocr.Languages,
	}
	for _, m := range extract.AllModes {
		resp.Modes = append(resp.Modes, modeInfo{Mode: m, Label: m.Label(), Backends: reg.ForMode(m)})
	}
	writeJSON(w, http.StatusOK, resp)
}
