// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"bytes"
	"embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pdf-bench/internal/extract"
	"github.com/pdf-bench/internal/logger"
)

//go:embed templates/*
var templatesFS embed.FS

// Raw HTML in extracted markdown is escaped, never passed through
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var templateFuncs = template.FuncMap{
	"markdown":  renderMarkdown,
	"dataURI":   dataURI,
	"json":      prettyJSON,
	"modeLabel": func(m extract.Mode) string { return m.Label() },
	"pages":     pageNumbers,
	"size":      humanSize,
	"add":       func(a, b int) int { return a + b },
	"sub":       func(a, b float64) float64 { return a - b },
}

// renderTemplate renders tmplName inside the base layout
func renderTemplate(w http.ResponseWriter, tmplName string, data interface{}) error {
	tmpl, err := template.New("base.html").Funcs(templateFuncs).ParseFS(templatesFS,
		"templates/base.html", "templates/result.html", "templates/"+tmplName)
	if err != nil {
		logger.Errorf("Failed to parse template %s: %v", tmplName, err)
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		logger.Errorf("Failed to execute template %s: %v", tmplName, err)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	return err
}

// renderFragment renders one named template without the layout
func renderFragment(w http.ResponseWriter, name string, data interface{}) error {
	tmpl, err := template.New("result.html").Funcs(templateFuncs).ParseFS(templatesFS, "templates/result.html")
	if err != nil {
		logger.Errorf("Failed to parse fragment %s: %v", name, err)
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Errorf("Failed to execute fragment %s: %v", name, err)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	return err
}

func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(buf.String())
}

// dataURI inlines image bytes so results need no second request
func dataURI(img extract.Image) template.URL {
	return template.URL("data:" + mimeType(img.Format) + ";base64," + base64.StdEncoding.EncodeToString(img.Data))
}

func mimeType(format string) string {
	switch f := strings.ToLower(format); f {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "jpx", "jp2":
		return "image/jp2"
	case "":
		return "application/octet-stream"
	default:
		return "image/" + f
	}
}

func prettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(b)
}

// pageNumbers returns 1..n for the page selector
func pageNumbers(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
