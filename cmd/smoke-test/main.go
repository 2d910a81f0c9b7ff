// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"
)

var (
	baseURL = flag.String("url", "http://localhost:8080", "Workbench base URL")
	pdfPath = flag.String("file", "testdata/sample.pdf", "PDF to upload")
	query   = flag.String("query", "the", "Query for search runs")
	timeout = flag.Duration("timeout", 2*time.Minute, "Time to wait for run events")
)

type document struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	PageCount int    `json:"page_count"`
}

type backendList struct {
	Modes []struct {
		Mode     string   `json:"mode"`
		Backends []string `json:"backends"`
	} `json:"modes"`
}

type runResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Uploads a PDF to a running workbench, runs every available backend and
// mode against it, and checks that a run_finished event arrives for each.
func main() {
	flag.Parse()
	fmt.Println("🧪 Starting smoke test...")

	fmt.Println("Step 1: Uploading", *pdfPath)
	doc, err := upload(*baseURL, *pdfPath)
	if err != nil {
		fail("Failed to upload: %v", err)
	}
	fmt.Printf("✅ Staged %s as %s (%d pages)\n", doc.Filename, doc.ID, doc.PageCount)

	fmt.Println("Step 2: Connecting to WebSocket...")
	wsURL := websocketURL(*baseURL) + "/api/ws?document=" + url.QueryEscape(doc.ID)
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		fail("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()
	fmt.Println("✅ Connected to WebSocket")

	finished := make(chan struct{}, 64)
	go func() {
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					fmt.Printf("WebSocket error: %v\n", err)
				}
				return
			}
			var ev map[string]interface{}
			if err := json.Unmarshal(message, &ev); err != nil {
				continue
			}
			if ev["type"] == "run_finished" {
				finished <- struct{}{}
			}
		}
	}()

	fmt.Println("Step 3: Listing backends...")
	var backends backendList
	if err := getJSON(*baseURL+"/api/backends", &backends); err != nil {
		fail("Failed to list backends: %v", err)
	}

	fmt.Println("Step 4: Running every backend and mode...")
	runs, failures := 0, 0
	for _, m := range backends.Modes {
		for _, b := range m.Backends {
			params := url.Values{"backend": {b}, "mode": {m.Mode}, "page": {"1"}, "query": {*query}}
			var res runResult
			err := getJSON(fmt.Sprintf("%s/api/documents/%s/run?%s", *baseURL, doc.ID, params.Encode()), &res)
			runs++
			switch {
			case err != nil:
				failures++
				fmt.Printf("❌ %-10s %-12s %v\n", b, m.Mode, err)
			case res.Status == "ok" || res.Status == "empty":
				fmt.Printf("✅ %-10s %-12s %s\n", b, m.Mode, res.Status)
			default:
				fmt.Printf("⚠️  %-10s %-12s %s: %s\n", b, m.Mode, res.Status, res.Message)
			}
		}
	}

	fmt.Println("Step 5: Waiting for run events...")
	deadline := time.After(*timeout)
	for seen := 0; seen < runs; seen++ {
		select {
		case <-finished:
		case <-deadline:
			fail("Saw %d of %d run_finished events", seen, runs)
		}
	}
	fmt.Printf("✅ Received %d run_finished events\n", runs)

	if failures > 0 {
		fail("%d of %d requests failed", failures, runs)
	}
	fmt.Println("🎉 Smoke test passed")
}

func upload(base, path string) (*document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, base+"/documents", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var doc document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// getJSON decodes any response body; run endpoints encode the result on
// error statuses too
func getJSON(u string, v interface{}) error {
	resp, err := http.Get(u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 && resp.StatusCode != http.StatusServiceUnavailable {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func websocketURL(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	return u.String()
}

func fail(format string, args ...interface{}) {
	fmt.Printf("❌ "+format+"\n", args...)
	os.Exit(1)
}
