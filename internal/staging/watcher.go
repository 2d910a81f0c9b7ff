// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package staging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pdf-bench/internal/logger"
)

// DebounceDelay is how long a dropped file must stay quiet before staging
const DebounceDelay = 500 * time.Millisecond

// Watcher stages PDFs dropped into a directory
type Watcher struct {
	dir       string
	stager    *Stager
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	wg        sync.WaitGroup
	cancel    context.CancelFunc
}

// NewWatcher creates a watcher on dir, creating the directory if needed
func NewWatcher(dir string, stager *Stager) (*Watcher, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create watch directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(absDir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", absDir, err)
	}

	w := &Watcher{
		dir:     absDir,
		stager:  stager,
		watcher: fw,
	}
	w.debouncer = NewDebouncer(DebounceDelay, w.stage)
	return w, nil
}

// Start scans existing files and processes events until ctx is cancelled or
// Stop is called
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	logger.Printf("[STAGING] Watching directory: %s", w.dir)
	w.scanExisting()

	w.wg.Add(1)
	go w.processEvents(ctx)
}

// Stop stops the watcher and waits for the event loop to exit
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.debouncer.Stop()
	if err := w.watcher.Close(); err != nil {
		logger.Warnf("[STAGING] Error closing watcher: %v", err)
	}
	w.wg.Wait()
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if IsPDF(event.Name) {
				w.debouncer.Trigger(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Errorf("[STAGING] Watcher error for %s: %v", w.dir, err)
		}
	}
}

// scanExisting stages PDFs already present when the watcher starts
func (w *Watcher) scanExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		logger.Errorf("[STAGING] Error scanning %s: %v", w.dir, err)
		return
	}
	for _, e := range entries {
		if !e.IsDir() && IsPDF(e.Name()) {
			w.debouncer.Trigger(filepath.Join(w.dir, e.Name()))
		}
	}
}

func (w *Watcher) stage(path string) {
	if _, err := w.stager.Register(path, filepath.Base(path)); err != nil {
		logger.Warnf("[STAGING] Skipping %s: %v", path, err)
	}
}
