// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package staging

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of write events on the same path into one
// callback once the path has been quiet for delay
type Debouncer struct {
	mu       sync.Mutex
	timers   map[string]*time.Timer
	callback func(string)
	delay    time.Duration
}

// NewDebouncer creates a debouncer with the given quiet period
func NewDebouncer(delay time.Duration, callback func(string)) *Debouncer {
	return &Debouncer{
		timers:   make(map[string]*time.Timer),
		callback: callback,
		delay:    delay,
	}
}

// Trigger schedules the callback for path, restarting any pending timer
func (d *Debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, exists := d.timers[path]; exists {
		timer.Stop()
	}

	d.timers[path] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, path)
		callback := d.callback
		d.mu.Unlock()

		if callback != nil {
			callback(path)
		}
	})
}

// Pending reports how many paths are waiting to fire
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Stop cancels all pending timers
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, timer := range d.timers {
		timer.Stop()
	}
	d.timers = make(map[string]*time.Timer)
}
