// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package extract

import (
	"fmt"
	"sort"
	"sync"
)

// Entry records one backend and whether it could be loaded at start-up
type Entry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	Reason      string `json:"reason,omitempty"`
	Modes       []Mode `json:"modes"`

	Backend Backend `json:"-"`
}

// Registry maps backend names to entries. Availability is resolved once, when a
// backend is registered, and never re-probed.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register adds a backend. Backends implementing Prober are probed here; a probe
// failure keeps the entry but marks it unavailable.
func (r *Registry) Register(b Backend) *Entry {
	e := &Entry{
		Name:        b.Name(),
		Description: b.Description(),
		Available:   true,
		Modes:       Modes(b),
		Backend:     b,
	}
	if p, ok := b.(Prober); ok {
		if err := p.Probe(); err != nil {
			e.Available = false
			e.Reason = err.Error()
		}
	}

	r.mu.Lock()
	r.entries[e.Name] = e
	r.mu.Unlock()
	return e
}

// Get resolves a backend by name. Unknown names return ErrUnknownBackend and
// unavailable backends return an *UnavailableError.
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	if !e.Available {
		return nil, &UnavailableError{Backend: e.Name, Reason: e.Reason}
	}
	return e.Backend, nil
}

// Resolve is Get plus a capability check for mode
func (r *Registry) Resolve(name string, mode Mode) (Backend, error) {
	b, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if !Supports(b, mode) {
		return nil, fmt.Errorf("%w: %s cannot run %q", ErrUnsupportedMode, name, mode)
	}
	return b, nil
}

// Supports reports whether the named backend is registered, available and able to run mode
func (r *Registry) Supports(name string, mode Mode) bool {
	_, err := r.Resolve(name, mode)
	return err == nil
}

// Entries returns a snapshot of every entry sorted by name
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ForMode lists the available backends that can run mode
func (r *Registry) ForMode(mode Mode) []string {
	var names []string
	for _, e := range r.Entries() {
		if e.Available && Supports(e.Backend, mode) {
			names = append(names, e.Name)
		}
	}
	return names
}
