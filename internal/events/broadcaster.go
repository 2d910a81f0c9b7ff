// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package events

import (
	"sync"
	"time"
)

// Event types pushed to browsers
const (
	TypeDocumentStaged  = "document_staged"
	TypeDocumentDeleted = "document_deleted"
	TypeRunStarted      = "run_started"
	TypeRunProgress     = "run_progress"
	TypeRunFinished     = "run_finished"
)

// Event is a progress or lifecycle notification
type Event struct {
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	DocumentID string    `json:"document_id,omitempty"`
	Backend    string    `json:"backend,omitempty"`
	Mode       string    `json:"mode,omitempty"`
	Done       int       `json:"done,omitempty"`
	Total      int       `json:"total,omitempty"`
	Status     string    `json:"status,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// Broadcaster fans events out to websocket subscribers
type Broadcaster struct {
	subscribers map[chan Event]bool
	mu          sync.RWMutex
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]bool),
	}
}

// Subscribe registers a buffered channel for a new subscriber
func (eb *Broadcaster) Subscribe() chan Event {
	ch := make(chan Event, 32)
	eb.mu.Lock()
	eb.subscribers[ch] = true
	eb.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel
func (eb *Broadcaster) Unsubscribe(ch chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.subscribers[ch] {
		delete(eb.subscribers, ch)
		close(ch)
	}
}

// Broadcast sends an event to all subscribers without blocking; a full
// subscriber misses the event
func (eb *Broadcaster) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Count returns the number of subscribers
func (eb *Broadcaster) Count() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}
