// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pdf-bench/internal/events"
	"github.com/pdf-bench/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	// The workbench is a local tool served from a single origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketManager forwards broadcaster events to connected browsers
type WebSocketManager struct {
	broadcaster *events.Broadcaster
	mu          sync.Mutex
	conns       map[*websocket.Conn]struct{}
}

// NewWebSocketManager creates a manager fed by broadcaster
func NewWebSocketManager(broadcaster *events.Broadcaster) *WebSocketManager {
	return &WebSocketManager{
		broadcaster: broadcaster,
		conns:       make(map[*websocket.Conn]struct{}),
	}
}

// HandleWebSocket handles GET /api/ws. Each connection gets its own
// broadcaster subscription; events optionally filter on ?document=ID.
func (wm *WebSocketManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if wm.broadcaster == nil {
		http.Error(w, "Event stream unavailable", http.StatusServiceUnavailable)
		return
	}
	documentID := r.URL.Query().Get("document")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("[WS] Failed to upgrade connection: %v", err)
		return
	}

	wm.mu.Lock()
	wm.conns[conn] = struct{}{}
	wm.mu.Unlock()

	sub := wm.broadcaster.Subscribe()
	defer func() {
		wm.broadcaster.Unsubscribe(sub)
		wm.mu.Lock()
		delete(wm.conns, conn)
		wm.mu.Unlock()
		conn.Close()
		logger.Debugf("[WS] Client disconnected: %s", r.RemoteAddr)
	}()
	logger.Debugf("[WS] Client connected: %s", r.RemoteAddr)

	// The read loop only handles pongs and notices the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debugf("[WS] Read error: %v", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if documentID != "" && ev.DocumentID != "" && ev.DocumentID != documentID {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Count returns the number of open connections
func (wm *WebSocketManager) Count() int {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	return len(wm.conns)
}

// Stop closes every open connection
func (wm *WebSocketManager) Stop() {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	for conn := range wm.conns {
		conn.Close()
	}
	logger.Debugf("[WS] WebSocket manager stopped")
}
