package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"unifm/logger"
	"unifm/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API already allows any origin through the CORS middleware; the
	// websocket follows the same policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventHub broadcasts sync progress events to every connected websocket
// client. Implements the engine's notifier interface.
type EventHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[*websocket.Conn]bool)}
}

// Notify sends one event to all connected clients. Dead connections are
// dropped on write failure.
func (h *EventHub) Notify(event model.SyncEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Handler upgrades the request and keeps the connection registered until the
// client goes away.
func (h *EventHub) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", logger.ErrorField(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	// Reads are discarded; the socket is push-only. The read loop exists to
	// notice the peer closing.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
