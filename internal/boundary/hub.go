package boundary

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans events out to every connected WebSocket client. Adapted from
// the teacher's web/server.go WebSocketHub: same register/unregister/
// broadcast channel shape, narrowed to broadcast-only (no per-client
// send queues) since every payload here is a small JSON event, not the
// periodic full-graph snapshot the teacher's hub also pushes.
type Hub struct {
	logger     *zap.Logger
	mu         sync.RWMutex
	clients    map[*websocket.Conn]bool
	broadcast  chan any
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
}

// NewHub constructs a Hub with a broadcast channel of the given buffer
// size.
func NewHub(bufferSize int, logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan any, bufferSize),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Run drains register/unregister/broadcast until stop is closed. Like
// the teacher's hub.run(), this must execute on its own goroutine for
// the Hub's lifetime.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()
		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()
		case payload := <-h.broadcast:
			h.fanOut(payload)
		}
	}
}

func (h *Hub) fanOut(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal broadcast payload", zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Broadcast queues payload for delivery to every connected client. If
// the broadcast channel is full the payload is dropped rather than
// blocking the caller — event streaming is best-effort, unlike the
// worker's command channel.
func (h *Hub) Broadcast(payload any) {
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("dropped broadcast payload, hub buffer full")
	}
}

// ServeWS upgrades an HTTP request to a WebSocket and registers the
// connection with the hub, blocking until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	h.register <- conn
	defer func() { h.unregister <- conn }()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
