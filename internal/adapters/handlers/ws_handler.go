package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/twmiller/dl-44/internal/grbl"
	"github.com/twmiller/dl-44/internal/middleware/logging"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The service binds to localhost for a local UI; origin checks add
	// nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans the controller snapshot out to websocket subscribers after
// each poll cycle.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	logger  *logging.Logger
}

func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		logger:  logger.WithPrefix("WSHUB"),
	}
}

// PublishSnapshot pushes one snapshot to every subscriber. A client that
// cannot keep up is dropped.
func (hub *Hub) PublishSnapshot(snap grbl.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		hub.logger.Error("Failed to serialize snapshot", "error", err)
		return
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()
	for conn := range hub.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			hub.logger.Debug("Dropping websocket client", "error", err)
			conn.Close()
			delete(hub.clients, conn)
		}
	}
}

func (hub *Hub) add(conn *websocket.Conn) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.clients[conn] = struct{}{}
}

func (hub *Hub) remove(conn *websocket.Conn) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if _, ok := hub.clients[conn]; ok {
		conn.Close()
		delete(hub.clients, conn)
	}
}

// SnapshotStream upgrades the connection and streams snapshots until the
// client goes away. The current snapshot is sent immediately so a new
// client does not wait for the next poll.
func (h *Handler) SnapshotStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Websocket upgrade failed", "error", err)
		return
	}

	h.logger.Info("Websocket client connected", "remote_addr", conn.RemoteAddr().String())

	h.hub.add(conn)
	if payload, err := json.Marshal(h.usecase.Snapshot()); err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}

	// Reads are only for detecting the close handshake.
	go func() {
		defer h.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.logger.Info("Websocket client disconnected", "remote_addr", conn.RemoteAddr().String())
				return
			}
		}
	}()
}
