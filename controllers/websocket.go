package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/ReyCannavaro/urbangrow/events"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 5 * time.Second
	wsSendBuffer = 16
)

// wsClient is one live-feed socket. Only its writer goroutine writes to conn.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps the open live-feed sockets and broadcasts events to them.
// Publish never blocks on a socket: a client whose buffer is full is dropped.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewHub returns an empty hub accepting any origin.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger:  logger.Named("ws"),
		clients: make(map[*wsClient]struct{}),
	}
}

// GET /ws
func (h *Hub) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client joined", zap.String("remote", conn.RemoteAddr().String()))

	go h.writeLoop(client)
	defer h.drop(client)

	// Drain client frames so close and ping frames are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(client *wsClient) {
	defer client.conn.Close()
	for msg := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("dropping websocket client", zap.Error(err))
			h.drop(client)
			return
		}
	}
	client.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
		time.Now().Add(wsWriteWait))
}

// Publish queues ev for every connected client.
func (h *Hub) Publish(_ context.Context, ev events.Event) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			h.logger.Warn("websocket client too slow, dropping",
				zap.String("remote", client.conn.RemoteAddr().String()))
			h.remove(client)
		}
	}
	return nil
}

// Clients returns the number of connected sockets.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.remove(client)
	}
}

func (h *Hub) drop(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(client)
}

// remove must be called with mu held. Closing send stops the writer, which
// closes the socket.
func (h *Hub) remove(client *wsClient) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
}
