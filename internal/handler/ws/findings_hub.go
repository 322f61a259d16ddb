// Package ws pushes completed evaluations to dashboard clients over WebSocket.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"FinAudit/internal/domain/models"
	domrepo "FinAudit/internal/domain/repository"
	applogger "FinAudit/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 32
)

// Message is one frame sent to subscribers.
type Message struct {
	Type     string                   `json:"type"`
	Summary  models.EvaluationSummary `json:"summary"`
	Findings []models.Finding         `json:"findings"`
}

type client struct {
	conn *websocket.Conn
	send chan Message
}

// FindingsHub fans evaluations out to connected WebSocket clients. Slow
// clients drop frames instead of blocking evaluation.
type FindingsHub struct {
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	l            *applogger.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewFindingsHub(l *applogger.Logger, pingInterval time.Duration) *FindingsHub {
	if l == nil {
		l = applogger.NewNop()
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &FindingsHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		pingInterval: pingInterval,
		l:            l,
		clients:      make(map[*client]struct{}),
	}
}

func (h *FindingsHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/findings", h.Serve)
}

// Serve upgrades the request and streams evaluations until the client leaves.
func (h *FindingsHub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Warn("websocket upgrade failed", applogger.Error(err))
		return nil
	}

	cl := &client{conn: conn, send: make(chan Message, sendBuffer)}
	h.add(cl)
	h.l.Debug("websocket client connected", applogger.String("remote", c.RealIP()))

	go h.writeLoop(cl)
	h.readLoop(cl)
	return nil
}

// readLoop discards client frames and returns when the connection closes.
func (h *FindingsHub) readLoop(cl *client) {
	defer h.remove(cl)

	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *FindingsHub) writeLoop(cl *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := cl.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *FindingsHub) add(cl *client) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
}

func (h *FindingsHub) remove(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	h.mu.Unlock()
}

// Clients returns the number of connected subscribers.
func (h *FindingsHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast implements repository.Broadcaster.
func (h *FindingsHub) Broadcast(e *models.Evaluation) {
	msg := Message{Type: "evaluation", Summary: e.Summary(), Findings: e.Anomaly.Findings}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients {
		select {
		case cl.send <- msg:
		default:
			h.l.Warn("websocket client lagging, frame dropped")
		}
	}
}

// Close disconnects every client.
func (h *FindingsHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		delete(h.clients, cl)
		close(cl.send)
	}
}

var _ domrepo.Broadcaster = (*FindingsHub)(nil)
