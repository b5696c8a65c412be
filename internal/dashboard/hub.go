package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/domain/jobModel"
	"github.com/akolanti/MLServe/pkg/logger_i"
	"github.com/gorilla/websocket"
)

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn    *websocket.Conn
	boardId string
	send    chan []byte
}

type boardMessage struct {
	boardId string
	payload []byte
}

// Hub fans finished figure jobs out to the websocket clients watching a board
type Hub struct {
	boards     map[string]map[*client]bool
	broadcast  chan boardMessage
	register   chan *client
	unregister chan *client
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger_i.Logger
}

func NewHub() *Hub {
	return &Hub{
		boards:     make(map[string]map[*client]bool),
		broadcast:  make(chan boardMessage, config.HubMessageBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		logger:     logger_i.NewLogger("Dashboard Hub"),
	}
}

// Run owns the subscription table until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			h.logger.Info("Hub stopped")
			return

		case c := <-h.register:
			h.mutex.Lock()
			if h.boards[c.boardId] == nil {
				h.boards[c.boardId] = make(map[*client]bool)
			}
			h.boards[c.boardId][c] = true
			h.mutex.Unlock()
			h.logger.Debug("Client connected", "boardId", c.boardId, "total", h.ClientCount(c.boardId))

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			h.mutex.RLock()
			var slow []*client
			for c := range h.boards[msg.boardId] {
				select {
				case c.send <- msg.payload:
				default:
					slow = append(slow, c)
				}
			}
			h.mutex.RUnlock()
			for _, c := range slow {
				h.logger.Warn("Dropping slow client", "boardId", c.boardId)
				h.remove(c)
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if clients, ok := h.boards[c.boardId]; ok {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			close(c.send)
		}
		if len(clients) == 0 {
			delete(h.boards, c.boardId)
		}
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for id, clients := range h.boards {
		for c := range clients {
			close(c.send)
		}
		delete(h.boards, id)
	}
}

// PublishFigure implements jobModel.FigureNotifier
func (h *Hub) PublishFigure(boardId string, job jobModel.Job) {
	payload, err := json.Marshal(job)
	if err != nil {
		h.logger.Error("Could not encode job", "jobId", job.Id, "error", err)
		return
	}
	select {
	case h.broadcast <- boardMessage{boardId: boardId, payload: payload}:
	default:
		h.logger.Warn("Hub is saturated, dropping figure", "boardId", boardId, "jobId", job.Id)
	}
}

func (h *Hub) ClientCount(boardId string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.boards[boardId])
}

// ServeBoard upgrades the request and streams the board's figures until the
// client goes away.
func (h *Hub) ServeBoard(w http.ResponseWriter, r *http.Request, boardId string) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade error", "error", err)
		return
	}
	c := &client{conn: conn, boardId: boardId, send: make(chan []byte, config.WSClientBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	c.readPump()
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// readPump only keeps the connection alive, viewers never send anything useful
func (c *client) readPump() {
	c.conn.SetReadLimit(config.WSReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(config.WSPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(config.WSPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(config.WSPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(config.WSWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(config.WSWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
