package livefeed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"SentimentDesk/internal/domain/models"
	"SentimentDesk/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans report events out to connected websocket clients. A client whose
// send buffer is full is disconnected instead of blocking the broadcast.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	clients    map[*client]struct{}
	bufferSize int
	count      chan int
	done       chan struct{}
	logger     *logger.Logger
}

// ErrHubStopped is returned when a client connects after Run has returned.
var ErrHubStopped = errors.New("live feed hub stopped")

func NewHub(lgr *logger.Logger, bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*client]struct{}),
		bufferSize: bufferSize,
		count:      make(chan int),
		done:       make(chan struct{}),
		logger:     lgr.With(logger.String("component", "livefeed")),
	}
}

// Run owns the client set until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.Debug("live feed client connected", logger.Int("clients", len(h.clients)))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
					h.logger.Warn("dropping slow live feed client")
				}
			}
		case h.count <- len(h.clients):
		}
	}
}

// Clients returns the number of connected clients, or 0 once Run has returned.
func (h *Hub) Clients() int {
	select {
	case n := <-h.count:
		return n
	case <-h.done:
		return 0
	}
}

// Broadcast queues msg for every client. It drops the message if ctx ends first.
func (h *Hub) Broadcast(ctx context.Context, msg []byte) {
	select {
	case h.broadcast <- msg:
	case <-ctx.Done():
	case <-h.done:
	}
}

// PublishReportEvent satisfies repository.EventPublisher so the hub can be used
// directly when no event stream is configured.
func (h *Hub) PublishReportEvent(ctx context.Context, ev models.ReportEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.Broadcast(ctx, data)
	return nil
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, send: make(chan []byte, h.bufferSize)}
	select {
	case h.register <- c:
	case <-r.Context().Done():
		conn.Close()
		return r.Context().Err()
	case <-h.done:
		conn.Close()
		return ErrHubStopped
	}

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// readPump discards client messages; it exists to process control frames and
// notice disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("live feed read failed", logger.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
