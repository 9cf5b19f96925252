package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/playback"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Hub fans state messages out to connected websocket clients.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	logger     *log.Logger
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		logger:     logger.WithPrefix("ws"),
	}
}

// Run delivers registrations and broadcasts until ctx is done. It must be called once.
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
			h.clients[c] = true
			h.logger.Debug("client connected", "clients", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Debug("client disconnected", "clients", len(h.clients))
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Broadcast queues v for every client. It never blocks; when the queue is full the message is dropped.
func (h *Hub) Broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("failed to encode broadcast", "error", err)
		return
	}
	select {
	case h.broadcast <- b:
	default:
		h.logger.Warn("broadcast queue full, dropping message")
	}
}

// attach registers c, reporting false when the hub has stopped.
func (h *Hub) attach(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Client is one websocket connection registered with a [Hub].
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// readPump discards inbound messages and unregisters the client when the connection closes.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump sends queued messages and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// stateMessage is the websocket and REST representation of a playback state.
type stateMessage struct {
	Type        string        `json:"type"`
	Status      string        `json:"status"`
	Track       *models.Track `json:"track"`
	PositionMs  int64         `json:"positionMs"`
	DurationMs  int64         `json:"durationMs"`
	Position    string        `json:"position"`
	Duration    string        `json:"duration"`
	IsPlaying   bool          `json:"isPlaying"`
	Volume      float64       `json:"volume"`
	QueueIndex  int           `json:"queueIndex"`
	QueueLength int           `json:"queueLength"`
}

func newStateMessage(s models.PlaybackState) stateMessage {
	status := playback.Idle
	switch {
	case s.IsPlaying:
		status = playback.Playing
	case s.HasTrack():
		status = playback.Paused
	}

	return stateMessage{
		Type:        "state",
		Status:      status.String(),
		Track:       s.CurrentTrack,
		PositionMs:  s.CurrentPosition.Milliseconds(),
		DurationMs:  s.Duration().Milliseconds(),
		Position:    playback.FormatDuration(s.CurrentPosition),
		Duration:    playback.FormatDuration(s.Duration()),
		IsPlaying:   s.IsPlaying,
		Volume:      s.Volume,
		QueueIndex:  s.QueueIndex,
		QueueLength: s.QueueLength,
	}
}
