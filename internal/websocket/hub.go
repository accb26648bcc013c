// Package websocket pushes catalog change events to connected browsers.
package websocket

import (
	"context"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"streamhub/internal/logger"
	"streamhub/internal/metrics"
	"streamhub/pkg/models"
)

const sendBuffer = 256

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans catalog events out to every connected client. Slow clients whose
// send buffer fills up are disconnected.
type Hub struct {
	mu         sync.Mutex
	clients    map[*client]struct{}
	broadcast  chan models.CatalogEvent
	register   chan *client
	unregister chan *client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan models.CatalogEvent, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Publish queues evt for delivery; it drops the event if the hub is backed up.
func (h *Hub) Publish(evt models.CatalogEvent) {
	select {
	case h.broadcast <- evt:
	default:
		logger.Warningf("websocket hub busy, dropping %s %s event", evt.Entity, evt.Action)
	}
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Run serves the hub until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				h.drop(c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			metrics.RealtimeClients.WithLabelValues("websocket").Inc()
			logger.Debugf("websocket client %s connected", c.conn.RemoteAddr())

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				logger.Debugf("websocket client %s disconnected", c.conn.RemoteAddr())
			}
			h.mu.Unlock()

		case evt := <-h.broadcast:
			data, err := json.Marshal(evt)
			if err != nil {
				logger.Warning("websocket marshal:", err)
				continue
			}
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					logger.Warningf("websocket client %s send buffer full, removing", c.conn.RemoteAddr())
					h.drop(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop must be called with h.mu held.
func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	metrics.RealtimeClients.WithLabelValues("websocket").Dec()
}
