// Package realtime pushes desk events to browsers over websockets and turns
// their pointer input into desk updates.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/ports"
)

const (
	broadcastBuffer = 256
	commandBuffer   = 64
	commandWait     = 2 * time.Second
)

// Hub owns the set of connected clients and fans messages out to all of them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	commands   chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

var _ ports.DeskPublisher = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		commands:   make(chan []byte, commandBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}

		case message := <-h.commands:
			h.fanOut(message)

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) fanOut(message []byte) {
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			h.drop(client)
		}
	}
}

// Register adds a client; it reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client if the hub is still running.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	_ = client.conn.Close()
}

// Publish queues ev for every client. Desk snapshots and notices never block
// and are dropped when the queue is full; the next snapshot supersedes them.
// audio.* commands go through their own queue and wait up to commandWait for
// room, since a lost command leaves the browser's audio out of step with the
// desk.
func (h *Hub) Publish(ctx context.Context, ev domain.DeskEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		log.Printf("WARN realtime: encode %s: %v", ev.Type, err)
		return
	}

	if strings.HasPrefix(ev.Type, "audio.") {
		t := time.NewTimer(commandWait)
		defer t.Stop()
		select {
		case h.commands <- b:
		case <-h.done:
		case <-ctx.Done():
			log.Printf("WARN realtime: %s not sent: %v", ev.Type, ctx.Err())
		case <-t.C:
			log.Printf("ERROR realtime: %s not sent, command queue stuck for %s", ev.Type, commandWait)
		}
		return
	}

	select {
	case h.broadcast <- b:
	default:
		log.Printf("WARN realtime: dropping %s, broadcast queue full", ev.Type)
	}
}
