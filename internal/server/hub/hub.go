// Package hub fans server events out to every connected client and
// replays the stored history to each fresh connection.
package hub

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/cloudzz-dev/roomchat/internal/protocol"
	"github.com/cloudzz-dev/roomchat/internal/server/storage"
)

const historyLimit = 100

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	store *storage.Store
	log   zerolog.Logger
}

func New(store *storage.Store, logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		store:      store,
		log:        logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.sendHistory(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// sendHistory replays the stored room history to one client. Every
// fresh connection gets this, which is what lets clients re-hydrate
// after a reconnect without asking.
func (h *Hub) sendHistory(c *Client) {
	msgs, err := h.store.History(historyLimit)
	if err != nil {
		h.log.Error().Err(err).Msg("load history")
		return
	}
	data, err := protocol.EncodeServerEvent(protocol.History{Messages: msgs})
	if err != nil {
		h.log.Error().Err(err).Msg("encode history")
		return
	}
	select {
	case c.send <- data:
	default:
		h.log.Warn().Msg("history dropped, client send buffer full")
	}
}

// Broadcast queues one encoded event for every connected client.
func (h *Hub) Broadcast(data []byte) {
	h.broadcast <- data
}
