package hub

import (
	"errors"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/cloudzz-dev/roomchat/internal/protocol"
	"github.com/cloudzz-dev/roomchat/internal/server/ratelimit"
)

// Client is one websocket connection's server-side half.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	identity string
	ip       string
	limiter  *ratelimit.RateLimiter
	log      zerolog.Logger
}

func NewClient(h *Hub, conn *websocket.Conn, limiter *ratelimit.RateLimiter, ip string) *Client {
	return &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, 256),
		ip:      ip,
		limiter: limiter,
		log:     h.log.With().Str("ip", ip).Logger(),
	}
}

// Register puts the client on the hub, which replays history to it.
func (c *Client) Register() {
	c.hub.register <- c
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		ev, err := protocol.DecodeClientEvent(data)
		switch {
		case err == nil:
			c.ProcessEvent(ev)
		case errors.Is(err, protocol.ErrUnknownEvent):
			c.log.Debug().Str("frame", string(data)).Msg("ignoring unknown event")
		default:
			c.log.Warn().Str("frame", string(data)).Msg("dropping malformed frame")
		}
	}
}

func (c *Client) WritePump() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

func (c *Client) ProcessEvent(ev protocol.ClientEvent) {
	switch ev := ev.(type) {
	case protocol.Join:
		c.identity = ev.Identity
		c.log.Info().Str("identity", ev.Identity).Msg("joined")

	case protocol.Outgoing:
		if strings.TrimSpace(ev.Body) == "" {
			return
		}
		msg, err := c.hub.store.Save(ev.Author, ev.Body)
		if err != nil {
			c.log.Error().Err(err).Msg("save message")
			return
		}
		data, err := protocol.EncodeServerEvent(protocol.NewMessage{Message: msg})
		if err != nil {
			c.log.Error().Err(err).Msg("encode message")
			return
		}
		c.hub.Broadcast(data)

	case protocol.ClearRequest:
		if c.identity == "" {
			c.reject("join the room before clearing it")
			return
		}
		if !c.limiter.AllowClear(c.ip) {
			c.reject("too many clear requests, wait a minute")
			return
		}
		if err := c.hub.store.Clear(); err != nil {
			c.log.Error().Err(err).Msg("clear history")
			c.reject("could not clear history")
			return
		}
		c.log.Info().Str("identity", c.identity).Msg("history cleared")
		data, err := protocol.EncodeServerEvent(protocol.HistoryCleared{})
		if err != nil {
			c.log.Error().Err(err).Msg("encode clear")
			return
		}
		c.hub.Broadcast(data)
	}
}

// reject answers only the requester; denials are not broadcast.
func (c *Client) reject(reason string) {
	data, err := protocol.EncodeServerEvent(protocol.ClearRejected{Reason: reason})
	if err != nil {
		return
	}
	c.send <- data
}
