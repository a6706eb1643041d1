package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/cloudzz-dev/roomchat/internal/server/hub"
	"github.com/cloudzz-dev/roomchat/internal/server/ratelimit"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func HandleWebSocket(h *hub.Hub, limiter *ratelimit.RateLimiter, logger zerolog.Logger, w http.ResponseWriter, r *http.Request) {
	clientIP := ratelimit.GetClientIP(r)

	// Rate limit: check connection count per IP
	if !limiter.CanConnect(clientIP) {
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		logger.Warn().Str("ip", clientIP).Msg("rate limited connection")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("upgrade failed")
		return
	}

	limiter.AddConnection(clientIP)

	client := hub.NewClient(h, conn, limiter, clientIP)
	client.Register()

	// Writer goroutine
	go func() {
		defer limiter.RemoveConnection(clientIP)
		client.WritePump()
	}()

	// Reader goroutine
	go client.ReadPump()
}
