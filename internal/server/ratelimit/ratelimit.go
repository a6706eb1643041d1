// Package ratelimit caps per-IP connections and gates the destructive
// clear request behind a sliding one-minute window.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

type RateLimiter struct {
	connections   map[string]int         // IP -> connection count
	clearRequests map[string][]time.Time // IP -> timestamps of clear requests
	mu            sync.RWMutex
	maxConns      int
	maxClears     int
}

func New(maxConns, clearsPerMin int) *RateLimiter {
	rl := &RateLimiter{
		connections:   make(map[string]int),
		clearRequests: make(map[string][]time.Time),
		maxConns:      maxConns,
		maxClears:     clearsPerMin,
	}

	// Cleanup old clear requests every minute
	go func() {
		for {
			time.Sleep(time.Minute)
			rl.cleanup()
		}
	}()

	return rl
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-time.Minute)
	for ip, requests := range rl.clearRequests {
		var valid []time.Time
		for _, t := range requests {
			if t.After(cutoff) {
				valid = append(valid, t)
			}
		}
		if len(valid) == 0 {
			delete(rl.clearRequests, ip)
		} else {
			rl.clearRequests[ip] = valid
		}
	}
}

func (rl *RateLimiter) CanConnect(ip string) bool {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.connections[ip] < rl.maxConns
}

func (rl *RateLimiter) AddConnection(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.connections[ip]++
}

func (rl *RateLimiter) RemoveConnection(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.connections[ip]--
	if rl.connections[ip] <= 0 {
		delete(rl.connections, ip)
	}
}

// AllowClear records one clear request and reports whether the IP is
// still inside its per-minute budget.
func (rl *RateLimiter) AllowClear(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-time.Minute)
	var recent []time.Time
	for _, t := range rl.clearRequests[ip] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	rl.clearRequests[ip] = recent

	if len(recent) >= rl.maxClears {
		return false
	}

	rl.clearRequests[ip] = append(rl.clearRequests[ip], time.Now())
	return true
}

func GetClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, _ := net.SplitHostPort(r.RemoteAddr)
	return ip
}
