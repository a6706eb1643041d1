// Package config centralizes environment configuration for both
// binaries. A .env file is honored when present.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Server struct {
	Port          string
	DatabaseURL   string
	MaxConnsPerIP int
	ClearsPerMin  int
	LogFormat     string // "console" or "json"
}

type Client struct {
	ServerURL string
	Profile   string
	Debug     bool
}

func LoadServer() Server {
	_ = godotenv.Load()
	return Server{
		Port:          getenv("PORT", "8080"),
		DatabaseURL:   getenv("DATABASE_URL", "postgres://localhost/roomchat?sslmode=disable"),
		MaxConnsPerIP: getint("MAX_CONNECTIONS_PER_IP", 10),
		ClearsPerMin:  getint("CLEARS_PER_MIN", 2),
		LogFormat:     getenv("LOG_FORMAT", "console"),
	}
}

func LoadClient() Client {
	_ = godotenv.Load()
	return Client{
		ServerURL: getenv("ROOMCHAT_SERVER", "ws://localhost:8080/ws"),
		Profile:   getenv("ROOMCHAT_PROFILE", "default"),
		Debug:     os.Getenv("ROOMCHAT_DEBUG") != "",
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
