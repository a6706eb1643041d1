package main

import (
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cloudzz-dev/roomchat/internal/config"
	"github.com/cloudzz-dev/roomchat/internal/server/handlers"
	"github.com/cloudzz-dev/roomchat/internal/server/hub"
	"github.com/cloudzz-dev/roomchat/internal/server/ratelimit"
	"github.com/cloudzz-dev/roomchat/internal/server/storage"
)

func main() {
	cfg := config.LoadServer()

	rootCmd := &cobra.Command{
		Use:          "roomchat-server",
		Short:        "Broadcast server for the shared chat room",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}
	rootCmd.Flags().StringVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	rootCmd.Flags().StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "Postgres connection string")
	rootCmd.Flags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `log output: "console" or "json"`)
	rootCmd.Flags().IntVar(&cfg.MaxConnsPerIP, "max-conns-per-ip", cfg.MaxConnsPerIP, "connection cap per client IP")
	rootCmd.Flags().IntVar(&cfg.ClearsPerMin, "clears-per-min", cfg.ClearsPerMin, "clear requests allowed per IP per minute")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Server) error {
	logger := newLogger(cfg.LogFormat)

	store, err := storage.New(cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	limiter := ratelimit.New(cfg.MaxConnsPerIP, cfg.ClearsPerMin)
	h := hub.New(store, logger)
	go h.Run()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handlers.HandleWebSocket(h, limiter, logger, w, r)
	})
	http.HandleFunc("/health", handlers.HealthCheck)

	logger.Info().Str("port", cfg.Port).Msg("listening")
	return http.ListenAndServe(":"+cfg.Port, nil)
}

func newLogger(format string) zerolog.Logger {
	if format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
