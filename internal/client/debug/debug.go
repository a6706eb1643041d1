// Package debug gives the TUI somewhere to log: bubbletea owns
// stdout, so the client logger writes to debug.log instead.
package debug

import (
	"os"

	"github.com/rs/zerolog"
)

// NewLogger returns a logger writing to debug.log, or a no-op logger
// when debugging is off or the file cannot be opened.
func NewLogger(enabled bool) zerolog.Logger {
	if !enabled {
		return zerolog.Nop()
	}
	f, err := os.OpenFile("debug.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return zerolog.Nop()
	}
	return zerolog.New(f).With().Timestamp().Logger()
}

