// Package logger configures the global zerolog logger.
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger with the specified level and format.
// Format "text" gets a console writer; anything else stays JSON.
func Init(level string, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if strings.ToLower(format) == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
			With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}
