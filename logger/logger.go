package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. Development environments get
// a console writer, everything else emits JSON.
func Init(env string) {
	var w io.Writer = os.Stdout
	if env == "development" || env == "dev" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(w).With().
		Timestamp().
		Str("service", "messaging").
		Logger()
}

// WithUserID returns a child logger tagged with the caller id.
func WithUserID(userID string) zerolog.Logger {
	return log.With().Str("user_id", userID).Logger()
}
