// Package logger wraps zerolog behind a small structured-event API.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

// Init configures the process-wide logger. Call once from the
// composition root (and once from test harnesses).
func Init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func Info(event string, fields map[string]interface{}) {
	log.Info().Fields(fields).Msg(event)
}

func InfoWithUser(userID, event string, fields map[string]interface{}) {
	log.Info().Str("user_id", userID).Fields(fields).Msg(event)
}

func Warn(event string, fields map[string]interface{}) {
	log.Warn().Fields(fields).Msg(event)
}

func Error(event string, err error, fields map[string]interface{}) {
	log.Error().Err(err).Fields(fields).Msg(event)
}
