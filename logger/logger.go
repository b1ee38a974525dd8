package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. pretty switches to the human readable
// console writer; debug lowers the global level.
func New(w io.Writer, debug, pretty bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
