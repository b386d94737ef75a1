// Package logging builds the operator logger.
//
// Information Hiding:
// - Console formatting and level selection hidden behind New
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to w.
// Verbose enables debug level; otherwise info and above are written.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
		NoColor:    true,
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
