// Package logger provides a thin wrapper around zerolog.Logger used by the
// CLI and the packages it drives.
//
// The Logger type embeds zerolog.Logger so all standard zerolog methods
// (Debug, Info, Warn, Error, etc.) are available directly on *Logger.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is a thin wrapper around zerolog.Logger.
type Logger struct {
	zerolog.Logger
}

// New returns a human-readable console logger writing to w.
// When verbose is false only warnings and errors are emitted.
func New(w io.Writer, verbose bool) *Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !isTerminal(w),
		TimeFormat: "15:04:05",
	}

	l := zerolog.New(out).Level(level).With().
		Timestamp().
		Logger()

	return &Logger{l}
}

// NewJSON returns a logger emitting one JSON object per line to w at the
// given level. Tests use it to assert on emitted fields.
func NewJSON(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{zerolog.New(w).Level(level)}
}

// Nop returns a *Logger that discards all log output.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// With returns a child logger carrying component as a field.
func (l *Logger) With(component string) *Logger {
	return &Logger{l.Logger.With().Str("component", component).Logger()}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
