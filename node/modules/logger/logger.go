package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const appName = "rta"

type Logger interface {
	Log(format string, args ...interface{})

	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event

	// With returns a child logger carrying an extra component field.
	With(component string) Logger
}

type logger struct {
	zl zerolog.Logger
}

// NewLogger builds a logger for node nodeName. format is "console" or "json",
// level is any zerolog level name.
func NewLogger(nodeName, format, level string) (Logger, error) {
	return newLogger(os.Stdout, nodeName, format, level)
}

func newLogger(out io.Writer, nodeName, format, level string) (*logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zerolog.ParseLevel(strings.ToLower(level)); err != nil {
			return nil, fmt.Errorf("failed to parse log level: %w", err)
		}
	}

	switch format {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case "json":
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	zl := zerolog.New(out).Level(lvl).With().
		Timestamp().
		Str("app", appName).
		Str("node", nodeName).
		Logger()

	return &logger{zl: zl}, nil
}

// NewNopLogger discards everything. Used in tests.
func NewNopLogger() Logger {
	return &logger{zl: zerolog.Nop()}
}

func (l *logger) Log(format string, args ...interface{}) {
	l.zl.Info().Msg(fmt.Sprintf(format, args...))
}

func (l *logger) Debug() *zerolog.Event {
	return l.zl.Debug()
}

func (l *logger) Info() *zerolog.Event {
	return l.zl.Info()
}

func (l *logger) Warn() *zerolog.Event {
	return l.zl.Warn()
}

func (l *logger) Error() *zerolog.Event {
	return l.zl.Error()
}

func (l *logger) With(component string) Logger {
	return &logger{zl: l.zl.With().Str("component", component).Logger()}
}
