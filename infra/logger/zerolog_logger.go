package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger on rs/zerolog. Output goes to stderr so
// that stdout stays free for the tick stream.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger returns a JSON logger tagged with component, or a console
// logger when APP_ENV=dev.
func NewZerologLogger(component string) *ZerologLogger {
	var w io.Writer = os.Stderr
	if strings.EqualFold(os.Getenv("APP_ENV"), "dev") {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(w, component)
}

// NewWithWriter creates a JSON logger on w.
func NewWithWriter(w io.Writer, component string) *ZerologLogger {
	return &ZerologLogger{log: zerolog.New(w).With().Timestamp().Str("component", component).Logger()}
}

// With returns a child logger carrying an extra field on every line.
func (l *ZerologLogger) With(key string, value any) *ZerologLogger {
	return &ZerologLogger{log: l.log.With().Interface(key, value).Logger()}
}

func (l *ZerologLogger) Debugf(format string, args ...any) { l.log.Debug().Msgf(format, args...) }

// Debugw logs msg with structured fields. The fields map is not walked when
// debug output is disabled.
func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	if !ev.Enabled() {
		return
	}
	ev.Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) { l.log.Info().Msgf(format, args...) }

func (l *ZerologLogger) Warnf(format string, args ...any) { l.log.Warn().Msgf(format, args...) }

func (l *ZerologLogger) Errorf(format string, args ...any) { l.log.Error().Msgf(format, args...) }
