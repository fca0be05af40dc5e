// Package stdlogger exposes the global zerolog logger through printf style methods,
// for libraries that expect a Printf logger (gorm's logger.Writer among them).
package stdlogger

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger forwards printf calls to zerolog.
type Logger struct {
	component string
}

// New returns a Logger writing through the global zerolog logger.
func New() *Logger {
	return &Logger{}
}

// NewComponent returns a Logger that tags every line with component.
func NewComponent(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) event(level zerolog.Level) *zerolog.Event {
	e := log.WithLevel(level)
	if l.component != "" {
		e = e.Str("component", l.component)
	}

	return e
}

// Printf logs at info level. Lines gorm prefixes with its own level markers are mapped.
func (l *Logger) Printf(format string, v ...interface{}) {
	level := zerolog.InfoLevel

	switch {
	case strings.Contains(format, "[error]"):
		level = zerolog.ErrorLevel
	case strings.Contains(format, "[warn]"), strings.Contains(format, "SLOW SQL"):
		level = zerolog.WarnLevel
	}

	l.event(level).Msgf(strings.TrimSpace(format), v...)
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.event(zerolog.DebugLevel).Msgf(format, v...)
}

// Infof logs at info level.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.event(zerolog.InfoLevel).Msgf(format, v...)
}

// Warningf logs at warn level.
func (l *Logger) Warningf(format string, v ...interface{}) {
	l.event(zerolog.WarnLevel).Msgf(format, v...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.event(zerolog.ErrorLevel).Msgf(format, v...)
}
