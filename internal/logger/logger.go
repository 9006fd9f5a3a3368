// Package logger builds the zerolog logger shared by every component.
// Diagnostics go to stderr so they never mix with command output.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultLevel is used when no level, or an unknown one, is configured.
const DefaultLevel = zerolog.InfoLevel

type settings struct {
	output    io.Writer
	level     zerolog.Level
	console   bool
	timestamp bool
}

// Option configures New.
type Option func(*settings)

// WithLevel sets the minimum level by name ("debug", "info", "warn", "error").
// Unknown names fall back to DefaultLevel.
func WithLevel(level string) Option {
	return func(s *settings) {
		s.level = ParseLevel(level)
	}
}

// WithOutput sets the destination writer.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		s.output = w
	}
}

// WithConsoleWriter toggles human-readable output instead of JSON lines.
func WithConsoleWriter(enabled bool) Option {
	return func(s *settings) {
		s.console = enabled
	}
}

// WithTimestamp adds a time field to every event.
func WithTimestamp(enabled bool) Option {
	return func(s *settings) {
		s.timestamp = enabled
	}
}

// New returns a logger writing to stderr at info level with console
// formatting unless overridden.
func New(opts ...Option) *zerolog.Logger {
	s := &settings{
		output:  os.Stderr,
		level:   DefaultLevel,
		console: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	out := s.output
	if s.console {
		cw := zerolog.ConsoleWriter{Out: s.output, NoColor: !isTerminal(s.output)}
		if !s.timestamp {
			cw.PartsExclude = []string{zerolog.TimestampFieldName}
		}
		out = cw
	}

	ctx := zerolog.New(out).Level(s.level).With()
	if s.timestamp {
		ctx = ctx.Timestamp()
	}
	l := ctx.Logger()
	return &l
}

// Nop returns a logger that discards everything.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return DefaultLevel
	}
	return lvl
}
