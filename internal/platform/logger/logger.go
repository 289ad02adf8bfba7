package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phrazzld/dbsetup/internal/ciutil"
)

// ParseLevel maps a configured level name (case-insensitive) to a slog level.
// ok is false for unknown names, which map to info.
func ParseLevel(name string) (level slog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Option customises New.
type Option func(*options)

type options struct {
	ciProvider string
}

// WithCIProvider tags records with the CI provider and adds source locations.
// An empty name leaves the logger unchanged.
func WithCIProvider(name string) Option {
	return func(o *options) {
		o.ciProvider = name
	}
}

// New returns a JSON logger writing to w at the named level, with credentials
// masked in every message and string attribute.
func New(w io.Writer, levelName string, opts ...Option) *slog.Logger {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	level, ok := ParseLevel(levelName)

	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: o.ciProvider != "",
	})
	if o.ciProvider != "" {
		handler = NewCIHandler(handler, o.ciProvider)
	}
	logger := slog.New(NewRedactingHandler(handler))

	if !ok {
		logger.Warn("invalid log level configured, using default level",
			"configured_level", levelName,
			"default_level", "info")
	}
	return logger
}

// Setup creates the process logger on stderr and installs it as the slog
// default. stdout is reserved: provisioning runs silence it. Under CI records
// carry the provider name.
func Setup(levelName string) *slog.Logger {
	logger := New(os.Stderr, levelName, WithCIProvider(ciutil.Provider(os.Getenv)))
	slog.SetDefault(logger)
	return logger
}
