package logging

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with helpers used across the application.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a logger. Development mode uses human-readable text output
// at debug level; production uses JSON at info level.
func NewLogger(isDevelopment bool) *Logger {
	var handler slog.Handler
	if isDevelopment {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{slog.New(handler)}
}

// WithFields returns a child logger that always includes the given key-value pairs.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{l.Logger.With(args...)}
}
