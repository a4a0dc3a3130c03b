// Package logging configures the slog default logger for cmd/server and
// cohortctl. Request-scoped loggers pick up chi's request ID.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup installs the default logger on stdout. level is one of "debug",
// "info", "warn" or "error" (default "info"); format is "text" or "json"
// (default "text"), matching LOG_LEVEL and LOG_FORMAT.
func Setup(level, format string) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromContext returns the default logger, tagged with request_id when ctx
// came through chi's RequestID middleware.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	return logger
}

// WithFields is FromContext plus fixed attributes, e.g. the store driver.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}

// WithImport returns a logger carrying the import identity. importID may be
// empty before the import has been assigned one.
func WithImport(ctx context.Context, importID, fileName string) *slog.Logger {
	if importID == "" {
		return WithFields(ctx, "file", fileName)
	}
	return WithFields(ctx, "import_id", importID, "file", fileName)
}
