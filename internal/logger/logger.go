package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/internal/config"
)

// New builds a logger writing to w: JSON in production, text otherwise. A non-empty
// service is attached to every record so api, worker and console logs can share a sink.
func New(w io.Writer, cfg *config.Config, service string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	if service != "" {
		l = l.With("service", service)
	}
	return l
}

// Setup configures the global slog logger for a service writing to stdout
func Setup(cfg *config.Config, service string) *slog.Logger {
	l := New(os.Stdout, cfg, service)
	slog.SetDefault(l)
	return l
}

// WithRequestID adds request ID to logger context
func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With("request_id", requestID)
}

// WithWorld scopes a logger to one world; the simulation logs through it.
func WithWorld(logger *slog.Logger, worldID uuid.UUID) *slog.Logger {
	return logger.With("world_id", worldID.String())
}

// WithError adds error to logger context
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if err == nil {
		return logger
	}
	return logger.With("error", err.Error())
}
