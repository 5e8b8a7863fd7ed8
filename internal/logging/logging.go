// Package logging provides structured logging using Go's slog package.
//
// Diagnostics go to stderr so that downloaded records can be streamed to
// stdout without interleaving. Each CLI invocation carries a run ID in its
// context; every record logged through the *Context helpers is tagged with it.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// RunIDKey is the context key for run IDs.
	RunIDKey ContextKey = "run_id"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger
)

func init() {
	InitLogger(LevelWarn, FormatText, os.Stderr)
}

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatText outputs logs in human-readable text format.
	FormatText Format = iota
	// FormatJSON outputs logs in JSON format.
	FormatJSON
)

// ParseLevel converts a level name ("debug", "info", "warn", "error").
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// ParseFormat converts a format name ("text", "json").
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q", name)
}

// InitLogger initializes the global logger with the specified level and format.
func InitLogger(level Level, format Format, w io.Writer) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// NewRunID returns a fresh identifier for one CLI invocation.
func NewRunID() string {
	return uuid.New().String()
}

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run ID from the context.
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// LoggerFromContext returns a logger with context values attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := defaultLogger
	if runID := GetRunID(ctx); runID != "" {
		logger = logger.With("run_id", runID)
	}
	return logger
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// DebugContext logs a debug message with context.
func DebugContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Debug(msg, args...)
}

// InfoContext logs an info message with context.
func InfoContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Info(msg, args...)
}

// WarnContext logs a warning message with context.
func WarnContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Warn(msg, args...)
}

// ErrorContext logs an error message with context.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Error(msg, args...)
}

// Request logs one request issued against NCBI.
func Request(ctx context.Context, ids, url string, args ...any) {
	allArgs := []any{
		"ids", ids,
		"url", url,
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Debug("ncbi_request", allArgs...)
}

// RateLimited logs a 429 answer and the delay that will be honored.
func RateLimited(ctx context.Context, ids string, retryAfter time.Duration, attempt int) {
	LoggerFromContext(ctx).Warn("rate_limited",
		"ids", ids,
		"retry_after_s", retryAfter.Seconds(),
		"attempt", attempt,
		"hint", "consider using --api-key (see https://www.ncbi.nlm.nih.gov/books/NBK25497/)",
	)
}

// Expansion logs the start of a WGS or supercontig expansion.
func Expansion(ctx context.Context, recordID, kind string, parts int) {
	LoggerFromContext(ctx).Info("expansion",
		"record", recordID,
		"kind", kind,
		"parts", parts,
	)
}

// DownloadFinished logs a completed top-level download.
func DownloadFinished(ctx context.Context, id, path string, bytes int64, digest string, duration time.Duration) {
	LoggerFromContext(ctx).Info("download_finished",
		"id", id,
		"path", path,
		"bytes", bytes,
		"blake3", digest,
		"duration_ms", duration.Milliseconds(),
	)
}

// DownloadFailed logs a failed top-level download.
func DownloadFailed(ctx context.Context, id string, err error) {
	LoggerFromContext(ctx).Error("download_failed",
		"id", id,
		"error", err.Error(),
	)
}
