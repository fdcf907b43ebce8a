// Package obslog wraps log/slog with the operation-specific helpers the
// engine calls on every insert, query, delete, and TTL sweep, grounded on
// the debug-on-success/error-on-failure convention used throughout the
// module.
package obslog

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps *slog.Logger with vector-database-specific context builders
// and per-operation logging helpers.
type Logger struct {
	*slog.Logger
}

// New wraps an existing slog.Handler.
func New(h slog.Handler) *Logger {
	return &Logger{Logger: slog.New(h)}
}

// NewText builds a text-handler logger writing to w at level.
func NewText(w io.Writer, level slog.Level) *Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewJSON builds a JSON-handler logger writing to w at level.
func NewJSON(w io.Writer, level slog.Level) *Logger {
	return New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards everything; it is the construction default.
func NoopLogger() *Logger {
	return New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Default returns a text logger at Info level writing to stderr.
func Default() *Logger {
	return NewText(os.Stderr, slog.LevelInfo)
}

// WithCollection returns a logger whose messages carry the collection name.
func (l *Logger) WithCollection(name string) *Logger {
	return &Logger{Logger: l.Logger.With("collection", name)}
}

// WithTenant returns a logger whose messages carry the tenant id.
func (l *Logger) WithTenant(id string) *Logger {
	return &Logger{Logger: l.Logger.With("tenant", id)}
}

// WithID returns a logger whose messages carry a document/chunk id.
func (l *Logger) WithID(id string) *Logger {
	return &Logger{Logger: l.Logger.With("id", id)}
}

// WithK returns a logger whose messages carry a topK value.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{Logger: l.Logger.With("k", k)}
}

// LogInsert logs the outcome of an insert.
func (l *Logger) LogInsert(count int, err error) {
	if err != nil {
		l.Error("insert failed", "count", count, "error", err)
		return
	}
	l.Debug("insert", "count", count)
}

// LogSearch logs the outcome of a query.
func (l *Logger) LogSearch(topK int, method string, err error) {
	if err != nil {
		l.Error("search failed", "topK", topK, "error", err)
		return
	}
	l.Debug("search", "topK", topK, "method", method)
}

// LogDelete logs the outcome of a delete.
func (l *Logger) LogDelete(requested, deleted int, err error) {
	if err != nil {
		l.Error("delete failed", "requested", requested, "error", err)
		return
	}
	l.Debug("delete", "requested", requested, "deleted", deleted)
}

// LogTTLSweep logs the outcome of one sweep cycle over one collection.
func (l *Logger) LogTTLSweep(expired int, err error) {
	if err != nil {
		l.Error("ttl sweep failed", "error", err)
		return
	}
	if expired > 0 {
		l.Info("ttl sweep", "expired", expired)
		return
	}
	l.Debug("ttl sweep", "expired", expired)
}
