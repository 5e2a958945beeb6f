package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type contextKey struct{}

// newContext returns a copy of ctx carrying logger.
func newContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the request's logger, or the process default tagged
// "unknown" outside a request.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

// rewrap derives a new request logger from the current one.
func rewrap(derive func(*Logger, *http.Request) *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := derive(FromContext(r.Context()), r)
			next.ServeHTTP(w, r.WithContext(newContext(r.Context(), logger)))
		})
	}
}

// Middleware places logger in every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return rewrap(func(*Logger, *http.Request) *Logger { return logger })
}

// ComponentMiddleware retags the request logger with component.
func ComponentMiddleware(component string) func(http.Handler) http.Handler {
	return rewrap(func(l *Logger, _ *http.Request) *Logger { return l.WithComponent(component) })
}

// RequestIDMiddleware adds the request ID found by extractRequestID.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return rewrap(func(l *Logger, r *http.Request) *Logger {
		return l.With(FieldRequestID, extractRequestID(r))
	})
}

// StructuredLogger writes the fixed-shape records of requests and depot
// changes.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPStart logs the start of an HTTP request at debug level
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP)

	sl.logger.WithComponent(ComponentHTTP).DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs the completion of an HTTP request
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, duration time.Duration, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, duration, statusCode < 400).
		WithClientIP(clientIP)

	sl.logger.WithComponent(ComponentHTTP).Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogEntryChanged logs a successful mutation of a depot entry
func (sl *StructuredLogger) LogEntryChanged(ctx context.Context, operation, name string, key uint64, revision uint64) {
	fields := NewFields().
		WithEntry(name, key).
		WithOperation(operation).
		ToSlice()

	fields = append(fields, FieldRevision, revision)

	sl.logger.WithComponent(ComponentDepot).InfoContext(ctx, "Depot entry changed", fields...)
}

// LogSectionChanged logs a savings plan section that was added or removed
func (sl *StructuredLogger) LogSectionChanged(ctx context.Context, operation, name string, key uint64, start, end string, amount float64, revision uint64) {
	fields := NewFields().
		WithEntry(name, key).
		WithSection(start, end, amount).
		WithOperation(operation).
		ToSlice()

	fields = append(fields, FieldRevision, revision)

	sl.logger.WithComponent(ComponentDepot).InfoContext(ctx, "Savings plan changed", fields...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	allFields := fields.
		WithError(err).
		WithOperation(operation)

	sl.logger.WithComponent(component).ErrorContext(ctx, msg, allFields.ToSlice()...)
}
