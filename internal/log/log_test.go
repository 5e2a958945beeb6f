package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Component: ComponentApp,
		Handler:   slog.NewTextHandler(&buf, nil),
	}).WithComponent(ComponentHTTP).With(FieldRequestID, "req_1")

	NewStructuredLogger(logger).LogEntryChanged(context.Background(), OpCreate, "World", 42, 7)

	out := buf.String()
	for _, want := range []string{"component=depot", "entry_name=World", "entry_key=42", "operation=create", "revision=7", "request_id=req_1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q misses %q", out, want)
		}
	}
	if n := strings.Count(out, "component="); n != 1 {
		t.Errorf("log line %q has %d component fields", out, n)
	}
}

func TestLogSectionChanged(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Handler: slog.NewTextHandler(&buf, nil)})

	NewStructuredLogger(logger).LogSectionChanged(context.Background(), "add_section", "Bonds", 9,
		"2023-03-15", "2024-03-15", 50, 3)

	out := buf.String()
	for _, want := range []string{"component=depot", "entry_name=Bonds", "section_start=2023-03-15", "section_end=2024-03-15", "amount=50", "revision=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q misses %q", out, want)
		}
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Fatalf("component = %q", got.Component())
	}
}

func TestMiddlewareChain(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Component: ComponentApp, Handler: slog.NewTextHandler(&buf, nil)})

	var handler http.Handler = http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "handled")
	})
	handler = RequestIDMiddleware(func(*http.Request) string { return "req_9" })(handler)
	handler = ComponentMiddleware(ComponentHTTP)(handler)
	handler = Middleware(base)(handler)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	out := buf.String()
	if !strings.Contains(out, "component=http") || !strings.Contains(out, "request_id=req_9") {
		t.Fatalf("log line = %q", out)
	}
	if n := strings.Count(out, "component="); n != 1 {
		t.Fatalf("log line %q has %d component fields", out, n)
	}
}
