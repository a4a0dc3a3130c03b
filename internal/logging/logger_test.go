package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "parseLevel(%q)", tt.in)
	}
}

func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	return &buf
}

func TestFromContext_RequestID(t *testing.T) {
	buf := captureDefault(t)

	var ctx context.Context
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	FromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), "request_id=")
}

func TestWithImport(t *testing.T) {
	buf := captureDefault(t)

	WithImport(context.Background(), "", "subs.csv").Info("reading")
	assert.Contains(t, buf.String(), "file=subs.csv")
	assert.NotContains(t, buf.String(), "import_id")

	buf.Reset()
	WithImport(context.Background(), "abc", "subs.csv").Info("computed")
	assert.Contains(t, buf.String(), "import_id=abc")
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	Setup("debug", "JSON")
	_, isJSON := slog.Default().Handler().(*slog.JSONHandler)
	assert.True(t, isJSON)
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))

	Setup("warn", "")
	_, isText := slog.Default().Handler().(*slog.TextHandler)
	assert.True(t, isText)
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))
}
