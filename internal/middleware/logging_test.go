package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/mealplan/internal/logging"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var scoped *slog.Logger
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scoped = logging.FromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest("GET", "/api/dishes/9", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if scoped == nil || scoped == slog.Default() {
		t.Fatal("handler did not receive a request-scoped logger")
	}
	reqID := rec.Header().Get("X-Request-ID")
	if len(reqID) != 26 {
		t.Errorf("X-Request-ID = %q, want a ULID", reqID)
	}

	out := buf.String()
	for _, want := range []string{"level=WARN", "status=404", "path=/api/dishes/9", "req_id=" + reqID} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(slog.New(slog.NewTextHandler(&buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "abc123")
	}
	if !strings.Contains(buf.String(), "level=INFO") {
		t.Errorf("log output %q, want INFO", buf.String())
	}
}
