package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cliniqueselma/booking-server/pkg/logging"
)

func TestRequestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := &logging.Logger{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	mw := RequestLogger(logger)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/appointments", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "request completed" {
		t.Fatalf("unexpected log message %q", entry["msg"])
	}
	if entry["status"] != float64(http.StatusConflict) {
		t.Fatalf("expected status %d, got %v", http.StatusConflict, entry["status"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("expected propagated request id, got %v", entry["request_id"])
	}
}
