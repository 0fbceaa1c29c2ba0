package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	for i := 0; i < 3; i++ {
		if !rl.Allow("41.100.1.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("41.100.1.1") {
		t.Fatalf("request past burst should be denied")
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	if !rl.Allow("41.100.1.1") {
		t.Fatalf("first client should be allowed")
	}
	if !rl.Allow("41.100.1.2") {
		t.Fatalf("second client should be allowed")
	}
	if rl.Allow("41.100.1.1") {
		t.Fatalf("first client should be throttled")
	}
}

func TestRateLimitMiddlewareRejectsWithJSON(t *testing.T) {
	mw := RateLimit(0.001, 1)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/appointments", nil)
	req.Header.Set("X-Real-Ip", "41.100.1.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d", http.StatusTooManyRequests, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON error body, got content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Trop de requêtes") {
		t.Fatalf("expected French throttle message, got %q", rec.Body.String())
	}
}
