package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

type stubManager struct {
	dates     []BlockedDate
	added     []string
	removed   []string
	removeErr error
}

func (s *stubManager) List(ctx context.Context) ([]BlockedDate, error) { return s.dates, nil }

func (s *stubManager) Add(ctx context.Context, date, reason string) error {
	s.added = append(s.added, date)
	return nil
}

func (s *stubManager) Remove(ctx context.Context, date string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removed = append(s.removed, date)
	return nil
}

func TestListBlockedDates(t *testing.T) {
	mgr := &stubManager{dates: []BlockedDate{
		{ID: uuid.New(), Date: "2025-06-10", Reason: "congé", CreatedAt: time.Now()},
	}}
	h := NewHandler(mgr, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		BlockedDates []BlockedDate `json:"blockedDates"`
		Count        int           `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.BlockedDates[0].Date != "2025-06-10" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAddBlockedDate(t *testing.T) {
	mgr := &stubManager{}
	h := NewHandler(mgr, nil)

	body := bytes.NewReader([]byte(`{"date":"2025-06-10","reason":"congé"}`))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(mgr.added) != 1 || mgr.added[0] != "2025-06-10" {
		t.Fatalf("date not added: %v", mgr.added)
	}
}

func TestAddBlockedDateRejectsBadDate(t *testing.T) {
	h := NewHandler(&stubManager{}, nil)

	body := bytes.NewReader([]byte(`{"date":"10/06/2025"}`))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRemoveBlockedDate(t *testing.T) {
	mgr := &stubManager{}
	h := NewHandler(mgr, nil)

	req := httptest.NewRequest(http.MethodDelete, "/2025-06-10", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(mgr.removed) != 1 {
		t.Fatalf("date not removed")
	}
}

func TestRemoveUnknownDateIs404(t *testing.T) {
	h := NewHandler(&stubManager{removeErr: ErrDateNotBlocked}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/2025-06-10", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
