package booking

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cliniqueselma/booking-server/internal/i18n"
)

func postBooking(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) bookingResponse {
	t.Helper()
	var resp bookingResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func newTestHandler(store *stubStore, blocked *stubBlocked) *Handler {
	svc := NewService(store, blocked, nil, nil)
	return NewHandler(svc, i18n.NewCatalog(), nil)
}

func TestCreateEndpointSuccess(t *testing.T) {
	h := newTestHandler(&stubStore{}, &stubBlocked{})
	rec := postBooking(t, h, validRequest())

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.OK || resp.ReferenceNumber == "" {
		t.Fatalf("expected ok with reference, got %+v", resp)
	}
}

func TestCreateEndpointValidationFailure(t *testing.T) {
	h := newTestHandler(&stubStore{}, &stubBlocked{})
	req := validRequest()
	req.Phone = "+213123"
	req.Reason = "mal"
	rec := postBooking(t, h, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.OK {
		t.Fatalf("expected ok=false")
	}
	if _, ok := resp.Errors["phone"]; !ok {
		t.Fatalf("expected phone error, got %v", resp.Errors)
	}
	if _, ok := resp.Errors["reason"]; !ok {
		t.Fatalf("expected reason error, got %v", resp.Errors)
	}
}

func TestCreateEndpointBlockedDate(t *testing.T) {
	h := newTestHandler(&stubStore{}, &stubBlocked{blocked: true})
	rec := postBooking(t, h, validRequest())

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Message != "Date non disponible (jour bloqué)." {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestCreateEndpointSlotTakenLocalized(t *testing.T) {
	h := newTestHandler(&stubStore{taken: true}, &stubBlocked{})

	req := validRequest()
	req.Locale = "ar"
	rec := postBooking(t, h, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Message != "هذا الموعد محجوز بالفعل." {
		t.Fatalf("expected arabic conflict message, got %q", resp.Message)
	}
}

func TestCreateEndpointStorageFailure(t *testing.T) {
	h := newTestHandler(&stubStore{insertErrs: []error{errors.New("disk full")}}, &stubBlocked{})
	rec := postBooking(t, h, validRequest())

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.OK || resp.ReferenceNumber != "" {
		t.Fatalf("failed writes must not return a reference, got %+v", resp)
	}
}

func TestCreateEndpointStorageNotConfigured(t *testing.T) {
	h := NewHandler(nil, i18n.NewCatalog(), nil)
	rec := postBooking(t, h, validRequest())

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestCreateEndpointMalformedBody(t *testing.T) {
	h := newTestHandler(&stubStore{}, &stubBlocked{})
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
