package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cliniqueselma/booking-server/internal/i18n"
	"github.com/cliniqueselma/booking-server/pkg/logging"
)

// Handler exposes the booking write endpoint.
type Handler struct {
	svc     *Service
	catalog *i18n.Catalog
	logger  *logging.Logger
}

// NewHandler creates the booking handler. A nil service means storage was
// not configured; submissions then fail with a 500, never a panic.
func NewHandler(svc *Service, catalog *i18n.Catalog, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if catalog == nil {
		catalog = i18n.NewCatalog()
	}
	return &Handler{svc: svc, catalog: catalog, logger: logger}
}

type bookingResponse struct {
	OK              bool        `json:"ok"`
	ReferenceNumber string      `json:"referenceNumber,omitempty"`
	Message         string      `json:"message,omitempty"`
	Errors          FieldErrors `json:"errors,omitempty"`
}

// Create handles POST /api/appointments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode booking request", "error", err)
		writeJSON(w, http.StatusBadRequest, bookingResponse{
			OK:      false,
			Message: h.catalog.Lookup("booking.invalid", ""),
		})
		return
	}
	locale := i18n.Normalize(req.Locale)

	if h.svc == nil {
		h.logger.Error("booking storage not configured")
		writeJSON(w, http.StatusInternalServerError, bookingResponse{
			OK:      false,
			Message: h.catalog.Lookup("booking.server_error", locale),
		})
		return
	}

	appt, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, locale, err)
		return
	}

	writeJSON(w, http.StatusCreated, bookingResponse{
		OK:              true,
		ReferenceNumber: appt.ReferenceNumber,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, locale string, err error) {
	var fieldErrs FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		writeJSON(w, http.StatusBadRequest, bookingResponse{
			OK:      false,
			Message: h.catalog.Lookup("booking.invalid", locale),
			Errors:  fieldErrs,
		})
	case errors.Is(err, ErrDateBlocked):
		writeJSON(w, http.StatusConflict, bookingResponse{
			OK:      false,
			Message: h.catalog.Lookup("booking.date_blocked", locale),
		})
	case errors.Is(err, ErrSlotTaken):
		writeJSON(w, http.StatusConflict, bookingResponse{
			OK:      false,
			Message: h.catalog.Lookup("booking.slot_taken", locale),
		})
	default:
		h.logger.Error("booking submission failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, bookingResponse{
			OK:      false,
			Message: h.catalog.Lookup("booking.write_failed", locale),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
