package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cliniqueselma/booking-server/pkg/logging"
)

// Manager is the blocked-date surface the admin handler needs. Both
// Store and CachedStore satisfy it.
type Manager interface {
	List(ctx context.Context) ([]BlockedDate, error)
	Add(ctx context.Context, date, reason string) error
	Remove(ctx context.Context, date string) error
}

// Handler exposes admin endpoints for blocked-date management.
type Handler struct {
	store  Manager
	logger *logging.Logger
}

// NewHandler creates the blocked-dates admin handler.
func NewHandler(store Manager, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Routes mounts the blocked-dates endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Add)
	r.Delete("/{date}", h.Remove)
	return r
}

// List handles GET /admin/blocked-dates.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	dates, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list blocked dates", "error", err)
		http.Error(w, "failed to list blocked dates", http.StatusInternalServerError)
		return
	}
	if dates == nil {
		dates = []BlockedDate{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"blockedDates": dates,
		"count":        len(dates),
	})
}

type addRequest struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// Add handles POST /admin/blocked-dates.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	if err := h.store.Add(r.Context(), req.Date, req.Reason); err != nil {
		h.logger.Error("failed to block date", "error", err, "date", req.Date)
		http.Error(w, "failed to block date", http.StatusInternalServerError)
		return
	}
	h.logger.Info("date blocked", "date", req.Date, "reason", req.Reason)
	w.WriteHeader(http.StatusNoContent)
}

// Remove handles DELETE /admin/blocked-dates/{date}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	if err := h.store.Remove(r.Context(), date); err != nil {
		if errors.Is(err, ErrDateNotBlocked) {
			http.Error(w, "date not blocked", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to unblock date", "error", err, "date", date)
		http.Error(w, "failed to unblock date", http.StatusInternalServerError)
		return
	}
	h.logger.Info("date unblocked", "date", date)
	w.WriteHeader(http.StatusNoContent)
}
