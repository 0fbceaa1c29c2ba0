package admin

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"

	"github.com/cliniqueselma/booking-server/internal/booking"
	"github.com/cliniqueselma/booking-server/pkg/logging"
)

// AppointmentsHandler serves the back-office appointment endpoints.
type AppointmentsHandler struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewAppointmentsHandler creates a new back-office appointments handler.
func NewAppointmentsHandler(db *sql.DB, logger *logging.Logger) *AppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentsHandler{
		db:     db,
		logger: logger,
	}
}

// AppointmentListItem represents an appointment in list responses.
type AppointmentListItem struct {
	ID              string `json:"id"`
	ReferenceNumber string `json:"referenceNumber"`
	PatientName     string `json:"patientName"`
	PatientPhone    string `json:"patientPhone"`
	ServiceType     string `json:"serviceType"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Status          string `json:"status"`
	IsEmergency     bool   `json:"isEmergency"`
	CreatedAt       string `json:"createdAt"`
}

// AppointmentsListResponse is a paginated list of appointments.
type AppointmentsListResponse struct {
	Appointments []AppointmentListItem `json:"appointments"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"pageSize"`
	TotalPages   int                   `json:"totalPages"`
}

// AppointmentDetail is the full back-office view of one appointment.
type AppointmentDetail struct {
	ID              string   `json:"id"`
	ReferenceNumber string   `json:"referenceNumber"`
	PatientName     string   `json:"patientName"`
	PatientEmail    string   `json:"patientEmail"`
	PatientPhone    string   `json:"patientPhone"`
	PatientDOB      string   `json:"patientDob,omitempty"`
	ServiceType     string   `json:"serviceType"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	Reason          string   `json:"reason"`
	MedicalHistory  []string `json:"medicalHistory"`
	Status          string   `json:"status"`
	IsEmergency     bool     `json:"isEmergency"`
	IsNewPatient    bool     `json:"isNewPatient"`
	Locale          string   `json:"locale"`
	CreatedAt       string   `json:"createdAt"`
}

// List returns a paginated list of appointments.
// GET /admin/appointments
func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	status := r.URL.Query().Get("status")
	service := r.URL.Query().Get("service")
	dateFrom := r.URL.Query().Get("date_from")
	dateTo := r.URL.Query().Get("date_to")

	offset := (page - 1) * pageSize

	where := " WHERE 1=1"
	args := []any{}
	argNum := 1

	if status != "" {
		where += " AND status = $" + strconv.Itoa(argNum)
		args = append(args, status)
		argNum++
	}
	if service != "" {
		where += " AND service_type = $" + strconv.Itoa(argNum)
		args = append(args, service)
		argNum++
	}
	if dateFrom != "" {
		if t, err := time.Parse("2006-01-02", dateFrom); err == nil {
			where += " AND appointment_date >= $" + strconv.Itoa(argNum)
			args = append(args, t)
			argNum++
		}
	}
	if dateTo != "" {
		if t, err := time.Parse("2006-01-02", dateTo); err == nil {
			where += " AND appointment_date <= $" + strconv.Itoa(argNum)
			args = append(args, t)
			argNum++
		}
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM appointments" + where
	if err := h.db.QueryRowContext(r.Context(), countQuery, args...).Scan(&total); err != nil {
		h.logger.Error("failed to count appointments", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	query := `
		SELECT id, reference_number, patient_name, patient_phone, service_type,
		       appointment_date, appointment_time, status, is_emergency, created_at
		FROM appointments` + where +
		" ORDER BY appointment_date DESC, appointment_time DESC" +
		" LIMIT $" + strconv.Itoa(argNum) + " OFFSET $" + strconv.Itoa(argNum+1)
	args = append(args, pageSize, offset)

	rows, err := h.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		h.logger.Error("failed to query appointments", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	appointments := []AppointmentListItem{}
	for rows.Next() {
		var item AppointmentListItem
		var date, createdAt time.Time
		if err := rows.Scan(
			&item.ID, &item.ReferenceNumber, &item.PatientName, &item.PatientPhone,
			&item.ServiceType, &date, &item.Time, &item.Status, &item.IsEmergency, &createdAt,
		); err != nil {
			h.logger.Error("failed to scan appointment", "error", err)
			continue
		}
		item.Date = date.Format("2006-01-02")
		item.CreatedAt = createdAt.Format(time.RFC3339)
		appointments = append(appointments, item)
	}

	totalPages := (total + pageSize - 1) / pageSize
	writeJSON(w, http.StatusOK, AppointmentsListResponse{
		Appointments: appointments,
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
		TotalPages:   totalPages,
	})
}

// Get returns one appointment by reference number.
// GET /admin/appointments/{reference}
func (h *AppointmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		jsonError(w, "missing reference", http.StatusBadRequest)
		return
	}

	detail, err := h.fetch(r, reference)
	if err == sql.ErrNoRows {
		jsonError(w, "appointment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get appointment", "error", err, "reference", reference)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *AppointmentsHandler) fetch(r *http.Request, reference string) (*AppointmentDetail, error) {
	query := `
		SELECT id, reference_number, patient_name, patient_email, patient_phone,
		       COALESCE(patient_dob, ''), service_type, appointment_date, appointment_time,
		       COALESCE(reason, ''), medical_history, status, is_emergency, is_new_patient,
		       locale, created_at
		FROM appointments
		WHERE reference_number = $1
	`
	var d AppointmentDetail
	var date, createdAt time.Time
	var history pq.StringArray
	err := h.db.QueryRowContext(r.Context(), query, reference).Scan(
		&d.ID, &d.ReferenceNumber, &d.PatientName, &d.PatientEmail, &d.PatientPhone,
		&d.PatientDOB, &d.ServiceType, &date, &d.Time,
		&d.Reason, &history, &d.Status, &d.IsEmergency, &d.IsNewPatient,
		&d.Locale, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	d.Date = date.Format("2006-01-02")
	d.CreatedAt = createdAt.Format(time.RFC3339)
	d.MedicalHistory = []string(history)
	if d.MedicalHistory == nil {
		d.MedicalHistory = []string{}
	}
	return &d, nil
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

// UpdateStatus transitions an appointment between lifecycle states.
// PATCH /admin/appointments/{reference}/status
func (h *AppointmentsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		jsonError(w, "missing reference", http.StatusBadRequest)
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Status != booking.StatusConfirmed && req.Status != booking.StatusCancelled {
		jsonError(w, "status must be confirmed or cancelled", http.StatusBadRequest)
		return
	}

	var current string
	err := h.db.QueryRowContext(r.Context(),
		`SELECT status FROM appointments WHERE reference_number = $1`, reference).Scan(&current)
	if err == sql.ErrNoRows {
		jsonError(w, "appointment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to read appointment status", "error", err, "reference", reference)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	if !validTransition(current, req.Status) {
		jsonError(w, "invalid status transition", http.StatusConflict)
		return
	}

	// Guard against a concurrent update between read and write.
	res, err := h.db.ExecContext(r.Context(),
		`UPDATE appointments SET status = $1 WHERE reference_number = $2 AND status = $3`,
		req.Status, reference, current)
	if err != nil {
		h.logger.Error("failed to update appointment status", "error", err, "reference", reference)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonError(w, "appointment was modified concurrently", http.StatusConflict)
		return
	}

	h.logger.Info("appointment status updated",
		"reference", reference, "from", current, "to", req.Status)

	writeJSON(w, http.StatusOK, map[string]string{
		"referenceNumber": reference,
		"status":          req.Status,
	})
}

// validTransition reports whether an appointment may move between states.
// Cancelled is terminal; confirmed can only be cancelled.
func validTransition(from, to string) bool {
	switch from {
	case booking.StatusPending:
		return to == booking.StatusConfirmed || to == booking.StatusCancelled
	case booking.StatusConfirmed:
		return to == booking.StatusCancelled
	default:
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
