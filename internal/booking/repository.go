package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Constraint names from the migrations; insert errors are mapped back to
// domain errors through them.
const (
	slotConstraint      = "uq_appointments_slot"
	referenceConstraint = "appointments_reference_number_key"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists appointments.
type Repository struct {
	db rowQuerier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("booking: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db rowQuerier) *Repository {
	return &Repository{db: db}
}

// SlotTaken reports whether a non-cancelled appointment already holds the
// exact date/time pair. Read errors propagate so the caller fails closed.
func (r *Repository) SlotTaken(ctx context.Context, date, timeOfDay string) (bool, error) {
	query := `
		SELECT 1 FROM appointments
		WHERE appointment_date = $1 AND appointment_time = $2 AND status <> 'cancelled'
		LIMIT 1
	`
	var exists int
	if err := r.db.QueryRow(ctx, query, date, timeOfDay).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("booking: check slot: %w", err)
	}
	return true, nil
}

// Insert persists a new appointment. The partial unique index on
// (appointment_date, appointment_time) makes the insert the final arbiter
// of slot conflicts, so two concurrent submissions cannot both land.
func (r *Repository) Insert(ctx context.Context, appt *Appointment) error {
	query := `
		INSERT INTO appointments (
			id, reference_number,
			patient_name, patient_email, patient_phone, patient_dob,
			service_type, appointment_date, appointment_time,
			reason, medical_history, status,
			is_emergency, is_new_patient, locale
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		appt.ID,
		appt.ReferenceNumber,
		appt.PatientName,
		appt.PatientEmail,
		appt.PatientPhone,
		appt.PatientDOB,
		appt.ServiceType,
		appt.Date,
		appt.Time,
		appt.Reason,
		appt.MedicalHistory,
		appt.Status,
		appt.IsEmergency,
		appt.IsNewPatient,
		appt.Locale,
	).Scan(&appt.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case slotConstraint:
				return ErrSlotTaken
			case referenceConstraint:
				return errReferenceTaken
			}
		}
		return fmt.Errorf("booking: insert appointment: %w", err)
	}
	return nil
}
