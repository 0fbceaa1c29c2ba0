package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewRepositoryWithDB(mock), mock
}

func TestSlotTaken(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT 1 FROM appointments").
		WithArgs("2025-06-10", "10:00").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(1))
	taken, err := repo.SlotTaken(context.Background(), "2025-06-10", "10:00")
	if err != nil || !taken {
		t.Fatalf("expected taken slot, got taken=%v err=%v", taken, err)
	}

	mock.ExpectQuery("SELECT 1 FROM appointments").
		WithArgs("2025-06-10", "10:30").
		WillReturnError(pgx.ErrNoRows)
	taken, err = repo.SlotTaken(context.Background(), "2025-06-10", "10:30")
	if err != nil || taken {
		t.Fatalf("expected free slot, got taken=%v err=%v", taken, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSlotTakenReadErrorPropagates(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT 1 FROM appointments").
		WithArgs("2025-06-10", "10:00").
		WillReturnError(errors.New("connection refused"))
	_, err := repo.SlotTaken(context.Background(), "2025-06-10", "10:00")
	if err == nil {
		t.Fatalf("read errors must propagate, not pass as free")
	}
}

func apptFixture() *Appointment {
	svc := NewService(nil, nil, nil, nil)
	appt := svc.buildAppointment(validRequest())
	return appt
}

func TestInsertAppointment(t *testing.T) {
	repo, mock := newMockRepo(t)
	appt := apptFixture()

	created := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(
			appt.ID, appt.ReferenceNumber,
			appt.PatientName, appt.PatientEmail, appt.PatientPhone, appt.PatientDOB,
			appt.ServiceType, appt.Date, appt.Time,
			appt.Reason, appt.MedicalHistory, StatusPending,
			appt.IsEmergency, appt.IsNewPatient, appt.Locale,
		).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

	if err := repo.Insert(context.Background(), appt); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if !appt.CreatedAt.Equal(created) {
		t.Fatalf("created_at not captured, got %s", appt.CreatedAt)
	}
	if appt.Status != StatusPending {
		t.Fatalf("new appointments must be pending, got %s", appt.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertMapsUniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{slotConstraint, ErrSlotTaken},
		{referenceConstraint, errReferenceTaken},
	}
	for _, tt := range tests {
		repo, mock := newMockRepo(t)
		appt := apptFixture()

		mock.ExpectQuery("INSERT INTO appointments").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

		err := repo.Insert(context.Background(), appt)
		if !errors.Is(err, tt.want) {
			t.Fatalf("constraint %s: got %v, want %v", tt.constraint, err, tt.want)
		}
	}
}

func TestInsertGenericErrorWrapped(t *testing.T) {
	repo, mock := newMockRepo(t)
	appt := apptFixture()

	mock.ExpectQuery("INSERT INTO appointments").
		WillReturnError(errors.New("disk full"))

	err := repo.Insert(context.Background(), appt)
	if err == nil || errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
}
