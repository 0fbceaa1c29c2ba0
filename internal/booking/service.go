package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cliniqueselma/booking-server/internal/i18n"
	"github.com/cliniqueselma/booking-server/internal/observability/metrics"
	"github.com/cliniqueselma/booking-server/pkg/logging"
)

var tracer = otel.Tracer("selma.internal.booking")

// BlockedDateSource answers whether a calendar date is closed for booking.
type BlockedDateSource interface {
	IsBlocked(ctx context.Context, date string) (bool, error)
}

// Store is the persistence surface the service needs.
type Store interface {
	SlotTaken(ctx context.Context, date, timeOfDay string) (bool, error)
	Insert(ctx context.Context, appt *Appointment) error
}

// Sink observes successfully created appointments. Sinks run after the
// row is committed and must not fail the booking.
type Sink interface {
	BookingCreated(ctx context.Context, appt *Appointment)
}

// Service runs the booking workflow: validate, check availability,
// persist, then hand the appointment to the registered sinks.
type Service struct {
	store   Store
	blocked BlockedDateSource
	sinks   []Sink
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewService creates the booking service.
func NewService(store Store, blocked BlockedDateSource, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:   store,
		blocked: blocked,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// AddSink registers an observer for created bookings.
func (s *Service) AddSink(sink Sink) {
	if sink != nil {
		s.sinks = append(s.sinks, sink)
	}
}

// Create processes one booking submission. It returns FieldErrors for
// invalid input, ErrDateBlocked/ErrSlotTaken for scheduling conflicts,
// and a wrapped storage error otherwise. Availability read errors fail
// closed: a storage outage must not let a double-booking through.
func (s *Service) Create(ctx context.Context, req *BookingRequest) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "booking.Create")
	defer span.End()
	start := s.now()

	if errs := req.Validate(); errs != nil {
		s.metrics.ObserveSubmission(metrics.OutcomeInvalid)
		return nil, errs
	}

	blocked, err := s.blocked.IsBlocked(ctx, req.Date)
	if err != nil {
		s.metrics.ObserveSubmission(metrics.OutcomeError)
		return nil, fmt.Errorf("booking: check blocked date: %w", err)
	}
	if blocked {
		s.metrics.ObserveSubmission(metrics.OutcomeDateBlocked)
		return nil, ErrDateBlocked
	}

	taken, err := s.store.SlotTaken(ctx, req.Date, req.Time)
	if err != nil {
		s.metrics.ObserveSubmission(metrics.OutcomeError)
		return nil, err
	}
	if taken {
		s.metrics.ObserveSubmission(metrics.OutcomeSlotTaken)
		return nil, ErrSlotTaken
	}

	appt := s.buildAppointment(req)
	if err := s.insertWithRetry(ctx, appt); err != nil {
		if err == ErrSlotTaken {
			// Lost the race to a concurrent submission; same outcome as
			// the pre-check.
			s.metrics.ObserveSubmission(metrics.OutcomeSlotTaken)
			return nil, ErrSlotTaken
		}
		s.metrics.ObserveSubmission(metrics.OutcomeError)
		return nil, err
	}

	s.metrics.ObserveSubmission(metrics.OutcomeCreated)
	s.metrics.ObserveLatency(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.String("booking.reference", appt.ReferenceNumber),
		attribute.String("booking.service_type", appt.ServiceType),
	)
	s.logger.Info("appointment created",
		"reference", appt.ReferenceNumber,
		"date", appt.Date,
		"time", appt.Time,
		"service_type", appt.ServiceType,
	)

	// Sinks outlive the request; detach from its cancellation.
	sinkCtx := context.WithoutCancel(ctx)
	for _, sink := range s.sinks {
		sink.BookingCreated(sinkCtx, appt)
	}
	return appt, nil
}

func (s *Service) buildAppointment(req *BookingRequest) *Appointment {
	history := req.MedicalHistory
	if history == nil {
		history = []string{}
	}
	isNew := false
	if req.IsNewPatient != nil {
		isNew = *req.IsNewPatient
	}
	return &Appointment{
		ID:              uuid.New(),
		ReferenceNumber: NewReferenceNumber(s.now()),
		PatientName:     req.FullName(),
		PatientEmail:    req.Email,
		PatientPhone:    req.Phone,
		PatientDOB:      req.DOB,
		ServiceType:     req.ServiceType,
		Date:            req.Date,
		Time:            req.Time,
		Reason:          req.Reason,
		MedicalHistory:  history,
		Status:          StatusPending,
		IsEmergency:     req.IsEmergency,
		IsNewPatient:    isNew,
		Locale:          i18n.Normalize(req.Locale),
	}
}

func (s *Service) insertWithRetry(ctx context.Context, appt *Appointment) error {
	err := s.store.Insert(ctx, appt)
	if err != errReferenceTaken {
		return err
	}
	s.logger.Warn("reference number collision, regenerating", "reference", appt.ReferenceNumber)
	appt.ReferenceNumber = NewReferenceNumber(s.now())
	return s.store.Insert(ctx, appt)
}
