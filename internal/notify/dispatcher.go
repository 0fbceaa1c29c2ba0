package notify

import (
	"context"
	"encoding/json"

	"github.com/cliniqueselma/booking-server/internal/booking"
	"github.com/cliniqueselma/booking-server/internal/i18n"
	"github.com/cliniqueselma/booking-server/internal/observability/metrics"
	"github.com/cliniqueselma/booking-server/pkg/logging"
)

// EmailJob is the queued unit of work: one email to one recipient.
type EmailJob struct {
	To       string `json:"to"`
	ToName   string `json:"to_name,omitempty"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Attempts int    `json:"attempts"`
}

// Dispatcher enqueues confirmation emails after a booking is created.
// Enqueueing happens before the booking response returns; delivery is
// the worker's job and never blocks or fails the booking.
type Dispatcher struct {
	queue      Queue
	catalog    *i18n.Catalog
	adminEmail string
	enabled    bool
	metrics    *metrics.BookingMetrics
	logger     *logging.Logger
}

// NewDispatcher creates the dispatcher. enabled=false (no delivery
// credential configured) degrades to a warning log per booking.
func NewDispatcher(queue Queue, catalog *i18n.Catalog, adminEmail string, enabled bool, m *metrics.BookingMetrics, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	if catalog == nil {
		catalog = i18n.NewCatalog()
	}
	return &Dispatcher{
		queue:      queue,
		catalog:    catalog,
		adminEmail: adminEmail,
		enabled:    enabled,
		metrics:    m,
		logger:     logger,
	}
}

// BookingCreated implements booking.Sink: builds the patient confirmation
// and the clinic alert, localized to the submission, and enqueues both.
// Failures are logged only.
func (d *Dispatcher) BookingCreated(ctx context.Context, appt *booking.Appointment) {
	if !d.enabled || d.queue == nil {
		d.logger.Warn("email delivery not configured; skipping confirmation emails",
			"reference", appt.ReferenceNumber)
		d.metrics.ObserveEmail(metrics.EmailSkipped)
		return
	}

	locale := i18n.Normalize(appt.Locale)
	label := d.catalog.ServiceLabel(appt.ServiceType, locale)

	d.enqueue(ctx, EmailJob{
		To:      appt.PatientEmail,
		ToName:  appt.PatientName,
		Subject: d.catalog.Lookup("email.patient.subject", locale),
		Body: d.catalog.Format("email.patient.body", locale,
			appt.PatientName, label, appt.Date, appt.Time, appt.ReferenceNumber),
	})

	if d.adminEmail == "" {
		return
	}
	d.enqueue(ctx, EmailJob{
		To:      d.adminEmail,
		Subject: d.catalog.Lookup("email.admin.subject", locale),
		Body: d.catalog.Format("email.admin.body", locale,
			appt.PatientName, label, appt.Date, appt.Time, appt.ReferenceNumber),
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, job EmailJob) {
	raw, err := json.Marshal(job)
	if err != nil {
		d.logger.Error("failed to encode email job", "error", err, "to", job.To)
		return
	}
	if err := d.queue.Send(ctx, string(raw)); err != nil {
		// Delivery problems never surface to the patient.
		d.logger.Error("failed to enqueue email job", "error", err, "to", job.To)
		d.metrics.ObserveEmail(metrics.EmailFailed)
		return
	}
	d.logger.Debug("email job enqueued", "to", job.To, "subject", job.Subject)
}

var _ booking.Sink = (*Dispatcher)(nil)
