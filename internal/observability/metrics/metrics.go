package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking workflow.
type BookingMetrics struct {
	submissionsTotal *prometheus.CounterVec
	requestLatency   prometheus.Histogram
	emailsTotal      *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "selma",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Booking submissions by outcome",
		}, []string{"outcome"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "selma",
			Subsystem: "booking",
			Name:      "request_latency_seconds",
			Help:      "Latency of booking submissions",
			Buckets:   prometheus.DefBuckets,
		}),
		emailsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "selma",
			Subsystem: "notify",
			Name:      "emails_total",
			Help:      "Confirmation email deliveries by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.requestLatency, m.emailsTotal)
	return m
}

// Submission outcomes.
const (
	OutcomeCreated     = "created"
	OutcomeInvalid     = "invalid"
	OutcomeDateBlocked = "date_blocked"
	OutcomeSlotTaken   = "slot_taken"
	OutcomeError       = "error"
)

// Email outcomes.
const (
	EmailSent       = "sent"
	EmailFailed     = "failed"
	EmailDeadLetter = "dead_letter"
	EmailSkipped    = "skipped"
)

func (m *BookingMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveLatency(seconds float64) {
	if m == nil {
		return
	}
	m.requestLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveEmail(outcome string) {
	if m == nil {
		return
	}
	m.emailsTotal.WithLabelValues(outcome).Inc()
}
