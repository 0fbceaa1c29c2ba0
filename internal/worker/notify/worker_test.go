package notifyworker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliniqueselma/booking-server/internal/notify"
	"github.com/cliniqueselma/booking-server/internal/observability/metrics"
	"github.com/cliniqueselma/booking-server/pkg/logging"
)

type flakySender struct {
	mu       sync.Mutex
	failures int
	sent     []notify.EmailMessage
}

func (s *flakySender) Send(_ context.Context, msg notify.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("smtp timeout")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *flakySender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type recordingDeadLetters struct {
	mu   sync.Mutex
	jobs []notify.EmailJob
	errs []string
}

func (d *recordingDeadLetters) Record(_ context.Context, job notify.EmailJob, lastError string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
	d.errs = append(d.errs, lastError)
	return nil
}

func (d *recordingDeadLetters) recorded() []notify.EmailJob {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notify.EmailJob(nil), d.jobs...)
}

func enqueueJob(t *testing.T, q notify.Queue, job notify.EmailJob) {
	t.Helper()
	raw, err := json.Marshal(job)
	require.NoError(t, err)
	require.NoError(t, q.Send(context.Background(), string(raw)))
}

func runWorker(t *testing.T, w *Worker, until func() bool) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	deadline := time.After(2 * time.Second)
	for !until() {
		select {
		case <-deadline:
			cancel()
			<-done
			t.Fatal("worker did not reach expected state in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestWorkerDeliversJob(t *testing.T) {
	q := notify.NewMemoryQueue(8)
	sender := &flakySender{}
	w := New(q, sender, nil, 3, metrics.NewBookingMetrics(prometheus.NewRegistry()), logging.Default())

	enqueueJob(t, q, notify.EmailJob{
		To:      "amina@example.dz",
		ToName:  "Amina Bensaid",
		Subject: "Confirmation de rendez-vous",
		Body:    "Bonjour",
	})

	runWorker(t, w, func() bool { return sender.sentCount() == 1 })

	assert.Equal(t, "amina@example.dz", sender.sent[0].To)
	assert.Equal(t, "Confirmation de rendez-vous", sender.sent[0].Subject)
}

func TestWorkerRetriesThenDelivers(t *testing.T) {
	q := notify.NewMemoryQueue(8)
	sender := &flakySender{failures: 2}
	w := New(q, sender, nil, 3, metrics.NewBookingMetrics(prometheus.NewRegistry()), logging.Default())

	enqueueJob(t, q, notify.EmailJob{To: "amina@example.dz", Subject: "Confirmation"})

	runWorker(t, w, func() bool { return sender.sentCount() == 1 })
}

func TestWorkerDeadLettersAfterMaxAttempts(t *testing.T) {
	q := notify.NewMemoryQueue(8)
	sender := &flakySender{failures: 10}
	dead := &recordingDeadLetters{}
	w := New(q, sender, dead, 3, metrics.NewBookingMetrics(prometheus.NewRegistry()), logging.Default())

	enqueueJob(t, q, notify.EmailJob{To: "amina@example.dz", Subject: "Confirmation"})

	runWorker(t, w, func() bool { return len(dead.recorded()) == 1 })

	jobs := dead.recorded()
	assert.Equal(t, "amina@example.dz", jobs[0].To)
	assert.Equal(t, 3, jobs[0].Attempts)
	assert.Equal(t, 0, sender.sentCount())
}

func TestWorkerDropsMalformedJob(t *testing.T) {
	q := notify.NewMemoryQueue(8)
	sender := &flakySender{}
	dead := &recordingDeadLetters{}
	w := New(q, sender, dead, 3, metrics.NewBookingMetrics(prometheus.NewRegistry()), logging.Default())

	require.NoError(t, q.Send(context.Background(), "{not json"))
	enqueueJob(t, q, notify.EmailJob{To: "amina@example.dz", Subject: "Confirmation"})

	runWorker(t, w, func() bool { return sender.sentCount() == 1 })

	assert.Empty(t, dead.recorded())
}
