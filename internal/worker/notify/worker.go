package notifyworker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cliniqueselma/booking-server/internal/notify"
	"github.com/cliniqueselma/booking-server/internal/observability/metrics"
	"github.com/cliniqueselma/booking-server/pkg/logging"
)

const (
	receiveBatchSize   = 5
	receiveWaitSeconds = 10
)

// DeadLetterRecorder persists jobs whose delivery attempts are exhausted.
type DeadLetterRecorder interface {
	Record(ctx context.Context, job notify.EmailJob, lastError string) error
}

// Worker drains the notification queue and delivers emails. Delivery is
// at-least-once: a failed job is re-enqueued with an incremented attempt
// count until NOTIFY_MAX_ATTEMPTS, then dead-lettered.
type Worker struct {
	queue       notify.Queue
	sender      notify.EmailSender
	deadLetters DeadLetterRecorder
	maxAttempts int
	metrics     *metrics.BookingMetrics
	logger      *logging.Logger
}

// New creates a delivery worker.
func New(queue notify.Queue, sender notify.EmailSender, deadLetters DeadLetterRecorder, maxAttempts int, m *metrics.BookingMetrics, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Worker{
		queue:       queue,
		sender:      sender,
		deadLetters: deadLetters,
		maxAttempts: maxAttempts,
		metrics:     m,
		logger:      logger,
	}
}

// Run polls the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("notification worker started", "max_attempts", w.maxAttempts)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("notification worker stopping")
			return ctx.Err()
		default:
		}

		msgs, err := w.queue.Receive(ctx, receiveBatchSize, receiveWaitSeconds)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			w.logger.Error("queue receive failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		for _, msg := range msgs {
			w.process(ctx, msg)
		}
	}
}

func (w *Worker) process(ctx context.Context, msg notify.QueueMessage) {
	var job notify.EmailJob
	if err := json.Unmarshal([]byte(msg.Body), &job); err != nil {
		// Undecodable payloads can never succeed; drop them loudly.
		w.logger.Error("dropping malformed email job", "error", err, "message_id", msg.ID)
		w.deleteMessage(ctx, msg)
		return
	}

	job.Attempts++
	err := w.sender.Send(ctx, notify.EmailMessage{
		To:      job.To,
		ToName:  job.ToName,
		Subject: job.Subject,
		Body:    job.Body,
	})
	if err == nil {
		w.metrics.ObserveEmail(metrics.EmailSent)
		w.deleteMessage(ctx, msg)
		return
	}

	if job.Attempts >= w.maxAttempts {
		w.metrics.ObserveEmail(metrics.EmailDeadLetter)
		w.logger.Error("email delivery exhausted, dead-lettering",
			"to", job.To, "attempts", job.Attempts, "error", err)
		if w.deadLetters != nil {
			if dlErr := w.deadLetters.Record(ctx, job, err.Error()); dlErr != nil {
				w.logger.Error("failed to record dead letter", "error", dlErr, "to", job.To)
			}
		}
		w.deleteMessage(ctx, msg)
		return
	}

	w.metrics.ObserveEmail(metrics.EmailFailed)
	w.logger.Warn("email delivery failed, re-enqueueing",
		"to", job.To, "attempt", job.Attempts, "error", err)
	raw, marshalErr := json.Marshal(job)
	if marshalErr != nil {
		w.logger.Error("failed to re-encode email job", "error", marshalErr, "to", job.To)
		w.deleteMessage(ctx, msg)
		return
	}
	if sendErr := w.queue.Send(ctx, string(raw)); sendErr != nil {
		// Leave the original visible for redelivery instead of losing it.
		w.logger.Error("failed to re-enqueue email job", "error", sendErr, "to", job.To)
		return
	}
	w.deleteMessage(ctx, msg)
}

func (w *Worker) deleteMessage(ctx context.Context, msg notify.QueueMessage) {
	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Error("failed to delete queue message", "error", err, "message_id", msg.ID)
	}
}
