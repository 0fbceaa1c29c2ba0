package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cliniqueselma/booking-server/cmd/mainconfig"
	appconfig "github.com/cliniqueselma/booking-server/internal/config"
	"github.com/cliniqueselma/booking-server/internal/notify"
	"github.com/cliniqueselma/booking-server/internal/observability/metrics"
	notifyworker "github.com/cliniqueselma/booking-server/internal/worker/notify"
	"github.com/cliniqueselma/booking-server/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.NotifyQueueURL == "" {
		logger.Error("NOTIFY_QUEUE_URL is required")
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	queue := notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL)

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	deadLetters := notify.NewDeadLetterStore(pool)

	sender := buildSender(awsCfg, cfg, logger)
	if sender == nil {
		logger.Error("email provider misconfigured", "provider", cfg.EmailProvider)
		os.Exit(1)
	}

	bookingMetrics := metrics.NewBookingMetrics(prometheus.NewRegistry())

	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		w := notifyworker.New(queue, sender, deadLetters, cfg.NotifyMaxAttempts, bookingMetrics, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Run(ctx)
		}()
	}
	logger.Info("notification workers running", "count", cfg.WorkerCount)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down notification workers...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("notification workers stopped")
	case <-doneCtx.Done():
		logger.Error("notification worker shutdown timed out", "error", doneCtx.Err())
	}
}

// buildSender checks the concrete constructor results before widening to
// the interface, so a missing API key yields a nil interface rather than
// a typed-nil pointer that would slip past the guard in main.
func buildSender(awsCfg aws.Config, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "ses":
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			return nil
		}
		return sender
	default:
		return notify.NewStubEmailSender(logger)
	}
}
