package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/cliniqueselma/booking-server/cmd/mainconfig"
	"github.com/cliniqueselma/booking-server/internal/admin"
	"github.com/cliniqueselma/booking-server/internal/api/router"
	"github.com/cliniqueselma/booking-server/internal/booking"
	appconfig "github.com/cliniqueselma/booking-server/internal/config"
	"github.com/cliniqueselma/booking-server/internal/feed"
	"github.com/cliniqueselma/booking-server/internal/i18n"
	"github.com/cliniqueselma/booking-server/internal/notify"
	"github.com/cliniqueselma/booking-server/internal/observability/metrics"
	"github.com/cliniqueselma/booking-server/internal/schedule"
	notifyworker "github.com/cliniqueselma/booking-server/internal/worker/notify"
	"github.com/cliniqueselma/booking-server/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// The back-office handlers run on database/sql.
	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open sql database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = sqlDB.Close() }()

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)
	catalog := i18n.NewCatalog()

	// Blocked dates, optionally cached in Redis.
	scheduleStore := schedule.NewStore(pool)
	var blockedSource booking.BlockedDateSource = scheduleStore
	var scheduleManager schedule.Manager = scheduleStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer func() { _ = redisClient.Close() }()
		ttl := time.Duration(cfg.BlockedDateCacheTTLSeconds) * time.Second
		cached := schedule.NewCachedStore(scheduleStore, redisClient, ttl, logger)
		blockedSource = cached
		scheduleManager = cached
		logger.Info("blocked date cache enabled", "addr", cfg.RedisAddr, "ttl", ttl)
	}

	// Notification queue: SQS in production, in-process otherwise.
	var queue notify.Queue
	if cfg.UseMemoryQueue {
		queue = notify.NewMemoryQueue(128)
		logger.Info("using in-memory notification queue")
	} else {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		queue = notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL)
		logger.Info("using SQS notification queue", "queue_url", cfg.NotifyQueueURL)
	}

	sender := buildEmailSender(ctx, cfg, logger)
	emailEnabled := cfg.EmailProvider != "" && sender != nil

	dispatcher := notify.NewDispatcher(queue, catalog, cfg.AdminEmail, emailEnabled, bookingMetrics, logger)
	deadLetters := notify.NewDeadLetterStore(pool)

	// With the in-memory queue there is no separate worker binary, so the
	// delivery workers run inside the API process.
	if cfg.UseMemoryQueue && emailEnabled {
		for i := 0; i < cfg.WorkerCount; i++ {
			w := notifyworker.New(queue, sender, deadLetters, cfg.NotifyMaxAttempts, bookingMetrics, logger)
			go func() { _ = w.Run(ctx) }()
		}
		logger.Info("inline notification workers started", "count", cfg.WorkerCount)
	}

	repo := booking.NewRepository(pool)
	svc := booking.NewService(repo, blockedSource, bookingMetrics, logger)
	svc.AddSink(dispatcher)

	hub := feed.NewHub(logger)
	svc.AddSink(hub)

	routerCfg := &router.Config{
		Logger:             logger,
		BookingHandler:     booking.NewHandler(svc, catalog, logger),
		ScheduleHandler:    schedule.NewHandler(scheduleManager, logger),
		Appointments:       admin.NewAppointmentsHandler(sqlDB, logger),
		StatsHandler:       admin.NewStatsHandler(admin.NewStatsRepository(pool), logger),
		FeedHub:            hub,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but no API key, email disabled")
			return nil
		}
		return sender
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config for SES", "error", err)
			return nil
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	case "stub":
		return notify.NewStubEmailSender(logger)
	default:
		logger.Warn("no email provider configured, email disabled")
		return nil
	}
}
