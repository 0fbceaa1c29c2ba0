package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cliniqueselma/booking-server/internal/admin"
	"github.com/cliniqueselma/booking-server/internal/booking"
	"github.com/cliniqueselma/booking-server/internal/feed"
	httpmiddleware "github.com/cliniqueselma/booking-server/internal/http/middleware"
	"github.com/cliniqueselma/booking-server/internal/schedule"
	"github.com/cliniqueselma/booking-server/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	BookingHandler  *booking.Handler
	ScheduleHandler *schedule.Handler
	Appointments    *admin.AppointmentsHandler
	StatsHandler    *admin.StatsHandler
	FeedHub         *feed.Hub
	MetricsHandler  http.Handler

	AdminAuthSecret    string
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/health", handleHealth)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.BookingHandler != nil {
			rate := cfg.RateLimitPerSecond
			burst := cfg.RateLimitBurst
			if rate <= 0 {
				rate = 2
			}
			if burst <= 0 {
				burst = 5
			}
			public.With(httpmiddleware.RateLimit(rate, burst)).
				Post("/api/appointments", cfg.BookingHandler.Create)
		}
	})

	// Back-office endpoints.
	r.Route("/admin", func(adminRouter chi.Router) {
		adminRouter.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))

		if cfg.ScheduleHandler != nil {
			adminRouter.Mount("/blocked-dates", cfg.ScheduleHandler.Routes())
		}
		if cfg.Appointments != nil {
			adminRouter.Get("/appointments", cfg.Appointments.List)
			adminRouter.Get("/appointments/{reference}", cfg.Appointments.Get)
			adminRouter.Patch("/appointments/{reference}/status", cfg.Appointments.UpdateStatus)
		}
		if cfg.StatsHandler != nil {
			adminRouter.Get("/stats", cfg.StatsHandler.Get)
		}
		if cfg.FeedHub != nil {
			adminRouter.Get("/feed", cfg.FeedHub.HandleWebSocket)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
