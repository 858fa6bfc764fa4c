package controller

import (
	"net/http"
	"time"

	"github.com/cassiomorais/courts/internal/infrastructure/config"
	"github.com/cassiomorais/courts/internal/infrastructure/observability"
	customMW "github.com/cassiomorais/courts/internal/middleware"
	"github.com/cassiomorais/courts/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	ServiceName      string
	BookingService   *service.BookingService
	CourtService     *service.CourtService
	UserService      *service.UserService
	ReportService    *service.ReportService
	IdempotencyStore customMW.IdempotencyStore
	HealthChecks     []HealthCheck
	Metrics          *observability.Metrics
	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
	Server   config.ServerConfig
	Booking  config.BookingConfig
	Logger   zerolog.Logger
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	timeout := deps.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing(deps.ServiceName))
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Server.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Retry-After", "X-Idempotency-Replayed"},
		AllowCredentials: deps.Server.CORS.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.HealthChecks...)
	bookingH := NewBookingController(deps.BookingService)
	courtH := NewCourtController(deps.CourtService)
	userH := NewUserController(deps.UserService)
	reportH := NewReportController(deps.ReportService)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Server.RateLimit.Requests > 0 {
			r.Use(customMW.RateLimit(deps.Server.RateLimit.Requests, deps.Server.RateLimit.Window))
		}

		// Users
		r.Post("/users", userH.Register)
		r.Get("/users", userH.List)
		r.Get("/users/{id}", userH.Get)
		r.Patch("/users/{id}", userH.Update)
		r.Delete("/users/{id}", userH.Delete)
		r.Post("/users/{id}/phones", userH.AddPhone)
		r.Get("/users/{id}/phones", userH.ListPhones)
		r.Get("/users/{id}/bookings", bookingH.ListByUser)

		// Courts and slots
		r.Get("/court-types", courtH.ListTypes)
		r.Get("/courts", courtH.List)
		r.Post("/courts", courtH.Create)
		r.Get("/courts/{id}", courtH.Get)
		r.Post("/courts/{id}/slots", courtH.CreateSlot)
		r.Get("/courts/{id}/slots/available", bookingH.AvailableSlots)
		r.Get("/courts/{id}/slots/unavailable", bookingH.UnavailableSlots)

		// Bookings
		bookings := r.With()
		if deps.IdempotencyStore != nil {
			bookings = r.With(customMW.Idempotency(deps.IdempotencyStore, deps.Booking.IdempotencyTTL, deps.Logger))
		}
		bookings.Post("/bookings", bookingH.Create)
		r.Get("/bookings/{id}", bookingH.Get)
		r.Put("/bookings/{id}/status", bookingH.UpdateStatus)

		// Reports
		r.Route("/reports", func(r chi.Router) {
			r.Get("/bookings-by-status", reportH.BookingsByStatus)
			r.Get("/court-usage", reportH.CourtUsage)
			r.Get("/bookings-by-day", reportH.BookingsByDay)
			r.Get("/revenue-by-court", reportH.RevenueByCourt)
			r.Get("/top-users", reportH.TopUsers)
			r.Get("/bookings-by-hour", reportH.BookingsByHour)
			r.Get("/bookings-by-court-type", reportH.BookingsByCourtType)
			r.Get("/revenue-by-month", reportH.RevenueByMonth)
			r.Get("/revenue-by-day", reportH.RevenueByDay)
			r.Get("/revenue-by-court-type", reportH.RevenueByCourtType)
			r.Get("/revenue-by-user", reportH.RevenueByUser)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "route not found", Code: "not_found"})
	})

	return r
}
