package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cassiomorais/courts/internal/bootstrap"
	"github.com/cassiomorais/courts/internal/controller"
	"github.com/cassiomorais/courts/internal/repository/postgres"
	"github.com/cassiomorais/courts/internal/service"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "courts-api", "courts")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	slotRepo := postgres.NewSlotRepository(app.Pool)
	bookingRepo := postgres.NewBookingRepository(app.Pool)
	courtRepo := postgres.NewCourtRepository(app.Pool)
	userRepo := postgres.NewUserRepository(app.Pool)
	reportRepo := postgres.NewReportRepository(app.Pool)
	outboxRepo := postgres.NewOutboxRepository(app.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(app.Pool)

	// --- Services ---
	bookingCfg := app.Config.Booking
	bookingService := service.NewBookingService(slotRepo, bookingRepo, outboxRepo, app.TxManager, service.BookingConfig{
		MaxSlotsPerBooking: bookingCfg.MaxSlotsPerBooking,
		MaxRetries:         bookingCfg.MaxRetries,
		RetryDelay:         bookingCfg.RetryDelay,
	}, app.Logger, app.Metrics)
	courtService := service.NewCourtService(courtRepo, slotRepo, app.Logger)
	userService := service.NewUserService(userRepo, bookingRepo, app.TxManager, app.Logger)
	reportService := service.NewReportService(reportRepo)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		ServiceName:      "courts-api",
		BookingService:   bookingService,
		CourtService:     courtService,
		UserService:      userService,
		ReportService:    reportService,
		IdempotencyStore: idempotencyRepo,
		HealthChecks: []controller.HealthCheck{
			{Name: "postgres", Check: app.Pool.Ping},
			{Name: "redis", Check: func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() }},
		},
		Metrics:  app.Metrics,
		Gatherer: app.Gatherer,
		Server:   app.Config.Server,
		Booking:  bookingCfg,
		Logger:   app.Logger,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		app.Logger.Error().Err(err).Msg("HTTP server failed")
	}

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
