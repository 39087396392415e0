package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/tandaclean/site/internal"
	"github.com/tandaclean/site/internal/auth"
	"github.com/tandaclean/site/internal/email"
	"github.com/tandaclean/site/internal/geo"
	"github.com/tandaclean/site/internal/handler"
	"github.com/tandaclean/site/internal/metrics"
	"github.com/tandaclean/site/internal/middleware"
	"github.com/tandaclean/site/internal/outbox"
	"github.com/tandaclean/site/internal/repository"
	"github.com/tandaclean/site/internal/service"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database pool
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations through a database/sql handle over the same pool
	migrationDB := stdlib.OpenDBFromPool(pool)
	if err := internal.RunMigrations(migrationDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if err := migrationDB.Close(); err != nil {
		return fmt.Errorf("closing migration handle failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	store := repository.NewStore(pool)

	// Email provider
	var sender email.Sender
	switch cfg.EmailProvider {
	case "resend":
		sender = email.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
	default:
		sender = email.NewLogSender(logger)
	}
	logger.Info("Email provider configured", "provider", cfg.EmailProvider)

	// Outbox dispatcher
	dispatcher := outbox.NewDispatcher(store, sender, logger, outbox.RetryConfig{
		Enabled:     cfg.RetryEnabled,
		MaxAttempts: cfg.RetryMaxAttempts,
		Cooldown:    cfg.RetryCooldown,
	})

	// Initialize services
	bookingService := service.NewBookingService(store, dispatcher, logger)
	verificationService := service.NewVerificationService(store, logger)
	assignmentService := service.NewAssignmentService(store, dispatcher, logger)

	// Auth platform verifier; without AUTH_URL all bearer tokens are
	// rejected, which leaves guest booking as the only intake.
	var verifier auth.Verifier
	if cfg.AuthURL != "" {
		verifier = auth.NewHTTPVerifier(cfg.AuthURL, cfg.AuthAPIKey)
	} else {
		verifier = rejectAllVerifier{}
		logger.Warn("AUTH_URL not set; account bookings and admin routes are disabled")
	}

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(verifier, store, logger)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	// Initialize handlers
	bookingHandler := handler.NewBookingHandler(bookingService, cfg.BaseURL, logger)
	verifyHandler := handler.NewVerifyHandler(verificationService, logger)
	adminHandler := handler.NewAdminHandler(assignmentService, logger)
	dispatchHandler := handler.NewDispatchHandler(dispatcher, logger)
	placesHandler := handler.NewPlacesHandler(geo.NewClient(cfg.GoogleMapsAPIKey), logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Static files
	staticFS := http.FileServer(http.Dir("web/static"))
	mux.Handle("GET /", staticFS)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics (basic auth when configured)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Middleware stacks
	public := middleware.Stack(loggingMw.Handler, metrics.Middleware)
	requireUser := middleware.Stack(loggingMw.Handler, metrics.Middleware, authMw.WithIdentity, authMw.RequireIdentity)
	requireAdmin := middleware.Stack(loggingMw.Handler, metrics.Middleware, authMw.WithIdentity, authMw.RequireIdentity, authMw.RequireAdmin)

	// Public booking surface
	mux.Handle("POST /api/guest/book", public(http.HandlerFunc(bookingHandler.CreateGuestBooking)))
	mux.Handle("GET /guest/verify", public(http.HandlerFunc(verifyHandler.Verify)))
	mux.Handle("GET /api/wash-types", public(http.HandlerFunc(bookingHandler.WashTypes)))
	mux.Handle("GET /api/places/autocomplete", public(http.HandlerFunc(placesHandler.Autocomplete)))
	mux.Handle("GET /api/places/reverse-geocode", public(http.HandlerFunc(placesHandler.ReverseGeocode)))
	mux.Handle("POST /api/email/dispatch", public(http.HandlerFunc(dispatchHandler.Dispatch)))

	// Account bookings
	mux.Handle("POST /api/bookings", requireUser(http.HandlerFunc(bookingHandler.CreateCustomerBooking)))

	// Admin workflow
	mux.Handle("GET /api/admin/appointments", requireAdmin(http.HandlerFunc(adminHandler.List)))
	mux.Handle("POST /api/admin/appointments/{id}/assign", requireAdmin(http.HandlerFunc(adminHandler.Assign)))
	mux.Handle("POST /api/admin/appointments/{id}/complete", requireAdmin(http.HandlerFunc(adminHandler.Complete)))
	mux.Handle("POST /api/admin/appointments/{id}/cancel", requireAdmin(http.HandlerFunc(adminHandler.Cancel)))

	// ==========================================================================
	// Periodic outbox passes
	// ==========================================================================

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.DispatchSchedule, func() {
		dispatchCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if n, err := dispatcher.Dispatch(dispatchCtx, nil); err != nil {
			logger.Error("scheduled dispatch failed", "error", err)
		} else if n > 0 {
			logger.Info("scheduled dispatch complete", "processed", n)
		}
		if _, err := dispatcher.RequeueFailed(dispatchCtx); err != nil {
			logger.Error("requeue pass failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid DISPATCH_SCHEDULE: %w", err)
	}
	scheduler.Start()
	logger.Info("Outbox schedule registered", "spec", cfg.DispatchSchedule)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	// Let an in-flight cron pass finish
	<-scheduler.Stop().Done()

	logger.Info("Graceful shutdown complete")
	return nil
}

// rejectAllVerifier stands in when no auth platform is configured.
type rejectAllVerifier struct{}

func (rejectAllVerifier) Verify(_ context.Context, _ string) (*auth.Identity, error) {
	return nil, fmt.Errorf("auth platform not configured")
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
