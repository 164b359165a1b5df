// Package main is the entry point for the airline API server.
//
// It loads configuration, connects to PostgreSQL, wires repositories and
// services into the HTTP chassis, and serves until interrupted. Graceful
// shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"airline/internal/api/handlers"
	"airline/internal/auth"
	"airline/internal/config"
	"airline/internal/core"
	"airline/internal/db"
	"airline/internal/flights"
	"airline/internal/metrics"
	"airline/internal/notify"
	"airline/internal/types"
)

// Compile-time assertions that concrete implementations satisfy the seams
// they are wired into.
var (
	_ core.Authenticator        = (*auth.TokenManager)(nil)
	_ core.MetricsCollector     = (*metrics.CloudWatchCollector)(nil)
	_ core.MetricsCollector     = metrics.NoopCollector{}
	_ flights.TxManager         = (*db.FlightTxManager)(nil)
	_ flights.AirlineRepo       = (*db.AirlineRepository)(nil)
	_ flights.PlaneRepo         = (*db.PlaneRepository)(nil)
	_ flights.FlightRepo        = (*db.FlightRepository)(nil)
	_ flights.DepartureNotifier = (*notify.WebhookNotifier)(nil)
	_ flights.DepartureNotifier = notify.NoopNotifier{}
	_ auth.UserRepo             = (*db.UserRepository)(nil)
	_ auth.TokenIssuer          = (*auth.TokenManager)(nil)
	_ handlers.FlightService    = (*flights.Service)(nil)
	_ handlers.AuthService      = (*auth.Service)(nil)
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("airline API starting",
		"environment", cfg.Environment,
		"airline", cfg.Airline.Name,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	clock := types.RealClock{}

	// Repositories over the shared pool. Transactional flows go through the
	// flight tx manager instead.
	airlineRepo := db.NewAirlineRepository(pool)
	planeRepo := db.NewPlaneRepository(pool)
	flightRepo := db.NewFlightRepository(pool)
	userRepo := db.NewUserRepository(pool)

	var notifier flights.DepartureNotifier = notify.NoopNotifier{}
	if cfg.Webhook.URL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Webhook, logger)
		logger.Info("departure webhook enabled", "user_agent", cfg.Webhook.UserAgent)
	}

	flightService := flights.NewService(
		cfg.Airline.Name,
		flights.TxRepos{Airlines: airlineRepo, Planes: planeRepo, Flights: flightRepo},
		db.NewFlightTxManager(pool),
		notifier,
		clock,
		logger,
	)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, clock)
	authService := auth.NewService(userRepo, auth.NewBcryptHasher(), tokenManager, logger)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.DB = pool
	srv.Authenticator = tokenManager

	if cfg.Observability.MetricsEnabled {
		collector, err := metrics.NewCloudWatchCollector(ctx, cfg.Observability, logger)
		if err != nil {
			return fmt.Errorf("creating metrics collector: %w", err)
		}
		defer collector.Close()
		srv.Metrics = collector
	}

	flightHandler := handlers.NewFlightHandler(flightService, srv.Validator, logger, srv.RequireRole(types.RoleAdmin))
	authHandler := handlers.NewAuthHandler(authService, srv.Validator, logger)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		authHandler.RegisterRoutes,
		flightHandler.RegisterRoutes,
	)

	srv.MountRoutes()

	return runHTTPServer(ctx, srv, cfg, logger)
}

// runHTTPServer serves HTTP until the context is cancelled or the listener
// fails, then shuts down gracefully within the configured deadline.
func runHTTPServer(ctx context.Context, srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	return srv.Shutdown(shutdownCtx)
}

// newLogger builds the process-wide structured JSON logger.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
