// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer, the composition root. main.go hands
// it a Config and a logger; New builds the whole dependency chain:
//
//	sqlite.DB → service.UserService → handler.UserHandler → chi routes
//
// Nothing below this package reaches for globals: the database handle is
// passed explicitly to each layer, which is what lets tests run the full
// stack against an in-memory database.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/sakif/user-service/internal/config"
	"github.com/sakif/user-service/internal/handler"
	"github.com/sakif/user-service/internal/middleware"
	sqliteRepo "github.com/sakif/user-service/internal/repository/sqlite"
	"github.com/sakif/user-service/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database pool. Start closes it on shutdown; callers
// that never Start (tests) must call Close.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	registry *prometheus.Registry
}

// New opens the database and wires every route.
//
// IMPORT ALIAS:
// repository/sqlite is imported as `sqliteRepo` so it can't be confused
// with the modernc sqlite driver package.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.Database.Path, sqliteRepo.Options{
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		registry: prometheus.NewRegistry(),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close() // Clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /users         → List users (JSON)
// POST   /users         → Create user (JSON)
// GET    /users/{id}    → Get single user (JSON)
// DELETE /users/{id}    → Delete user
// GET    /health        → Database reachability
// GET    /metrics       → Prometheus exposition
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: tags the request so every later log line can carry it
// 2. RealIP:    extracts real client IP from proxy headers
// 3. Logger:    logs each request with timing info
// 4. Recoverer: inside Logger, so a panic is logged as the 500 it becomes
// 5. Metrics:   counts by chi route pattern
// 6. RateLimit: only on /users, so health checks and scrapes never get 429
func (s *Server) setupRoutes() error {
	if err := s.registry.Register(collectors.NewGoCollector()); err != nil {
		return fmt.Errorf("registering go collector: %w", err)
	}
	if err := s.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return fmt.Errorf("registering process collector: %w", err)
	}
	metrics := middleware.NewMetrics(s.registry)

	s.router.Use(middleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(metrics.Handler)

	s.router.NotFound(handler.NotFound)
	s.router.MethodNotAllowed(handler.MethodNotAllowed)

	// === Operational routes ===
	healthHandler := handler.NewHealthHandler(s.db, s.logger)
	s.router.Get("/health", healthHandler.HandleHealth)
	s.router.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	// === API routes ===
	// The handler never touches the database directly.
	// The service never touches HTTP.
	userService := service.NewUserService(s.db, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)

	s.router.Route("/users", func(r chi.Router) {
		r.Use(middleware.RateLimit(s.limiter(), s.logger))
		r.Get("/", userHandler.HandleList)
		r.Post("/", userHandler.HandleCreate)
		r.Get("/{id}", userHandler.HandleGetByID)
		r.Delete("/{id}", userHandler.HandleDelete)
	})

	return nil
}

// limiter builds the shared token bucket, or nil when limiting is disabled.
func (s *Server) limiter() *rate.Limiter {
	if s.config.RateLimit.RPS <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(s.config.RateLimit.RPS), s.config.RateLimit.Burst)
}

// Handler exposes the fully wired router, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it on shutdown.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM or a fatal
// listen error.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (ShutdownTimeout)
// 3. Close the database pool (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:              s.config.HTTP.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("database", s.config.Database.URL),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.HTTP.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
