package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/MilkFoam-L/Algorhythm/internal/engine"
)

// Config holds server configuration
type Config struct {
	Port   int
	JobTTL time.Duration // how long finished jobs stay queryable
}

// DefaultConfig returns the default server configuration
func DefaultConfig() Config {
	return Config{
		Port:   8080,
		JobTTL: 10 * time.Minute,
	}
}

// Server is the HTTP conversion service
type Server struct {
	config Config
	router *chi.Mux
	logger *slog.Logger
	engine *engine.Engine
	jobs   *JobManager
}

// New creates a new server around a conversion engine
func New(cfg Config, eng *engine.Engine) *Server {
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = DefaultConfig().JobTTL
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		logger: logger,
		engine: eng,
		jobs:   NewJobManager(eng, logger, cfg.JobTTL),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(cors.Default().Handler)

	// API
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/instruments", s.handleInstruments)
	r.Post("/api/convert", s.handleConvert)
	r.Post("/api/jobs", s.handleCreateJob)
	r.Get("/api/jobs/{id}", s.handleJobStatus)
}

// Handler exposes the configured router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server and blocks until shutdown
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		s.logger.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	s.logger.Info("server starting", slog.Int("port", s.config.Port))
	fmt.Printf("\n  Algorhythm conversion service running at: http://localhost:%d\n\n", s.config.Port)

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	<-done
	return nil
}
