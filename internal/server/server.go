// Package server is the wiring layer: it connects the store, the editor
// service, handlers and middleware, and runs the HTTP server until a
// shutdown signal arrives.
//
// All dependencies are assembled in New (the composition root):
//
//	KVStore → BinStore → EditorService → PageHandler, EditorHandler
//
// The handler never touches the store and the service never touches HTTP.
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
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sakif/sourcebin/internal/handler"
	"github.com/sakif/sourcebin/internal/middleware"
	"github.com/sakif/sourcebin/internal/repository"
	"github.com/sakif/sourcebin/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port         int
	ServiceName  string
	StorageKey   string
	ShareBaseURL string
}

// Server owns the HTTP router and the store. The store is closed when Start
// returns.
type Server struct {
	router chi.Router
	config Config
	logger *slog.Logger
	store  repository.KVStore
}

// New loads the bin collection from store and builds the routes.
func New(ctx context.Context, cfg Config, store repository.KVStore, logger *slog.Logger) (*Server, error) {
	bins := service.NewBinStore(store, cfg.StorageKey, logger)
	editor := service.NewEditorService(ctx, bins, logger)

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	if err := s.setupRoutes(editor); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler returns the root handler, instrumented with OpenTelemetry.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, s.config.ServiceName)
}

// setupRoutes configures middleware and routes:
//
//	GET  /        editor page (?bin= opens a shared bin)
//	GET  /health  liveness
//	     /api/*   editor operations, see handler.EditorHandler.Routes
//
// Middleware runs in the order it is added: RequestID must come before
// Logger so the id is in the log line.
func (s *Server) setupRoutes(editor *service.EditorService) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	page, err := handler.NewPageHandler(editor, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}
	api := handler.NewEditorHandler(editor, s.config.ShareBaseURL, s.logger)

	s.router.Get("/", page.HandleEditor)
	s.router.Get("/health", handler.HandleHealth)
	s.router.Route("/api", api.Routes)
	return nil
}

// Start serves HTTP until SIGINT/SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the store.
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("failed to close store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
