// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/catalog-api/internal/config"
	"github.com/vyrodovalexey/catalog-api/internal/handler"
	"github.com/vyrodovalexey/catalog-api/internal/middleware"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	handler    http.Handler
	config     *config.Config
	logger     *zap.Logger
}

// New creates a new Server instance serving svc.
func New(cfg *config.Config, logger *zap.Logger, svc handler.ItemService) *Server {
	s := &Server{
		router: mux.NewRouter(),
		config: cfg,
		logger: logger,
	}

	s.setupRoutes(svc)
	s.setupMiddleware()
	s.setupHTTPServer()

	return s
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes(svc handler.ItemService) {
	restHandler := handler.NewRESTHandler(svc, s.logger, s.config.MaxBodyBytes)
	restHandler.RegisterRoutes(s.router)

	if s.config.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
}

// setupMiddleware wraps the router in the middleware chain. The chain sits
// outside the router so preflight requests and unmatched routes pass through
// it as well.
func (s *Server) setupMiddleware() {
	allowedMethods := []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodOptions,
	}
	allowedHeaders := []string{
		"Content-Type",
		middleware.RequestIDHeader,
	}

	// First listed = outermost
	chain := []middleware.Middleware{
		middleware.Recovery(s.logger),
		middleware.RequestID(),
	}
	if s.config.MetricsEnabled {
		chain = append(chain, middleware.Metrics(s.router))
	}
	chain = append(chain,
		middleware.Logging(s.logger),
		middleware.CORS(s.config.AllowedOrigins, allowedMethods, allowedHeaders),
	)

	s.handler = middleware.Chain(chain...)(s.router)
}

// setupHTTPServer configures the HTTP server.
func (s *Server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		zap.String("address", s.config.Address()),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
		zap.Strings("allowed_origins", s.config.AllowedOrigins),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the server's router for testing purposes.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}
